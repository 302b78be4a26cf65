// Package api exposes the HTTP interface: the Hue guide feed, provider share
// cards, guide profile events, province lookup and operational endpoints.
package api

package huefeed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ResolveFragment replays each payload as a form post to path, in order, and
// returns the first response that contains the listing fragment. It returns
// "" when no payload yields one.
func ResolveFragment(ctx context.Context, pages PageFetcher, path string, payloads []Payload) (string, error) {
	for i, payload := range payloads {
		req := Request{
			Body:   payload.Encode(),
			Header: http.Header{"Content-Type": {formContentType}},
		}
		body, err := pages.Fetch(ctx, path, req)
		if err != nil {
			return "", fmt.Errorf("replay widget %d: %w", i, err)
		}
		if strings.Contains(body, fragmentMarker) {
			return body, nil
		}
	}
	return "", nil
}

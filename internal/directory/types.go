// Package directory defines the shared data model and interfaces for the
// provider/guide directory backend.
package directory

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrBlobPathRequired is returned by blob stores for an empty object path.
var ErrBlobPathRequired = errors.New("blob path is required")

// Provider is a service provider listed in the directory.
type Provider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Address      string `json:"address,omitempty"`
	Province     string `json:"province,omitempty"`
	MainImageURL string `json:"mainImageUrl,omitempty"`
	IsApproved   bool   `json:"isApproved"`
}

// GuideProfile is the subset of a guide's profile used for card expiry reminders.
type GuideProfile struct {
	UID                      string     `json:"uid"`
	FullName                 string     `json:"fullName,omitempty"`
	Email                    string     `json:"email,omitempty"`
	CardNumber               string     `json:"cardNumber,omitempty"`
	ExpiryDate               *time.Time `json:"expiryDate,omitempty"`
	LastExpiryNotificationAt *time.Time `json:"lastExpiryNotificationAt,omitempty"`
}

// GuideProfileEvent announces that a guide profile was written.
// Deleted events carry only the UID.
type GuideProfileEvent struct {
	Profile   GuideProfile `json:"profile"`
	Deleted   bool         `json:"deleted,omitempty"`
	Submitted int64        `json:"-"`
}

// CardType distinguishes domestic and international guide cards.
type CardType string

// Card types published by the national registry.
const (
	CardTypeDomestic      CardType = "domestic"
	CardTypeInternational CardType = "international"
)

// GuideRecord is one entry scraped from the national guide registry.
type GuideRecord struct {
	FullName     string   `json:"fullName"`
	CardNumber   string   `json:"cardNumber"`
	IssuingPlace string   `json:"issuingPlace"`
	Province     string   `json:"province,omitempty"`
	CardType     CardType `json:"cardType"`
	ExpiryDate   string   `json:"expiryDate,omitempty"`
	Languages    []string `json:"languages"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	PhotoURL     string   `json:"photoUrl,omitempty"`
}

// NotificationSent is published after an expiry reminder is delivered.
type NotificationSent struct {
	UID      string    `json:"uid"`
	Email    string    `json:"email"`
	DaysLeft int       `json:"daysLeft"`
	SentAt   time.Time `json:"sentAt"`
}

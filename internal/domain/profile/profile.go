// Package profile provides the demo account profile. There are no real
// accounts; updates are validated and echoed but never stored.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/technews/internal/domain"
	"github.com/Strob0t/technews/internal/domain/contact"
)

const (
	demoMemberSince     = "January 2024"
	unspecifiedLocation = "Not specified"
	maxFieldLength      = 200
)

// Profile is the account profile shown on the profile page.
type Profile struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	MemberSince string    `json:"memberSince"`
	LastLogin   time.Time `json:"lastLogin"`
}

// UpdateRequest is the body of a profile update.
type UpdateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// Demo returns the fixed demo profile with LastLogin set to now.
func Demo(now time.Time) Profile {
	return Profile{
		Name:        "John Doe",
		Email:       "john.doe@example.com",
		Location:    "New York, USA",
		MemberSince: demoMemberSince,
		LastLogin:   now.UTC(),
	}
}

// Apply validates req and returns the profile it would produce.
func Apply(req UpdateRequest, now time.Time) (Profile, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return Profile{}, fmt.Errorf("name and email are required: %w", domain.ErrValidation)
	}
	if len(name) > maxFieldLength || len(req.Location) > maxFieldLength {
		return Profile{}, fmt.Errorf("fields must not exceed %d characters: %w", maxFieldLength, domain.ErrValidation)
	}
	if !contact.ValidEmail(email) {
		return Profile{}, fmt.Errorf("email address is invalid: %w", domain.ErrValidation)
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = unspecifiedLocation
	}
	return Profile{
		Name:        name,
		Email:       email,
		Location:    location,
		MemberSince: demoMemberSince,
		LastLogin:   now.UTC(),
	}, nil
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxResponseLength is the upper bound, in characters, of a survey response.
const MaxResponseLength = 500

// Survey is a single pulse response owned by the user who submitted it.
type Survey struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateResponse checks the response text bounds. Length is counted in
// runes, not bytes.
func ValidateResponse(text string) error {
	switch {
	case text == "":
		return NewValidationError(FieldError{Field: "response", Message: "response is required"})
	case utf8.RuneCountInString(text) > MaxResponseLength:
		return NewValidationError(FieldError{
			Field:   "response",
			Message: "response must be at most 500 characters",
		})
	}
	return nil
}

// ValidateOwner rejects a blank owner identifier.
func ValidateOwner(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return NewValidationError(FieldError{Field: "user_id", Message: "user_id is required"})
	}
	return nil
}

// Package models defines the data structures for the Roomy matching engine.
package models

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors
var (
	ErrAuthRequired    = errors.New("authentication required")
	ErrInvalidAuth     = errors.New("invalid authentication")
	ErrStudentNotFound = errors.New("student profile not found")
	ErrRateLimited     = errors.New("too many requests")
	ErrInvalidMode     = errors.New("invalid mode")
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidFeedback = errors.New("invalid feedback")
	ErrInvalidRequest  = errors.New("invalid request")
)

// StatusFor maps a pipeline error to the HTTP status returned to the caller.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrInvalidAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStudentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidMode), errors.Is(err, ErrInvalidAction), errors.Is(err, ErrInvalidFeedback), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the error text surfaced in the response body.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrAuthRequired):
		return "Authentication required"
	case errors.Is(err, ErrInvalidAuth):
		return "Invalid authentication"
	case errors.Is(err, ErrStudentNotFound):
		return "Student profile not found"
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Please try again in a minute."
	}
	return err.Error()
}

// ValidateFeedbackCreate validates feedback creation data.
func ValidateFeedbackCreate(f *FeedbackCreate) error {
	if strings.TrimSpace(f.UserID) == "" {
		return fmt.Errorf("%w: user_id cannot be empty", ErrInvalidFeedback)
	}
	if strings.TrimSpace(f.AIAction) == "" {
		return fmt.Errorf("%w: ai_action cannot be empty", ErrInvalidFeedback)
	}
	if strings.TrimSpace(f.TargetID) == "" {
		return fmt.Errorf("%w: target_id cannot be empty", ErrInvalidFeedback)
	}
	if f.HelpfulScore < 1 || f.HelpfulScore > 5 {
		return fmt.Errorf("%w: helpful_score must be between 1 and 5", ErrInvalidFeedback)
	}
	return nil
}

package company

import (
	"errors"
	"fmt"
)

var (
	// ErrRequired indicates a required form field was empty.
	ErrRequired = errors.New("company: required field missing")
	// ErrInvalid indicates a malformed email, phone or tax ID.
	ErrInvalid = errors.New("company: invalid details")
	// ErrNotFound indicates the company record does not exist yet.
	ErrNotFound = errors.New("company: not found")
	// ErrNoPassword indicates a password change before any password was set.
	ErrNoPassword = errors.New("company: no password set")
	// ErrPasswordSet indicates an initial password was already configured.
	ErrPasswordSet = errors.New("company: password already set")
	// ErrPasswordMismatch indicates the current password check failed.
	ErrPasswordMismatch = errors.New("company: current password incorrect")
	// ErrWeakPassword indicates the new password fails the strength rules.
	ErrWeakPassword = errors.New("company: weak password")
	// ErrConfirmMismatch indicates the new password and its confirmation differ.
	ErrConfirmMismatch = errors.New("company: password confirmation mismatch")
	// ErrStore wraps persistence and blob store failures.
	ErrStore = errors.New("company: store failure")
)

// User-visible messages.
const (
	MsgRequired        = "All fields are required."
	MsgInvalid         = "Invalid details. Please check your input."
	MsgServerError     = "Server error. Please try again later."
	MsgProfileSaved    = "Profile updated successfully."
	MsgNotFound        = "Company not found."
	MsgSettingsSaved   = "Settings updated successfully."
	MsgNoPassword      = "No password is set."
	MsgPasswordWrong   = "Current password is incorrect."
	MsgWeakPassword    = "Password must be at least 8 characters and include 1 uppercase, 1 lowercase, 1 number, and 1 special character."
	MsgConfirmMismatch = "New passwords do not match."
	MsgPasswordChanged = "Password changed successfully."
)

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// UserMessage maps a service error to the message shown on the page.
// Anything unrecognised is reported as a server error.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrRequired):
		return MsgRequired
	case errors.Is(err, ErrInvalid):
		return MsgInvalid
	case errors.Is(err, ErrNotFound):
		return MsgNotFound
	case errors.Is(err, ErrNoPassword):
		return MsgNoPassword
	case errors.Is(err, ErrPasswordMismatch):
		return MsgPasswordWrong
	case errors.Is(err, ErrWeakPassword):
		return MsgWeakPassword
	case errors.Is(err, ErrConfirmMismatch):
		return MsgConfirmMismatch
	default:
		return MsgServerError
	}
}

package company

import (
	"io"
	"time"
)

// Company is the single company record managed by this service.
type Company struct {
	ID        string
	LegalName string
	GSTNumber string
	Address   string
	Phone     string
	Email     string
	// Password is plaintext or a bcrypt hash depending on the configured
	// PasswordHasher. Empty until a password is first set.
	Password string

	GSTCertificate string
	Signatory      string

	NotifyChanges  bool
	NotifyProducts bool
	NotifyPromos   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether a password has been set.
func (c Company) HasPassword() bool {
	return c.Password != ""
}

// ProfileForm carries the trimmed text fields of a profile submission.
type ProfileForm struct {
	LegalName string `validate:"required"`
	Email     string `validate:"required,emailshape"`
	Phone     string `validate:"required,phone10"`
	GSTNumber string `validate:"required,gstin"`
	Address   string `validate:"required"`
}

// Document is an uploaded file waiting to be written to the blob store.
type Document struct {
	Filename string
	Content  io.Reader
}

// ProfileInput is a complete profile submission.
type ProfileInput struct {
	Form           ProfileForm
	GSTCertificate *Document
	Signatory      *Document
}

// SettingsInput holds the notification toggles.
type SettingsInput struct {
	NotifyChanges  bool
	NotifyProducts bool
	NotifyPromos   bool
}

// PasswordInput is a password rotation request.
type PasswordInput struct {
	Current string `validate:"required"`
	New     string `validate:"required"`
	Confirm string `validate:"required"`
}

// ProfilePage is the view-model rendered for every profile page response.
type ProfilePage struct {
	Company Company
	Status  *Status
}

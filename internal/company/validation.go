package company

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

var (
	// Whitespace here is the browser's: ASCII space and controls, vertical
	// tab, every Unicode separator and the byte order mark.
	emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	// Indian GSTIN: state code, PAN, entity number, literal Z, checksum.
	taxIDPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[A-Z0-9]{1}Z[A-Z0-9]{1}$`)

	lowerPattern  = regexp.MustCompile(`[a-z]`)
	upperPattern  = regexp.MustCompile(`[A-Z]`)
	digitPattern  = regexp.MustCompile(`\d`)
	symbolPattern = regexp.MustCompile(`[\W_]`)
)

const minPasswordLength = 8

// IsValidEmail reports whether s looks like local@domain.tld with no whitespace.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidPhone reports whether s is exactly ten decimal digits.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsValidTaxID reports whether s is a well-formed 15 character GSTIN.
func IsValidTaxID(s string) bool {
	return taxIDPattern.MatchString(s)
}

// IsStrongPassword requires at least eight characters with a lowercase
// letter, an uppercase letter, a digit and a symbol.
func IsStrongPassword(s string) bool {
	// Length is measured in UTF-16 code units and line breaks are rejected,
	// matching the browser-side pattern the form hints at.
	if len(utf16.Encode([]rune(s))) < minPasswordLength || strings.ContainsAny(s, "\n\r\u2028\u2029") {
		return false
	}
	return lowerPattern.MatchString(s) &&
		upperPattern.MatchString(s) &&
		digitPattern.MatchString(s) &&
		symbolPattern.MatchString(s)
}

var formValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	rules := map[string]func(string) bool{
		"emailshape":     IsValidEmail,
		"phone10":        IsValidPhone,
		"gstin":          IsValidTaxID,
		"strongpassword": IsStrongPassword,
	}
	for tag, rule := range rules {
		rule := rule
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String())
		}); err != nil {
			panic("company: register validation " + tag + ": " + err.Error())
		}
	}
	return v
}

// Normalize trims surrounding whitespace from every field.
func (f ProfileForm) Normalize() ProfileForm {
	return ProfileForm{
		LegalName: trimSpace(f.LegalName),
		Email:     trimSpace(f.Email),
		Phone:     trimSpace(f.Phone),
		GSTNumber: trimSpace(f.GSTNumber),
		Address:   trimSpace(f.Address),
	}
}

// trimSpace strips the same characters the email pattern treats as space.
// Unlike strings.TrimSpace it removes U+FEFF and keeps U+0085.
func trimSpace(s string) string {
	return strings.TrimFunc(s, isFormSpace)
}

func isFormSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF':
		return true
	}
	return unicode.In(r, unicode.Z)
}

// Validate checks a normalized form. Missing fields take precedence over
// malformed ones: ErrRequired is returned whenever any field is empty.
func (f ProfileForm) Validate() error {
	return classify(formValidator.Struct(f))
}

func validatePasswordFields(in PasswordInput) error {
	return classify(formValidator.Struct(in))
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return ErrRequired
		}
	}
	return ErrInvalid
}

package company

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.com":          true,
		"A@B.com":          true,
		"info@acme.co.in":  true,
		"bad-email":        false,
		"a@b":              false,
		"a b@c.com":        false,
		"a@@b.com":         false,
		"":                 false,
		"@b.com":           false,
		"a@b.":             false,
		"first.last@x.org": true,
		"a\u00a0b@c.com":   false,
		"a\vb@c.com":       false,
		"a@c.c\u2003om":    false,
		"a@c.com\ufeff":    false,
		"a@c\u2028.com":    false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidEmail(in), "email %q", in)
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("9876543210"))
	assert.False(t, IsValidPhone("12345"))
	assert.False(t, IsValidPhone("98765432101"))
	assert.False(t, IsValidPhone("98765-43210"))
	assert.False(t, IsValidPhone("+919876543210"))
}

func TestIsValidTaxID(t *testing.T) {
	assert.True(t, IsValidTaxID("29ABCDE1234F1Z5"))
	assert.True(t, IsValidTaxID("07AAACB2230M1ZX"))
	assert.False(t, IsValidTaxID("invalid"))
	assert.False(t, IsValidTaxID("29abcde1234f1z5"), "lowercase is rejected")
	assert.False(t, IsValidTaxID("29ABCDE1234F1X5"), "fourteenth character must be Z")
	assert.False(t, IsValidTaxID("29ABCDE1234F1Z"))
}

func TestIsStrongPassword(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Str0ng!Pass", true},
		{"Aa1!aaaa", true},
		{"Aa1_aaaa", true},
		{"weakpass", false},
		{"Aa1!aaa", false},
		{"AA1!AAAA", false},
		{"aa1!aaaa", false},
		{"Aa!!aaaa", false},
		{"Aa1aaaaa", false},
		{"Aa1!aa\naa", false},
		{"Aa1!aa\u2028aa", false},
		{"Aa1!aa aa", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsStrongPassword(tc.in), "password %q", tc.in)
	}
}

func TestProfileFormNormalize(t *testing.T) {
	f := ProfileForm{
		LegalName: "  Acme  ",
		Email:     " A@B.com ",
		Phone:     "\t9876543210\n",
		GSTNumber: " 29ABCDE1234F1Z5",
		Address:   "1 Road ",
	}.Normalize()
	assert.Equal(t, ProfileForm{
		LegalName: "Acme",
		Email:     "A@B.com",
		Phone:     "9876543210",
		GSTNumber: "29ABCDE1234F1Z5",
		Address:   "1 Road",
	}, f)
}

func TestProfileFormNormalizeUnicodeSpace(t *testing.T) {
	f := ProfileForm{
		LegalName: "\ufeffAcme\u00a0",
		Email:     "\u2003a@b.com\u3000",
		Phone:     "\v9876543210",
		Address:   "\u0085Road",
	}.Normalize()
	assert.Equal(t, "Acme", f.LegalName)
	assert.Equal(t, "a@b.com", f.Email)
	assert.Equal(t, "9876543210", f.Phone)
	assert.Equal(t, "\u0085Road", f.Address, "NEL is not form whitespace")
	assert.True(t, IsValidEmail(f.Email))
}

func validForm() ProfileForm {
	return ProfileForm{
		LegalName: "Acme Pvt Ltd",
		Email:     "A@B.com",
		Phone:     "9876543210",
		GSTNumber: "29ABCDE1234F1Z5",
		Address:   "1 MG Road, Bengaluru",
	}
}

func TestProfileFormValidate(t *testing.T) {
	require.NoError(t, validForm().Validate())

	missing := validForm()
	missing.Address = ""
	require.ErrorIs(t, missing.Validate(), ErrRequired)

	bad := validForm()
	bad.Email = "bad-email"
	require.ErrorIs(t, bad.Validate(), ErrInvalid)

	bad = validForm()
	bad.Phone = "12345"
	require.ErrorIs(t, bad.Validate(), ErrInvalid)

	bad = validForm()
	bad.GSTNumber = "invalid"
	require.ErrorIs(t, bad.Validate(), ErrInvalid)
}

func TestProfileFormRequiredWinsOverInvalid(t *testing.T) {
	f := validForm()
	f.Email = "bad-email"
	f.LegalName = ""
	require.ErrorIs(t, f.Validate(), ErrRequired)

	whitespace := validForm()
	whitespace.Phone = "   "
	require.ErrorIs(t, whitespace.Normalize().Validate(), ErrRequired)
}

func TestValidatePasswordFields(t *testing.T) {
	require.NoError(t, validatePasswordFields(PasswordInput{Current: "a", New: "b", Confirm: "c"}))
	require.ErrorIs(t, validatePasswordFields(PasswordInput{Current: "a", New: "b"}), ErrRequired)
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrRequired, MsgRequired},
		{ErrInvalid, MsgInvalid},
		{ErrNotFound, MsgNotFound},
		{ErrNoPassword, MsgNoPassword},
		{ErrPasswordMismatch, MsgPasswordWrong},
		{ErrWeakPassword, MsgWeakPassword},
		{ErrConfirmMismatch, MsgConfirmMismatch},
		{storeError("save", assert.AnError), MsgServerError},
		{assert.AnError, MsgServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, UserMessage(tc.err), "error %v", tc.err)
	}
	assert.True(t, strings.HasPrefix(MsgWeakPassword, "Password must be at least 8 characters"))
}

func TestStatusAccessors(t *testing.T) {
	var none *Status
	assert.Empty(t, none.Error("profile"))
	assert.Empty(t, none.Success("profile"))

	s := errorStatus(SectionPassword, MsgPasswordWrong)
	assert.Equal(t, MsgPasswordWrong, s.Error("password"))
	assert.Empty(t, s.Success("password"))
	assert.Empty(t, s.Error("profile"))
}

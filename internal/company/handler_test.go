package company

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/companyprofile/internal/observability"
	"github.com/odyssey-erp/companyprofile/internal/shared"
	"github.com/odyssey-erp/companyprofile/internal/view"
)

type handlerFixture struct {
	*fixture
	metrics *observability.Metrics
	router  chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := newFixture(t)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	h := NewHandler(nil, f.svc, templates, shared.NewCSRFManager("csrfsecret"), HandlerConfig{Metrics: metrics})
	r := chi.NewRouter()
	h.MountRoutes(r)
	return &handlerFixture{fixture: f, metrics: metrics, router: r}
}

func (hf *handlerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	hf.router.ServeHTTP(rr, req)
	return rr
}

type upload struct {
	field, name, body string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func profileFields() map[string]string {
	return map[string]string{
		"legalName": "Acme Pvt Ltd",
		"email":     "A@B.com",
		"phone":     "9876543210",
		"gstNumber": "29ABCDE1234F1Z5",
		"address":   "1 MG Road",
	}
}

func TestRootRedirects(t *testing.T) {
	hf := newHandlerFixture(t)
	rr := hf.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/company-profile", rr.Header().Get("Location"))
}

func TestShowProfileEmpty(t *testing.T) {
	hf := newHandlerFixture(t)
	rr := hf.do(httptest.NewRequest(http.MethodGet, "/company-profile", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `action="/save-profile"`)
	assert.Contains(t, body, `action="/save-settings"`)
	assert.Contains(t, body, `action="/change-password"`)
	assert.NotContains(t, body, `class="alert`)
	assert.NotContains(t, body, "Last updated", "no timestamp before the first save")
}

func TestShowProfileRendersRecord(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.seed(Company{
		LegalName:      "Acme & Sons",
		GSTCertificate: "/uploads/1700000000000-gst.pdf",
		NotifyPromos:   true,
		UpdatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	rr := hf.do(httptest.NewRequest(http.MethodGet, "/company-profile", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Acme &amp; Sons")
	assert.Contains(t, body, `href="/uploads/1700000000000-gst.pdf"`)
	assert.Contains(t, body, ">1700000000000-gst.pdf</a>")
	assert.Contains(t, body, "Last updated 02 Jan 2026 03:04")
}

func TestShowProfileStoreFailure(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.repo.getErr = errors.New("connection refused")

	rr := hf.do(httptest.NewRequest(http.MethodGet, "/company-profile", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error loading profile.", rr.Body.String())
}

func TestSaveProfileWithDocuments(t *testing.T) {
	hf := newHandlerFixture(t)
	req := multipartRequest(t, "/save-profile", profileFields(),
		upload{field: "gstCertificate", name: "gst.pdf", body: "%PDF"},
		upload{field: "signatory", name: "sign.png", body: "png"},
	)

	rr := hf.do(req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgProfileSaved)

	stored, ok := hf.repo.stored()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", stored.Email)
	assert.Contains(t, stored.GSTCertificate, "gst.pdf")
	assert.Contains(t, stored.Signatory, "sign.png")
	assert.Equal(t, 2, hf.blobs.count())
}

func TestSaveProfileURLEncoded(t *testing.T) {
	hf := newHandlerFixture(t)
	values := url.Values{}
	for k, v := range profileFields() {
		values.Set(k, v)
	}
	rr := hf.do(formRequest("/save-profile", values))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgProfileSaved)
}

func TestSaveProfileErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
		want   string
	}{
		{"missing address", func(f map[string]string) { delete(f, "address") }, MsgRequired},
		{"blank name", func(f map[string]string) { f["legalName"] = "   " }, MsgRequired},
		{"bad email", func(f map[string]string) { f["email"] = "bad-email" }, MsgInvalid},
		{"short phone", func(f map[string]string) { f["phone"] = "12345" }, MsgInvalid},
		{"bad gst", func(f map[string]string) { f["gstNumber"] = "invalid" }, MsgInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hf := newHandlerFixture(t)
			fields := profileFields()
			tc.mutate(fields)

			rr := hf.do(multipartRequest(t, "/save-profile", fields))
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.want)
			assert.NotContains(t, rr.Body.String(), MsgProfileSaved)
			_, ok := hf.repo.stored()
			assert.False(t, ok)
		})
	}
}

func TestSaveProfileRejectsTwoFilesForOneField(t *testing.T) {
	hf := newHandlerFixture(t)
	req := multipartRequest(t, "/save-profile", profileFields(),
		upload{field: "gstCertificate", name: "a.pdf", body: "a"},
		upload{field: "gstCertificate", name: "b.pdf", body: "b"},
	)
	rr := hf.do(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	_, ok := hf.repo.stored()
	assert.False(t, ok)
}

func TestSaveProfileBlobFailureShowsServerError(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.blobs.err = errors.New("disk full")
	rr := hf.do(multipartRequest(t, "/save-profile", profileFields(), upload{field: "signatory", name: "s.png", body: "x"}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgServerError)
}

func TestSaveSettingsWithoutRecord(t *testing.T) {
	hf := newHandlerFixture(t)
	rr := hf.do(formRequest("/save-settings", url.Values{"notifyChanges": {"on"}}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgNotFound)
	_, ok := hf.repo.stored()
	assert.False(t, ok)
}

func TestSaveSettingsCoercesCheckboxes(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.seed(Company{LegalName: "Acme", NotifyPromos: true})

	rr := hf.do(formRequest("/save-settings", url.Values{
		"notifyChanges":  {"false"},
		"notifyProducts": {""},
	}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgSettingsSaved)

	stored, _ := hf.repo.stored()
	assert.True(t, stored.NotifyChanges, `any non-empty value, even "false", is on`)
	assert.False(t, stored.NotifyProducts)
	assert.False(t, stored.NotifyPromos, "an absent checkbox turns the flag off")
}

func TestSaveSettingsRepeatedCheckboxField(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.seed(Company{LegalName: "Acme"})

	rr := hf.do(formRequest("/save-settings", url.Values{
		"notifyChanges":  {"", "on"},
		"notifyProducts": {"", ""},
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	stored, _ := hf.repo.stored()
	assert.True(t, stored.NotifyChanges, "a hidden empty value before the checkbox does not hide it")
	assert.False(t, stored.NotifyProducts)
}

func TestChangePasswordMessages(t *testing.T) {
	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing", url.Values{"currentPassword": {"Old#Pass1"}}, MsgRequired},
		{"wrong current", url.Values{"currentPassword": {"nope"}, "newPassword": {"Str0ng!Pass"}, "renewPassword": {"Str0ng!Pass"}}, MsgPasswordWrong},
		{"weak", url.Values{"currentPassword": {"Old#Pass1"}, "newPassword": {"weakpass"}, "renewPassword": {"weakpass"}}, MsgWeakPassword},
		{"confirm", url.Values{"currentPassword": {"Old#Pass1"}, "newPassword": {"Str0ng!Pass"}, "renewPassword": {"Str0ng!Pass9"}}, MsgConfirmMismatch},
		{"success", url.Values{"currentPassword": {"Old#Pass1"}, "newPassword": {"Str0ng!Pass"}, "renewPassword": {"Str0ng!Pass"}}, MsgPasswordChanged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hf := newHandlerFixture(t)
			hf.seed(Company{Password: "Old#Pass1"})
			rr := hf.do(formRequest("/change-password", tc.form))
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.want)
		})
	}
}

func TestChangePasswordWithoutPassword(t *testing.T) {
	hf := newHandlerFixture(t)
	rr := hf.do(formRequest("/change-password", url.Values{"currentPassword": {"x"}, "newPassword": {"Str0ng!Pass"}, "renewPassword": {"Str0ng!Pass"}}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgNoPassword)
}

func TestChangePasswordStoreFailure(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.seed(Company{LegalName: "Acme Pvt Ltd", Password: "Old#Pass1"})
	hf.repo.saveErr = errors.New("write failed")

	rr := hf.do(formRequest("/change-password", url.Values{"currentPassword": {"Old#Pass1"}, "newPassword": {"Str0ng!Pass"}, "renewPassword": {"Str0ng!Pass"}}))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, MsgServerError)
	assert.NotContains(t, body, "Acme Pvt Ltd", "the generic failure path renders an empty record")
}

func TestFormSubmissionsAreCounted(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.do(multipartRequest(t, "/save-profile", profileFields()))
	hf.do(formRequest("/save-settings", url.Values{}))

	rr := httptest.NewRecorder()
	hf.metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	assert.Contains(t, body, `companyprofile_form_submissions_total{outcome="success",section="profile"} 1`)
	assert.Contains(t, body, `companyprofile_form_submissions_total{outcome="success",section="settings"} 1`)
}

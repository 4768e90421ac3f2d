package company

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/companyprofile/internal/observability"
	"github.com/odyssey-erp/companyprofile/internal/platform/httpx"
	"github.com/odyssey-erp/companyprofile/internal/shared"
	"github.com/odyssey-erp/companyprofile/internal/view"
)

const (
	profileTemplate  = "pages/company_profile.html"
	defaultMaxMemory = 32 << 20

	fieldGSTCertificate = "gstCertificate"
	fieldSignatory      = "signatory"
)

var errTooManyFiles = errors.New("company: more than one file per field")

// Handler serves the company profile page and its three forms.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	metrics   *observability.Metrics
	maxMemory int64
}

// HandlerConfig carries the optional Handler settings.
type HandlerConfig struct {
	Metrics *observability.Metrics
	// MaxMemory bounds in-memory multipart parsing; larger uploads spool to disk.
	MaxMemory int64
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory <= 0 {
		maxMemory = defaultMaxMemory
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		metrics:   cfg.Metrics,
		maxMemory: maxMemory,
	}
}

// MountRoutes registers the profile routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/company-profile", http.StatusFound)
	})
	r.Get("/company-profile", h.showProfile)
	r.Post("/save-profile", h.saveProfile)
	r.Post("/save-settings", h.saveSettings)
	r.Post("/change-password", h.changePassword)
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.Error("load company", slog.Any("error", err))
		httpx.Text(w, http.StatusInternalServerError, "Error loading profile.")
		return
	}
	h.render(w, r, http.StatusOK, c, nil)
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(r); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	in := ProfileInput{
		Form: ProfileForm{
			LegalName: r.PostFormValue("legalName"),
			Email:     r.PostFormValue("email"),
			Phone:     r.PostFormValue("phone"),
			GSTNumber: r.PostFormValue("gstNumber"),
			Address:   r.PostFormValue("address"),
		},
	}

	var closers []multipart.File
	defer func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}()
	for field, target := range map[string]**Document{
		fieldGSTCertificate: &in.GSTCertificate,
		fieldSignatory:      &in.Signatory,
	} {
		doc, file, err := formDocument(r, field)
		if err != nil {
			if errors.Is(err, errTooManyFiles) {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			h.logger.Error("open upload", slog.String("field", field), slog.Any("error", err))
			h.respond(w, r, http.StatusOK, h.service.current(r.Context()), errorStatus(SectionProfile, MsgServerError))
			return
		}
		if file != nil {
			closers = append(closers, file)
		}
		*target = doc
	}

	c, err := h.service.SaveProfile(r.Context(), in)
	if err != nil {
		h.logFailure("save profile", err)
		h.respond(w, r, http.StatusOK, c, errorStatus(SectionProfile, UserMessage(err)))
		return
	}
	h.respond(w, r, http.StatusOK, c, successStatus(SectionProfile, MsgProfileSaved))
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := SettingsInput{
		NotifyChanges:  formFlag(r, "notifyChanges"),
		NotifyProducts: formFlag(r, "notifyProducts"),
		NotifyPromos:   formFlag(r, "notifyPromos"),
	}
	c, err := h.service.SaveSettings(r.Context(), in)
	if err != nil {
		h.logFailure("save settings", err)
		h.respond(w, r, http.StatusOK, c, errorStatus(SectionSettings, UserMessage(err)))
		return
	}
	h.respond(w, r, http.StatusOK, c, successStatus(SectionSettings, MsgSettingsSaved))
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := PasswordInput{
		Current: r.PostFormValue("currentPassword"),
		New:     r.PostFormValue("newPassword"),
		Confirm: r.PostFormValue("renewPassword"),
	}
	c, err := h.service.ChangePassword(r.Context(), in)
	if err != nil {
		status := http.StatusOK
		if errors.Is(err, ErrStore) {
			status = http.StatusInternalServerError
		}
		h.logFailure("change password", err)
		h.respond(w, r, status, c, errorStatus(SectionPassword, UserMessage(err)))
		return
	}
	h.respond(w, r, http.StatusOK, c, successStatus(SectionPassword, MsgPasswordChanged))
}

// formFlag coerces a checkbox: any non-empty submitted value, including the
// literal "false", is true. A missing or empty field is false. A repeated
// field, such as a hidden "" input paired with the checkbox, is true when any
// of its values is non-empty.
func formFlag(r *http.Request, name string) bool {
	for _, v := range r.PostForm[name] {
		if v != "" {
			return true
		}
	}
	return false
}

// parseMultipart parses the body once. Plain url-encoded submissions are
// accepted too; they simply carry no documents.
func (h *Handler) parseMultipart(r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	err := r.ParseMultipartForm(h.maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func formDocument(r *http.Request, field string) (*Document, multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}
	headers := r.MultipartForm.File[field]
	switch len(headers) {
	case 0:
		return nil, nil, nil
	case 1:
	default:
		return nil, nil, errTooManyFiles
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, nil, err
	}
	return &Document{Filename: headers[0].Filename, Content: file}, file, nil
}

func (h *Handler) logFailure(op string, err error) {
	if errors.Is(err, ErrStore) {
		h.logger.Error(op, slog.Any("error", err))
		return
	}
	h.logger.Debug(op+" rejected", slog.String("reason", err.Error()))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, code int, c Company, status *Status) {
	h.metrics.RecordForm(string(status.Section), string(status.Outcome))
	h.render(w, r, code, c, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, code int, c Company, status *Status) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("csrf token unavailable", slog.Any("error", err))
	}
	data := view.TemplateData{
		Title:       "Company Profile",
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Data:        ProfilePage{Company: c, Status: status},
	}
	if err := h.templates.RenderStatus(w, code, profileTemplate, data); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", profileTemplate))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

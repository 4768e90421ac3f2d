package company

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// BlobStore persists uploaded documents and returns their public reference.
type BlobStore interface {
	Put(ctx context.Context, filename string, content io.Reader) (string, error)
}

// ChangeKind describes what changed in a ChangeNotice.
type ChangeKind string

const (
	ChangeProfile  ChangeKind = "profile"
	ChangePassword ChangeKind = "password"
)

// ChangeNotice is sent to the Notifier after a change the company asked to
// be told about.
type ChangeNotice struct {
	CompanyID string
	LegalName string
	Email     string
	Kind      ChangeKind
	At        time.Time
}

// Notifier delivers change notices, typically by queueing an email.
type Notifier interface {
	CompanyChanged(ctx context.Context, notice ChangeNotice) error
}

const defaultReadTimeout = 10 * time.Second

// Service implements the profile, settings and password flows.
//
// Every flow is load, mutate, save with no lock in between: two overlapping
// submissions race and the later save wins.
type Service struct {
	repo     Repository
	blobs    BlobStore
	hasher   PasswordHasher
	notifier Notifier
	logger   *slog.Logger
	reads    singleflight.Group
	// readTimeout bounds a shared read once it is detached from its caller.
	readTimeout time.Duration
	now         func() time.Time
}

// ServiceConfig wires optional collaborators.
type ServiceConfig struct {
	Hasher   PasswordHasher
	Notifier Notifier
	Logger   *slog.Logger
}

// NewService constructs a Service. A nil hasher defaults to bcrypt.
func NewService(repo Repository, blobs BlobStore, cfg ServiceConfig) *Service {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		blobs:    blobs,
		hasher:   hasher,
		notifier: cfg.Notifier,
		logger:   logger,

		readTimeout: defaultReadTimeout,
		now:         time.Now,
	}
}

// Load returns the company record. found is false, with a zero Company,
// when nothing has been saved yet.
func (s *Service) Load(ctx context.Context) (c Company, found bool, err error) {
	v, err, _ := s.reads.Do("company", func() (any, error) {
		// Shared by every caller joined on the key; detached from the
		// first caller's cancellation.
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.readTimeout)
		defer cancel()
		return s.repo.Get(readCtx)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Company{}, false, nil
		}
		return Company{}, false, storeError("load company", err)
	}
	return v.(Company), true, nil
}

// current returns the stored record or a zero Company, swallowing errors.
// Used to decorate error responses.
func (s *Service) current(ctx context.Context) Company {
	c, _, err := s.Load(ctx)
	if err != nil {
		s.logger.Warn("reload company for error page", slog.Any("error", err))
		return Company{}
	}
	return c
}

// SaveProfile stores any uploaded documents, validates the text fields and
// persists them. Documents are written before validation, so a rejected
// submission still leaves its files in the blob store; they are only
// referenced by the record once a save succeeds.
//
// The returned Company is what the page should show, on success or failure.
func (s *Service) SaveProfile(ctx context.Context, in ProfileInput) (Company, error) {
	gstRef, err := s.storeDocument(ctx, in.GSTCertificate)
	if err != nil {
		return s.current(ctx), err
	}
	signatoryRef, err := s.storeDocument(ctx, in.Signatory)
	if err != nil {
		return s.current(ctx), err
	}

	form := in.Form.Normalize()
	if err := form.Validate(); err != nil {
		return s.current(ctx), err
	}

	c, found, err := s.Load(ctx)
	if err != nil {
		return Company{}, err
	}
	if !found {
		c = s.repo.New()
	}

	c.LegalName = form.LegalName
	c.Email = strings.ToLower(form.Email)
	c.Phone = form.Phone
	c.GSTNumber = form.GSTNumber
	c.Address = form.Address
	if gstRef != "" {
		c.GSTCertificate = gstRef
	}
	if signatoryRef != "" {
		c.Signatory = signatoryRef
	}

	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return s.current(ctx), storeError("save profile", err)
	}
	s.notify(ctx, saved, ChangeProfile)
	return saved, nil
}

func (s *Service) storeDocument(ctx context.Context, doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	ref, err := s.blobs.Put(ctx, doc.Filename, doc.Content)
	if err != nil {
		return "", storeError("store document", err)
	}
	return ref, nil
}

// SaveSettings updates the notification toggles of an existing record.
func (s *Service) SaveSettings(ctx context.Context, in SettingsInput) (Company, error) {
	c, found, err := s.Load(ctx)
	if err != nil {
		return Company{}, err
	}
	if !found {
		return Company{}, ErrNotFound
	}

	c.NotifyChanges = in.NotifyChanges
	c.NotifyProducts = in.NotifyProducts
	c.NotifyPromos = in.NotifyPromos

	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return s.current(ctx), storeError("save settings", err)
	}
	return saved, nil
}

// ChangePassword rotates the password. Checks run in a fixed order and the
// first failure is returned. Store failures return a zero Company.
func (s *Service) ChangePassword(ctx context.Context, in PasswordInput) (Company, error) {
	c, found, err := s.Load(ctx)
	if err != nil {
		return Company{}, err
	}
	if !found || !c.HasPassword() {
		return c, ErrNoPassword
	}
	if err := validatePasswordFields(in); err != nil {
		return c, err
	}
	if !s.hasher.Matches(c.Password, in.Current) {
		return c, ErrPasswordMismatch
	}
	if err := formValidator.Var(in.New, "strongpassword"); err != nil {
		return c, ErrWeakPassword
	}
	if in.New != in.Confirm {
		return c, ErrConfirmMismatch
	}

	hashed, err := s.hasher.Hash(in.New)
	if err != nil {
		return Company{}, storeError("hash password", err)
	}
	c.Password = hashed
	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return Company{}, storeError("save password", err)
	}
	s.notify(ctx, saved, ChangePassword)
	return saved, nil
}

// SetInitialPassword sets the first password of an existing record. It
// refuses to overwrite a password; rotation goes through ChangePassword.
func (s *Service) SetInitialPassword(ctx context.Context, password string) error {
	if !IsStrongPassword(password) {
		return ErrWeakPassword
	}
	c, found, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if c.HasPassword() {
		return ErrPasswordSet
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return storeError("hash password", err)
	}
	c.Password = hashed
	if _, err := s.repo.Save(ctx, c); err != nil {
		return storeError("save password", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, c Company, kind ChangeKind) {
	if s.notifier == nil || !c.NotifyChanges {
		return
	}
	notice := ChangeNotice{
		CompanyID: c.ID,
		LegalName: c.LegalName,
		Email:     c.Email,
		Kind:      kind,
		At:        s.now(),
	}
	if err := s.notifier.CompanyChanged(ctx, notice); err != nil {
		s.logger.Warn("queue change notice", slog.String("kind", string(kind)), slog.Any("error", err))
	}
}

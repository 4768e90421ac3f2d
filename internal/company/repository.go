package company

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists the single company record.
type Repository interface {
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context) (Company, error)
	// New returns an unsaved record keyed for this store.
	New() Company
	// Save inserts or replaces the record and returns the stored copy.
	Save(ctx context.Context, c Company) (Company, error)
}

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the company under one configured primary key,
// so there can never be a second row for the application to pick up.
type PostgresRepository struct {
	db  DBTX
	id  string
	now func() time.Time
}

// NewRepository constructs a PostgresRepository for the record keyed by id.
func NewRepository(db DBTX, id string) *PostgresRepository {
	return &PostgresRepository{db: db, id: id, now: time.Now}
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS company_profiles (
	id              TEXT PRIMARY KEY,
	legal_name      TEXT NOT NULL DEFAULT '',
	gst_number      TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	password        TEXT NOT NULL DEFAULT '',
	gst_certificate TEXT NOT NULL DEFAULT '',
	signatory       TEXT NOT NULL DEFAULT '',
	notify_changes  BOOLEAN NOT NULL DEFAULT FALSE,
	notify_products BOOLEAN NOT NULL DEFAULT FALSE,
	notify_promos   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the company_profiles table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("company: ensure schema: %w", err)
	}
	return nil
}

const getSQL = `SELECT id, legal_name, gst_number, address, phone, email, password,
	gst_certificate, signatory, notify_changes, notify_products, notify_promos,
	created_at, updated_at
FROM company_profiles WHERE id = $1`

func (r *PostgresRepository) Get(ctx context.Context) (Company, error) {
	var c Company
	err := r.db.QueryRow(ctx, getSQL, r.id).Scan(
		&c.ID, &c.LegalName, &c.GSTNumber, &c.Address, &c.Phone, &c.Email, &c.Password,
		&c.GSTCertificate, &c.Signatory, &c.NotifyChanges, &c.NotifyProducts, &c.NotifyPromos,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}

func (r *PostgresRepository) New() Company {
	return Company{ID: r.id}
}

const saveSQL = `INSERT INTO company_profiles (
	id, legal_name, gst_number, address, phone, email, password,
	gst_certificate, signatory, notify_changes, notify_products, notify_promos,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
ON CONFLICT (id) DO UPDATE SET
	legal_name = EXCLUDED.legal_name,
	gst_number = EXCLUDED.gst_number,
	address = EXCLUDED.address,
	phone = EXCLUDED.phone,
	email = EXCLUDED.email,
	password = EXCLUDED.password,
	gst_certificate = EXCLUDED.gst_certificate,
	signatory = EXCLUDED.signatory,
	notify_changes = EXCLUDED.notify_changes,
	notify_products = EXCLUDED.notify_products,
	notify_promos = EXCLUDED.notify_promos,
	updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at`

func (r *PostgresRepository) Save(ctx context.Context, c Company) (Company, error) {
	c.ID = r.id
	now := r.now().UTC()
	err := r.db.QueryRow(ctx, saveSQL,
		c.ID, c.LegalName, c.GSTNumber, c.Address, c.Phone, c.Email, c.Password,
		c.GSTCertificate, c.Signatory, c.NotifyChanges, c.NotifyProducts, c.NotifyPromos,
		now,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Company{}, err
	}
	return c, nil
}

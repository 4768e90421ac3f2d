package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/odyssey-erp/companyprofile/internal/app"
	"github.com/odyssey-erp/companyprofile/internal/company"
	"github.com/odyssey-erp/companyprofile/internal/platform/db"
)

// seed creates the company record when it is missing and sets its first
// password. The password change form can only rotate an existing password.
func main() {
	password := flag.String("password", os.Getenv("COMPANY_PASSWORD"), "initial company password")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	repo := company.NewRepository(pool, cfg.CompanyID)
	fmt.Println("→ Ensuring schema...")
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	fmt.Println("→ Seeding company record...")
	if _, err := repo.Get(ctx); errors.Is(err, company.ErrNotFound) {
		if _, err := repo.Save(ctx, repo.New()); err != nil {
			log.Fatalf("create company: %v", err)
		}
	} else if err != nil {
		log.Fatalf("load company: %v", err)
	}

	if *password == "" {
		fmt.Println("✓ Seed complete (no password given) at", time.Now().Format(time.RFC3339))
		return
	}

	hasher, err := company.NewPasswordHasher(cfg.PasswordMode)
	if err != nil {
		log.Fatalf("password mode: %v", err)
	}
	svc := company.NewService(repo, nil, company.ServiceConfig{Hasher: hasher})

	fmt.Println("→ Setting initial password...")
	switch err := svc.SetInitialPassword(ctx, *password); {
	case errors.Is(err, company.ErrPasswordSet):
		fmt.Println("  password already set, leaving it unchanged")
	case errors.Is(err, company.ErrWeakPassword):
		log.Fatalf("set password: %s", company.MsgWeakPassword)
	case err != nil:
		log.Fatalf("set password: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

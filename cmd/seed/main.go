package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/clinical-monitor/config"
	"github.com/oksasatya/clinical-monitor/internal/application"
	"github.com/oksasatya/clinical-monitor/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/clinical-monitor/internal/infrastructure/postgres"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
)

type seedAccount struct {
	email, password, accountType string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Seeds one account per category through the regular sign-up path, so the
// derived usernames and names match what the web flow produces.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Seeding never signs in, so sessions stay in memory.
	sessions := application.NewSessionService(
		memory.NewSessionStore(),
		helpers.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL),
		helpers.NewCookie(cfg.SessionCookieName, cfg.CookieDomain, cfg.CookieSecure),
		logger,
	)
	svc := application.NewService(
		pginfra.NewAccountRepository(pool),
		pginfra.NewAuthEventRepository(pool),
		sessions,
		logger,
		cfg,
	)

	password := getenv("SEED_PASSWORD", "password123")
	accounts := []seedAccount{
		{getenv("SEED_ADMIN_EMAIL", "admin@clinic.local"), password, "administrator"},
		{getenv("SEED_CLINICIAN_EMAIL", "clinician@clinic.local"), password, "clinician"},
		{getenv("SEED_PATIENT_EMAIL", "patient@clinic.local"), password, "patient"},
	}
	meta := application.RequestMeta{IP: "127.0.0.1", UserAgent: "seed"}

	for _, s := range accounts {
		a, err := svc.SignUp(ctx, application.Credentials{Email: s.email, Password: s.password, AccountType: s.accountType}, meta)
		switch application.KindOf(err) {
		case 0:
			fmt.Printf("seeded %s: id=%s username=%s email=%s password=%s\n", a.AccountType, a.ID, a.Username, a.Email, s.password)
		case application.KindConflict:
			fmt.Printf("%s already exists, skipped\n", s.email)
		default:
			log.Fatalf("failed to seed %s: %v", s.email, err)
		}
	}
}

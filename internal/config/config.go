package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/sync/api/internal/core/domain"
)

type Config struct {
	ListenAddr string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	// CronSecret gates the daily dispatch endpoint. Empty disables the gate.
	CronSecret string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	// SiteURL is the base URL embedded in notification deep links.
	SiteURL string

	// Display names and userId aliases for the two fixed participants.
	// Aliases let clients keep submitting friendly ids that map to p1/p2.
	P1Name  string
	P2Name  string
	P1Alias string
	P2Alias string
}

func Default() Config {
	return Config{
		ListenAddr:      "0.0.0.0:8080",
		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		VAPIDSubscriber: "mailto:support@sync-app.com",
		SiteURL:         "http://localhost:8080",
		P1Name:          "Partner One",
		P2Name:          "Partner Two",
	}
}

// Load reads configuration from the environment, with .env support. Existing
// environment variables are not overwritten by the file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()
	setIfPresent(&cfg.ListenAddr, "LISTEN_ADDR")
	setIfPresent(&cfg.PostgresHost, "POSTGRES_HOST")
	setIfPresent(&cfg.PostgresPort, "POSTGRES_PORT")
	setIfPresent(&cfg.PostgresUser, "POSTGRES_USER")
	setIfPresent(&cfg.PostgresPassword, "POSTGRES_PASSWORD")
	setIfPresent(&cfg.PostgresDB, "POSTGRES_DB")
	setIfPresent(&cfg.CronSecret, "CRON_SECRET")
	setIfPresent(&cfg.VAPIDPublicKey, "VAPID_PUBLIC_KEY")
	setIfPresent(&cfg.VAPIDPrivateKey, "VAPID_PRIVATE_KEY")
	setIfPresent(&cfg.VAPIDSubscriber, "VAPID_SUBSCRIBER")
	setIfPresent(&cfg.SiteURL, "SITE_URL")
	setIfPresent(&cfg.P1Name, "P1_NAME")
	setIfPresent(&cfg.P2Name, "P2_NAME")
	setIfPresent(&cfg.P1Alias, "P1_ALIAS")
	setIfPresent(&cfg.P2Alias, "P2_ALIAS")
	return cfg
}

func setIfPresent(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// ParticipantName returns the configured display name for a role.
func (c Config) ParticipantName(p domain.Participant) string {
	if p == domain.ParticipantOne {
		return c.P1Name
	}
	return c.P2Name
}

// ResolveParticipant maps a request userId, or a configured alias, onto one
// of the two fixed roles.
func (c Config) ResolveParticipant(userID string) (domain.Participant, bool) {
	switch userID {
	case string(domain.ParticipantOne):
		return domain.ParticipantOne, true
	case string(domain.ParticipantTwo):
		return domain.ParticipantTwo, true
	}
	if c.P1Alias != "" && userID == c.P1Alias {
		return domain.ParticipantOne, true
	}
	if c.P2Alias != "" && userID == c.P2Alias {
		return domain.ParticipantTwo, true
	}
	return "", false
}

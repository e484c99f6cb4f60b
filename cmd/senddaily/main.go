// Command senddaily runs one daily notification dispatch. Host cron invokes
// it as an alternative to the authenticated HTTP endpoint.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sync/api/internal/adapters/push"
	"github.com/sync/api/internal/adapters/repository/postgres"
	"github.com/sync/api/internal/config"
	"github.com/sync/api/internal/core/questions"
	"github.com/sync/api/internal/core/services"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("failed to reach database")
	}

	subscriberRepo := postgres.NewSubscriberRepository(db)
	pushClient := push.NewClient(cfg.VAPIDSubscriber, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)

	names := map[string]string{"p1": cfg.P1Name, "p2": cfg.P2Name}
	if cfg.P1Alias != "" {
		names[cfg.P1Alias] = cfg.P1Name
	}
	if cfg.P2Alias != "" {
		names[cfg.P2Alias] = cfg.P2Name
	}
	notifier := services.NewNotificationService(
		subscriberRepo, pushClient, questions.Default(), clockwork.NewRealClock(),
		services.NotificationOptions{SiteURL: cfg.SiteURL, DisplayNames: names},
		logger,
	)

	// Bound the job so a hung push service cannot wedge cron.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := notifier.SendDaily(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("daily dispatch failed")
	}

	logger.Info().
		Str("date", report.Date).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Strs("users", report.Users).
		Msg("daily dispatch completed")
}

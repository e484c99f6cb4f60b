package main

import (
	"context"
	"database/sql"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sync/api/internal/adapters/handler/http"
	"github.com/sync/api/internal/adapters/push"
	"github.com/sync/api/internal/adapters/repository/postgres"
	"github.com/sync/api/internal/config"
	"github.com/sync/api/internal/core/domain"
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

	clock := clockwork.NewRealClock()
	catalog := questions.Default()

	roundRepo := postgres.NewRoundRepository(db)
	subscriberRepo := postgres.NewSubscriberRepository(db)

	pushClient := push.NewClient(cfg.VAPIDSubscriber, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	notifier := services.NewNotificationService(subscriberRepo, pushClient, catalog, clock, notificationOptions(cfg), logger)
	roundService := services.NewRoundService(roundRepo, catalog, clock, notifier, logger)
	subscriptionService := services.NewSubscriptionService(subscriberRepo, clock, logger)

	roundHandler := http.NewRoundHandler(roundService, cfg)
	notificationHandler := http.NewNotificationHandler(subscriptionService, notifier, cfg.CronSecret)
	handler := http.NewHandler(roundHandler, notificationHandler)

	server := &stdhttp.Server{Addr: cfg.ListenAddr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("shutdown failed")
	}
}

func notificationOptions(cfg config.Config) services.NotificationOptions {
	names := map[string]string{
		"p1": cfg.P1Name,
		"p2": cfg.P2Name,
	}
	aliases := map[domain.Participant]string{}
	if cfg.P1Alias != "" {
		names[cfg.P1Alias] = cfg.P1Name
		aliases[domain.ParticipantOne] = cfg.P1Alias
	}
	if cfg.P2Alias != "" {
		names[cfg.P2Alias] = cfg.P2Name
		aliases[domain.ParticipantTwo] = cfg.P2Alias
	}
	return services.NotificationOptions{
		SiteURL:      cfg.SiteURL,
		DisplayNames: names,
		Aliases:      aliases,
	}
}

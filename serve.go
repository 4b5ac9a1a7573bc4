package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/yelinaung/caja-gym/internal/api"
	"gitlab.com/yelinaung/caja-gym/internal/auth"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/notify"
	"gitlab.com/yelinaung/caja-gym/internal/report"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
	"gitlab.com/yelinaung/caja-gym/internal/service"
	"gitlab.com/yelinaung/caja-gym/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "listen address (env HTTP_ADDR)")
	_ = viper.BindPFlag("http_addr", cmd.Flags().Lookup("addr"))

	return cmd
}

// openDatabase connects and brings the schema up to date.
func openDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.SeedPaymentMethods(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to seed payment methods: %w", err)
	}

	logger.Log.Info().Msg("Database initialized successfully")
	return pool, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.ServiceName,
		Exporter:    cfg.OTelExporter,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	pool, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.DevBypassActive() {
		logger.Log.Warn().Int("dev_user_id", cfg.DevUserID).Msg("Auth dev bypass is enabled")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	services := api.NewServices(pool, tokens, service.WindowPolicy{Window: cfg.EditWindow})
	gate := auth.NewGate(tokens, repository.NewUserRepository(pool), auth.DevBypass{
		Enabled: cfg.DevBypassActive(),
		UserID:  cfg.DevUserID,
	})

	router := api.NewRouter(api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Health:      pool.Ping,
	}, services, gate)
	server := api.NewHTTPServer(cfg.HTTPAddr, cfg.ServiceName, router)

	if cfg.DailyCloseEnabled {
		if err := startDailyClose(ctx, services.Reports); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.Env).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

func startDailyClose(ctx context.Context, reports *report.Service) error {
	client, err := notify.NewTelegramClient(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	closer := notify.NewDailyClose(client, reports, cfg.TelegramChatID, cfg.DailyCloseHour, loc)
	go closer.Run(ctx)

	logger.Log.Info().
		Int("hour", cfg.DailyCloseHour).
		Str("timezone", cfg.Timezone).
		Msg("Daily close scheduled")
	return nil
}

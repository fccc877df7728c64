package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"account_service/internal/api"
	"account_service/internal/app/service"
	"account_service/internal/app/worker"
	"account_service/internal/common/security"
	"account_service/internal/domain/repository"
	"account_service/internal/platform/config"
	"account_service/internal/platform/database"
	"account_service/internal/platform/logging"
	"account_service/internal/platform/metrics"
	"account_service/internal/platform/queue"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the mail worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, migrateFirst bool) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.Setup("account_service", cfg.LogFormat, cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	if migrateFirst {
		m, err := database.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		err = m.Up()
		_ = m.Close()
		if err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := queue.ConnectRedis(ctx, queue.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.New()
	accounts := service.NewAccountService(
		repository.NewPgAccountRepository(pool),
		security.NewHasher(cfg.BcryptCost),
		security.NewSessionCodec(cfg.JWTSecret, cfg.JWTMaxAge),
		service.NewRedisNotifier(rdb, cfg.MailQueueName),
		service.Policy{
			RequireVerifiedLogin: cfg.RequireVerifiedLogin,
			VerificationTokenTTL: cfg.VerificationTokenTTL,
			ResetTokenTTL:        cfg.ResetTokenTTL,
			BaseURL:              cfg.AppBaseURL,
		},
		logger,
		m,
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	mailWorker := worker.NewMailWorker(rdb, cfg.MailQueueName, worker.NewLogSender(logger), logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		mailWorker.Start(workerCtx)
	}()

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(accounts, api.RouterOptions{
			Logger:        logger,
			Metrics:       m,
			SecureCookies: strings.HasPrefix(cfg.AppBaseURL, "https://"),
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			workerCancel()
			wg.Wait()
			return oops.Code("SERVER_LISTEN_FAILED").With("port", cfg.Port).Wrap(err)
		}
	}

	logger.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
	}
	wg.Wait()

	logger.Info("server and worker stopped gracefully")
	return nil
}

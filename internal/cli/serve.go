package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danhajduk/synthia/internal/classify"
	"github.com/danhajduk/synthia/internal/ingest"
	"github.com/danhajduk/synthia/internal/provider/gmail"
	"github.com/danhajduk/synthia/internal/rate"
	"github.com/danhajduk/synthia/internal/store"
	"github.com/danhajduk/synthia/internal/update"
	"github.com/danhajduk/synthia/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic fetcher and dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := resolveGmailCredentials(cfg); err != nil {
				return err
			}
			interval, err := time.ParseDuration(cfg.Fetch.Interval)
			if err != nil {
				return fmt.Errorf("failed to parse fetch interval: %w", err)
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			limiter := rate.NewTokenBucket(cfg.Fetch.RateLimitRPS)
			defer limiter.Stop()

			provider := gmail.New(store.NewKeyringTokenStore(), limiter)
			engine := ingest.New(db, provider, cfg.Fetch.WindowDays, logger)
			scheduler := ingest.NewScheduler(engine, interval, logger)
			classifier := classify.New(cfg.OpenAI.APIKey, db, cfg.OpenAI.Model, logger)
			checker := update.NewChecker(version)
			handler := web.NewServer(db, scheduler, classifier, checker, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go scheduler.Run(ctx)

			httpSrv := &http.Server{Addr: cfg.Web.Addr, Handler: handler}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("dashboard listening", zap.String("addr", cfg.Web.Addr))
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("failed to shut down server: %w", err)
				}
				return nil
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			}
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danhajduk/synthia/internal/ingest"
	"github.com/danhajduk/synthia/internal/provider/gmail"
	"github.com/danhajduk/synthia/internal/rate"
	"github.com/danhajduk/synthia/internal/store"
)

func newFetchCmd() *cobra.Command {
	var clearFlag bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run a single fetch cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := resolveGmailCredentials(cfg); err != nil {
				return err
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

			run := engine.RunCycle
			if clearFlag {
				run = engine.ClearAndRefetch
			}
			result, err := run(cmd.Context())
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(result)
			}
			fmt.Printf("Observed %d unread messages (%d new, %d pruned) since %s.\n",
				result.Observed, result.Inserted, result.Pruned, result.Cutoff.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearFlag, "clear", false, "clear stored messages and tallies before fetching")
	return cmd
}

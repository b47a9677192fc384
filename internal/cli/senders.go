package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newSendersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "senders",
		Short: "Show per-sender unread tallies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			summary, err := db.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(summary)
			}
			return fprintSummary(os.Stdout, summary)
		},
	}
}

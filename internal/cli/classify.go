package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danhajduk/synthia/internal/classify"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Identify important senders among stored tallies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
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

			classifier := classify.New(cfg.OpenAI.APIKey, db, cfg.OpenAI.Model, logger)
			identified, err := classifier.ClassifyNew(cmd.Context())
			if err != nil {
				return err
			}

			if jsonFlag {
				if identified == nil {
					identified = []string{}
				}
				return printJSON(map[string][]string{"important_senders": identified})
			}
			if len(identified) == 0 {
				fmt.Println("No new important senders.")
				return nil
			}
			for _, sender := range identified {
				fmt.Println(sender)
			}
			return nil
		},
	}
}

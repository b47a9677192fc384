package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var keepImportantFlag bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe stored messages and sender tallies",
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

			if keepImportantFlag {
				if err := db.ClearMessages(cmd.Context()); err != nil {
					return fmt.Errorf("failed to clear messages: %w", err)
				}
				fmt.Println("Messages and tallies cleared; important senders kept.")
				return nil
			}

			if err := db.RecreateSchema(cmd.Context()); err != nil {
				return fmt.Errorf("failed to recreate schema: %w", err)
			}
			fmt.Println("Database schema recreated.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepImportantFlag, "keep-important", false, "keep the important senders table")
	return cmd
}

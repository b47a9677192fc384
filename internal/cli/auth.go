package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danhajduk/synthia/internal/provider/gmail"
	"github.com/danhajduk/synthia/internal/rate"
	"github.com/danhajduk/synthia/internal/store"
)

func newAuthCmd() *cobra.Command {
	var logoutFlag bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access via OAuth",
		Long:  "Opens a browser window to authorize read-only Gmail access and stores the token in the system keyring.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenStore := store.NewKeyringTokenStore()

			if logoutFlag {
				if err := tokenStore.DeleteToken(); err != nil {
					return fmt.Errorf("failed to remove stored token: %w", err)
				}
				fmt.Println("Stored Gmail token removed.")
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := resolveGmailCredentials(cfg); err != nil {
				return err
			}

			provider := gmail.New(tokenStore, rate.Unlimited{})
			if err := provider.Authenticate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to authenticate: %w", err)
			}
			fmt.Println("Gmail authorization complete.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&logoutFlag, "logout", false, "remove the stored Gmail token")
	return cmd
}

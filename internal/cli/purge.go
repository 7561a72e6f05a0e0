package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/repository"
)

func newPurgeCmd(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired reset requests and finished mail older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}

			pool, err := a.openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			cutoff := time.Now().UTC().Add(-olderThan)
			count, err := repository.NewPasswordResetRepository(pool).DeleteExpiredBefore(cmd.Context(), cutoff)
			if err != nil {
				return fmt.Errorf("failed to purge reset requests: %w", err)
			}

			mails, err := repository.NewMailQueueRepository(pool).DeleteFinishedBefore(cmd.Context(), cutoff)
			if err != nil {
				return fmt.Errorf("failed to purge mail queue: %w", err)
			}

			fmt.Fprintf(a.stdout, "Purged %d reset requests and %d mails\n", count, mails)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", constants.ResetRequestRetention, "Keep requests and mail finished more recently than this")
	return cmd
}

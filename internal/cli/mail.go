package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/mailer"
	"github.com/stockmaster/stockmaster-backend/internal/repository"
)

func newMailCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Deliver and inspect queued mail",
		Long: `Deliver and inspect the outbound mail queue.

Reset codes are queued by the API and delivered by a worker. Run the worker
here when the API is deployed without MAIL_EMBEDDED_WORKER.

Examples:
  stockmasterctl mail run
  stockmasterctl mail drain
  stockmasterctl mail status`,
	}
	cmd.AddCommand(newMailRunCmd(a), newMailDrainCmd(a), newMailStatusCmd(a))
	return cmd
}

// newDispatcher builds a dispatcher on the configured transport
func (a *app) newDispatcher(cmd *cobra.Command, queue repository.MailQueueRepository) (*mailer.Dispatcher, error) {
	transport, err := mailer.NewTransport(cmd.Context(), &a.cfg.Mail)
	if err != nil {
		return nil, err
	}
	return mailer.NewDispatcher(queue, transport, &a.cfg.Mail), nil
}

func newMailRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the queue and deliver mail until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			dispatcher, err := a.newDispatcher(cmd, repository.NewMailQueueRepository(pool))
			if err != nil {
				return err
			}
			return dispatcher.Run(ctx)
		},
	}
}

func newMailDrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Deliver everything queued, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			dispatcher, err := a.newDispatcher(cmd, repository.NewMailQueueRepository(pool))
			if err != nil {
				return err
			}

			result, err := dispatcher.Drain(cmd.Context())
			fmt.Fprintf(a.stdout, "claimed=%d sent=%d failed=%d skipped=%d released=%d\n",
				result.Claimed, result.Sent, result.Failed, result.Skipped, result.Released)
			return err
		},
	}
}

func newMailStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the number of mails per queue status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			counts, err := repository.NewMailQueueRepository(pool).CountByStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count mail: %w", err)
			}

			for _, status := range []string{
				constants.MailStatusQueued,
				constants.MailStatusSending,
				constants.MailStatusSent,
				constants.MailStatusFailed,
			} {
				fmt.Fprintf(a.stdout, "%-8s %d\n", status, counts[status])
			}
			return nil
		},
	}
}

// Package cli implements stockmasterctl, the operator tool for the password
// reset service: schema migrations, the standalone mail worker, purging of
// expired reset requests and admin token issuance.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/database"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
	"github.com/stockmaster/stockmaster-backend/migrations"
)

const defaultConfigPath = "./configs/config.yaml"

// app carries state shared by every subcommand
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	logLevel   string
	cfg        *config.AppConfig
}

// NewRootCommand builds the stockmasterctl command tree.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "stockmasterctl",
		Short:         "Operate the Stockmaster password reset service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.cfg = cfg
			utils.InitLogger(cfg)
			if a.logLevel != "" {
				return utils.SetLogLevel(a.logLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			utils.CloseLogger()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath, "Path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		newMigrateCmd(a),
		newMailCmd(a),
		newPurgeCmd(a),
		newTokenCmd(a),
	)
	return root
}

// Execute runs the command tree with args and returns the first error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// openPool connects to the configured database and brings the schema up to date.
func (a *app) openPool(ctx context.Context) (*database.Pool, error) {
	pool, err := database.Connect(a.cfg)
	if err != nil {
		return nil, err
	}

	if err := migrations.NewMigrator(pool).RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return pool, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Fprintln(a.stdout, "Migrations complete")
			return nil
		},
	}
}

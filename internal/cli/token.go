package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stockmaster/stockmaster-backend/internal/auth"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin routes",
		Long: `Issue a signed bearer token for the support inspection routes.

Examples:
  stockmasterctl token --subject alice
  stockmasterctl token --subject alice --ttl 15m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			token, jwtID, err := auth.NewJWTService(&a.cfg.JWT).GenerateToken(subject, role, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, token)
			fmt.Fprintf(a.stderr, "Issued token %s for %s, expires in %s\n", jwtID, subject, ttl)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Operator the token is issued to")
	cmd.Flags().StringVar(&role, "role", constants.RoleAdmin, "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

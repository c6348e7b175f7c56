package main

import (
	"fmt"
	"time"

	"call-ingest/internal/auth"
	"call-ingest/internal/config"
	"call-ingest/internal/rbac"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the listing endpoints",
		Long:  "Signs an access token with LISTING_JWT_SECRET. The token is printed to stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != rbac.RoleViewer && role != rbac.RoleAdmin {
				return fmt.Errorf("role must be %s or %s", rbac.RoleViewer, rbac.RoleAdmin)
			}
			ac := config.AuthFromEnv()
			if ttl > 0 {
				ac.TokenTTL = ttl
			}
			m, err := auth.NewManager(ac)
			if err != nil {
				return err
			}
			tok, err := m.Issue(time.Now(), subject, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. an operator email")
	cmd.Flags().StringVar(&role, "role", rbac.RoleViewer, "viewer or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: $JWT_TOKEN_TTL or 24h)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"pwreset/internal/resettoken"
	"pwreset/pkg/secrets"
)

type tokenFlags struct {
	key      string
	issuer   string
	audience string
}

func (f *tokenFlags) service() (*resettoken.Service, error) {
	if f.key == "" {
		return nil, fmt.Errorf("signing key is required (--key or PWRESET_TOKEN_KEY)")
	}
	return resettoken.NewService(f.key, f.issuer, f.audience), nil
}

func newTokenCmd() *cobra.Command {
	flags := &tokenFlags{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect password reset tokens",
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.key, "key", os.Getenv("PWRESET_TOKEN_KEY"), "HMAC signing key")
	pf.StringVar(&flags.issuer, "issuer", "pwreset", "Token issuer")
	pf.StringVar(&flags.audience, "audience", "pwreset", "Token audience")

	cmd.AddCommand(newTokenIssueCmd(flags), newTokenInspectCmd(flags))
	return cmd
}

func newTokenIssueCmd(flags *tokenFlags) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a reset token for a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service()
			if err != nil {
				return err
			}
			issued, err := svc.Issue(subject, ttl)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Account allowed to reset its password")
	cmd.Flags().DurationVar(&ttl, "ttl", resettoken.DefaultTTL, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newTokenInspectCmd(flags *tokenFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Validate a reset token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service()
			if err != nil {
				return err
			}
			claims, err := svc.ValidateToken(args[0])
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendRows([]table.Row{
				{"Subject", claims.Subject},
				{"Token ID", claims.ID},
				{"Issuer", claims.Issuer},
				{"Expires", claims.ExpiresAt.Time.Format(time.RFC3339)},
			})
			t.Render()
			return nil
		},
	}
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random signing key or admin token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secrets.Generate()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

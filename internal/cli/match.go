package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pwreset/internal/password/feedback"
	"pwreset/internal/password/service"
)

func newMatchCmd(flags *policyFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "match <password> <confirmation>",
		Short: "Check that a confirmation matches the password exactly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := flags.engine()
			if err != nil {
				return err
			}
			if !engine.EvaluateMatch(args[0], args[1]).Matches {
				return errors.New(service.MsgPasswordMismatch)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s passwords match\n", stateSymbol(feedback.Met))
			return nil
		},
	}
}

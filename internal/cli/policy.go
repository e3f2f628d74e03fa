package cli

import (
	"github.com/spf13/cobra"
)

func newPolicyCmd(flags *policyFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the policy text shown above the checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := flags.engine()
			if err != nil {
				return err
			}
			renderPolicy(cmd.OutOrStdout(), engine.Describe())
			return nil
		},
	}
}

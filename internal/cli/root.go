// Package cli implements the pwcheck command line tool.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pwreset/internal/password"
	"pwreset/internal/password/feedback"
)

// ErrPolicyFailed is returned when a checked password does not pass, so the
// process exits non-zero without printing usage.
var ErrPolicyFailed = errors.New("password does not meet the policy")

type policyFlags struct {
	minLength     int
	maxLength     int
	required      int
	requireLength bool
	noColor       bool
}

func (f *policyFlags) engine() (*password.Engine, error) {
	return password.New(password.Config{
		MinLength:        f.minLength,
		MaxLength:        f.maxLength,
		RequiredCriteria: f.required,
		RequireLength:    f.requireLength,
	})
}

// NewRootCmd builds the pwcheck command tree.
func NewRootCmd() *cobra.Command {
	flags := &policyFlags{}

	root := &cobra.Command{
		Use:   "pwcheck",
		Short: "Check passwords against the reset policy",
		Long: `pwcheck evaluates passwords with the same policy engine the reset
service uses, renders the requirement checklist and issues reset tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.IntVar(&flags.minLength, "min-length", password.DefaultMinLength, "Minimum password length in characters")
	pf.IntVar(&flags.maxLength, "max-length", password.DefaultMaxLength, "Maximum password length in characters")
	pf.IntVar(&flags.required, "required", password.DefaultRequiredCriteria, "Number of criteria a password must satisfy")
	pf.BoolVar(&flags.requireLength, "require-length", false, "Make the length criterion mandatory; --required then counts character classes")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable color output")

	root.AddCommand(
		newEvaluateCmd(flags),
		newMatchCmd(flags),
		newWatchCmd(flags),
		newPolicyCmd(flags),
		newTokenCmd(),
		newKeygenCmd(),
	)
	return root
}

// Execute runs the root command and exits on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, ErrPolicyFailed) {
			fmt.Fprintf(os.Stderr, "%s %v\n", stateSymbol(feedback.Failed), err)
		}
		os.Exit(1)
	}
}

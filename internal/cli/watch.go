package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pwreset/internal/password"
	"pwreset/internal/password/feedback"
)

func newWatchCmd(flags *policyFlags) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay field edits from stdin and show live checklist feedback",
		Long: `Each stdin line is the full content of the password field after an edit.
The checklist is printed after every line; end of input acts as focus loss,
after which unmet criteria are shown as failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := feedback.ParseMode(mode)
			if err != nil {
				return err
			}
			engine, err := flags.engine()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tracker := feedback.NewTracker(m, engine.Criteria())
			var current string

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				current = strings.TrimRight(scanner.Text(), "\r")
				fmt.Fprintf(out, "> %s\n", mask(current))
				renderIndicators(out, tracker.Observe(current, engine.Evaluate(current)))
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			res := engine.Evaluate(current)
			fmt.Fprintln(out, "> (blur)")
			renderIndicators(out, tracker.Blur(res))
			if !res.Passed() {
				return ErrPolicyFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(feedback.Live), "Indicator mode: live or latched")
	return cmd
}

// mask shows one bullet per user-visible character.
func mask(s string) string {
	return strings.Repeat("•", password.CharacterCount(s))
}

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pwreset/internal/password"
)

type evaluateOutput struct {
	Criteria         []password.CriterionResult `json:"criteria"`
	Detail           []password.CriterionResult `json:"detail"`
	Satisfied        int                        `json:"satisfied"`
	ClassesSatisfied int                        `json:"classes_satisfied"`
	Required         int                        `json:"required"`
	Passed           bool                       `json:"passed"`
}

func newEvaluateCmd(flags *policyFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "evaluate [password]",
		Short: "Evaluate a password and print the requirement checklist",
		Long: `Evaluate a password against the policy. Without an argument the password
is read from the first line of stdin, which keeps it out of shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := flags.engine()
			if err != nil {
				return err
			}

			pw, err := passwordArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			res := engine.Evaluate(pw)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(evaluateOutput{
					Criteria:         res.Criteria(),
					Detail:           res.Detail(),
					Satisfied:        res.Satisfied(),
					ClassesSatisfied: res.ClassesSatisfied(),
					Required:         res.Required(),
					Passed:           res.Passed(),
				}); err != nil {
					return fmt.Errorf("encoding result: %w", err)
				}
			} else {
				renderResult(out, res)
			}

			if !res.Passed() {
				return ErrPolicyFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the evaluation as JSON")
	return cmd
}

// passwordArg returns args[0] or the first line of in.
func passwordArg(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

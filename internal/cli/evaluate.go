package cli

import (
	"github.com/spf13/cobra"
	"github.com/zatekoja/symptomchecker/backend/internal/evaluation"
)

func newEvaluateCommand(opts *options) *cobra.Command {
	var casesPath string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the diagnosis pipeline against labeled symptom cases",
		Long: `Run every golden case through the configured model and report Recall@3,
MRR@3, specialist accuracy, fallback count and result contract violations.`,
		Example: `  symptomcheck evaluate --cases config/golden_cases.yaml -o yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := evaluation.LoadGoldenCases(casesPath)
			if err != nil {
				return err
			}
			if err := evaluation.ValidateGoldenCases(cases); err != nil {
				return err
			}

			svc, err := opts.services()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			summary, err := evaluation.NewRunner(svc.Diagnosis, nil).Run(ctx, cases)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.output, summary)
		},
	}

	cmd.Flags().StringVar(&casesPath, "cases", "config/golden_cases.yaml", "golden case file (JSON or YAML)")
	return cmd
}

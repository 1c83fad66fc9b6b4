package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zatekoja/symptomchecker/backend/internal/domain/entities"
)

func newAnalyzeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <symptoms>",
		Short: "Analyze a symptom description",
		Long: `Send a free-text symptom description to the model and print up to three
candidate conditions, most likely first.`,
		Example: `  symptomcheck analyze "fever, cough, headache"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			predictions, err := svc.Diagnosis.Analyze(ctx, "", strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.output, map[string]any{"predictions": predictions})
		},
	}
}

func newSuggestCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "suggest <condition>",
		Short:   "Suggest a medication schedule for a condition",
		Example: `  symptomcheck suggest Influenza`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			meds, err := svc.Medication.Suggest(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.output, map[string]any{"medications": meds})
		},
	}
}

func newInteractionsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interactions <name[:dosage]>...",
		Short: "Check a medication list for interactions",
		Long: `Check two or more medications for interactions when taken together.
A dosage may follow the name after a colon.`,
		Example: `  symptomcheck interactions Warfarin:5mg Aspirin`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meds, err := parseMedications(args)
			if err != nil {
				return err
			}
			svc, err := opts.services()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			report := svc.Medication.CheckInteractions(ctx, meds)
			return printResult(cmd.OutOrStdout(), opts.output, map[string]any{"report": report})
		},
	}
}

func parseMedications(args []string) ([]entities.Medication, error) {
	meds := make([]entities.Medication, 0, len(args))
	for _, arg := range args {
		name, dosage, _ := strings.Cut(arg, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("medication %q has no name", arg)
		}
		meds = append(meds, entities.Medication{Name: name, Dosage: strings.TrimSpace(dosage)})
	}
	return meds, nil
}

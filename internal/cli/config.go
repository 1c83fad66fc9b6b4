package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect symptomcheck configuration",
		Long: `Inspect the effective configuration.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SYMPTOMCHECK_*)
3. Config file (~/.symptomcheck/config.yaml)
4. Service environment variables (MODEL_API_KEY, MAPS_API_KEY, ...)
5. Defaults`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if file := opts.v.ConfigFileUsed(); file != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n", file)
			}

			data, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("error marshaling config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	configCmd.AddCommand(showCmd)
	return configCmd
}

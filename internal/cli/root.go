// Package cli implements the symptomcheck command line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zatekoja/symptomchecker/backend/internal/adapters/cache"
	"github.com/zatekoja/symptomchecker/backend/internal/app"
	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	"github.com/zatekoja/symptomchecker/backend/pkg/config"
)

// Version is set at build time.
var Version = "dev"

const envPrefix = "SYMPTOMCHECK"

type options struct {
	cfgFile string
	output  string
	verbose bool

	v *viper.Viper
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "symptomcheck",
		Short: "Symptom analysis, medication checks and nearby care from the terminal",
		Long: `symptomcheck sends a symptom description to a generative model and prints
the candidate conditions, suggests medication schedules, checks medication
lists for interactions and looks up nearby hospitals.

Results are informational only and are not a diagnosis.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			observability.InitCLILogger(cmd.ErrOrStderr(), opts.verbose)
			return opts.initConfig(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: $HOME/.symptomcheck/config.yaml)")
	flags.StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.String("provider", "", "model provider: gemini or openai")
	flags.String("model", "", "model name")
	_ = opts.v.BindPFlag("model.provider", flags.Lookup("provider"))
	_ = opts.v.BindPFlag("model.name", flags.Lookup("model"))

	root.AddCommand(
		newAnalyzeCommand(opts),
		newSuggestCommand(opts),
		newInteractionsCommand(opts),
		newCareCommand(opts),
		newConfigCommand(opts),
		newEvaluateCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "symptomcheck %s\n", Version)
		},
	}
}

// initConfig reads the config file and SYMPTOMCHECK_* environment variables.
func (o *options) initConfig(stderr io.Writer) error {
	if o.output != "json" && o.output != "yaml" {
		return fmt.Errorf("unsupported output format %q", o.output)
	}

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		o.v.AddConfigPath(home + "/.symptomcheck")
		o.v.SetConfigType("yaml")
		o.v.SetConfigName("config")
	}

	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()

	if err := o.v.ReadInConfig(); err != nil {
		if o.cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	} else if o.verbose {
		fmt.Fprintf(stderr, "Using config file: %s\n", o.v.ConfigFileUsed())
	}
	return nil
}

// loadConfig layers viper values over the environment based configuration.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	setString(o.v, "env", &cfg.Env)
	setString(o.v, "log_level", &cfg.LogLevel)
	setString(o.v, "model.provider", &cfg.Model.Provider)
	setString(o.v, "model.api_key", &cfg.Model.APIKey)
	setString(o.v, "model.name", &cfg.Model.Model)
	setString(o.v, "model.base_url", &cfg.Model.BaseURL)
	setDuration(o.v, "model.timeout", &cfg.Model.Timeout)
	setFloat(o.v, "model.temperature", &cfg.Model.Temperature)
	setInt(o.v, "model.max_output_tokens", &cfg.Model.MaxOutputTokens)
	setInt(o.v, "model.rate_limit_rpm", &cfg.Model.RateLimitRPM)
	setInt(o.v, "retry.max_retries", &cfg.Retry.MaxRetries)
	setDuration(o.v, "retry.base_delay", &cfg.Retry.BaseDelay)
	setString(o.v, "maps.provider", &cfg.Maps.Provider)
	setString(o.v, "maps.api_key", &cfg.Maps.APIKey)
	setString(o.v, "maps.base_url", &cfg.Maps.BaseURL)
	setDuration(o.v, "care.device_timeout", &cfg.Care.DeviceTimeout)

	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("retry.max_retries must not be negative")
	}
	return cfg, nil
}

func (o *options) services() (*app.Services, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	// The CLI keeps no history and caches in process only.
	return app.NewServices(cfg, nil, cache.NewMemoryAdapter())
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 2*time.Minute)
}

func setString(v *viper.Viper, key string, target *string) {
	if v.IsSet(key) && v.GetString(key) != "" {
		*target = v.GetString(key)
	}
}

func setInt(v *viper.Viper, key string, target *int) {
	if v.IsSet(key) {
		*target = v.GetInt(key)
	}
}

func setFloat(v *viper.Viper, key string, target *float64) {
	if v.IsSet(key) {
		*target = v.GetFloat64(key)
	}
}

func setDuration(v *viper.Viper, key string, target *time.Duration) {
	if v.IsSet(key) && v.GetDuration(key) > 0 {
		*target = v.GetDuration(key)
	}
}

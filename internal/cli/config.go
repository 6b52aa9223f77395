package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the file and environment configuration for the CLI.
// Flags given on the command line take precedence.
type Config struct {
	Format        string `mapstructure:"format"`
	Verbose       bool   `mapstructure:"verbose"`
	Strategies    string `mapstructure:"strategies"`
	IdentityField string `mapstructure:"identity_field"`
	Database      string `mapstructure:"database"`
}

// EnvPrefix prefixes environment overrides, e.g. SIBLINGMERGE_FORMAT.
const EnvPrefix = "SIBLINGMERGE"

// LoadConfig reads siblingmerge.yaml from the working directory, or path
// when given, and applies SIBLINGMERGE_* environment variables. A missing
// default config file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("strategies", "")
	v.SetDefault("identity_field", "urn")
	v.SetDefault("database", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("siblingmerge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// applyConfig fills every option whose flag was not set explicitly from the
// loaded configuration.
func applyConfig(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := LoadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		opts.Format = cfg.Format
	}
	if !flags.Changed("verbose") {
		opts.Verbose = cfg.Verbose
	}
	if !flags.Changed("strategies") {
		opts.Strategies = cfg.Strategies
	}
	if !flags.Changed("identity-field") {
		opts.IdentityField = cfg.IdentityField
	}
	if f := flags.Lookup("db"); f != nil && !f.Changed && cfg.Database != "" {
		if err := flags.Set("db", cfg.Database); err != nil {
			return fmt.Errorf("database from config: %w", err)
		}
	}
	return nil
}

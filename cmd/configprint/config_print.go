package configprint

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cluster-provisioner/internal/config"
	"cluster-provisioner/pkg/log"
)

var (
	sectionFlag string
	formatFlag  string
)

var ConfigPrintCmd = &cobra.Command{
	Use:   "config-print",
	Short: "Print the current configuration",
	Long: `Print the loaded configuration or a specific section of it.
Supports YAML and JSON output formats.`,
	Example: `  # Print entire config
  cluster-provisioner config-print

  # Print specific section
  cluster-provisioner config-print --section control_plane
  cluster-provisioner config-print --section postgres
  cluster-provisioner config-print --section provisioning

  # Print in JSON format
  cluster-provisioner config-print --section vault --format json`,
	RunE: run,
}

func init() {
	ConfigPrintCmd.Flags().StringVarP(&sectionFlag, "section", "s", "",
		"print only a specific section (control_plane, provisioning, vault, postgres)")
	ConfigPrintCmd.Flags().StringVarP(&formatFlag, "format", "f", "json",
		"output format (yaml|json)")
}

func run(_ *cobra.Command, _ []string) error {
	logger := log.Logger.With().Str("component", "config_print").Logger()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	var output interface{}

	if sectionFlag == "" {
		output = redact(cfg)
		logger.Info().Msg("Printing entire configuration")
	} else {
		output, err = getSection(redact(cfg), sectionFlag)
		if err != nil {
			logger.Error().Err(err).Str("section", sectionFlag).Msg("Invalid section")
			return err
		}
		logger.Info().Str("section", sectionFlag).Msg("Printing configuration section")
	}

	switch formatFlag {
	case "yaml":
		printYAML(logger, output)
	case "json":
		printJSON(logger, output)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", formatFlag)
	}
	return nil
}

// redact blanks out credentials before anything is printed.
func redact(cfg *config.Config) *config.Config {
	clean := *cfg
	if clean.ControlPlane.PrivateKey != "" {
		clean.ControlPlane.PrivateKey = "***"
	}
	if clean.Vault.Token != "" {
		clean.Vault.Token = "***"
	}
	if clean.Vault.AppSecret != "" {
		clean.Vault.AppSecret = "***"
	}
	if clean.Postgres.Password != "" {
		clean.Postgres.Password = "***"
	}
	return &clean
}

func getSection(cfg *config.Config, section string) (interface{}, error) {
	switch section {
	case "control_plane":
		return cfg.ControlPlane, nil
	case "provisioning":
		return cfg.Provisioning, nil
	case "vault":
		return cfg.Vault, nil
	case "postgres":
		return cfg.Postgres, nil
	case "log_level":
		return map[string]string{"log_level": cfg.LogLevel}, nil
	case "id":
		return map[string]string{"id": cfg.ID}, nil
	default:
		return nil,
			fmt.Errorf(
				"unknown section: %s (valid: control_plane, provisioning, vault, postgres, id, log_level)",
				section,
			)
	}
}

func printYAML(logger zerolog.Logger, data interface{}) {
	bytes, err := yaml.Marshal(data)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode YAML")
	}
	content := string(bytes)
	logger.Info().
		Str("format", "yaml").
		Str("config", "\n"+content).
		Msg("Printing Configuration")
}

func printJSON(logger zerolog.Logger, data interface{}) {
	logger.Info().Stack().Interface("config", data).Msg("Printing Configuration")
}

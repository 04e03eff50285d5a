package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/guiyumin/voicetext/internal/core/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage voicetext configuration",
	Long:  "View and modify the default transcription settings stored in config.yml",
}

// voicetext config show - show current config
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Current configuration:")
		for _, key := range configKeys {
			value, _ := getConfigValue(cfg, key)
			if key == "openai.api_key" && value != "" {
				value = maskSecret(value)
			}
			fmt.Fprintf(out, "  %-16s %s\n", key+":", value)
		}
		fmt.Fprintf(out, "  %-16s %s\n", "config:", configPath())
		return nil
	},
}

// voicetext config path - show config file path
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
	},
}

// voicetext config set KEY VALUE - set a config value
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in config.yml.

Supported keys:
  engine, model, device, compute_type, language, beam_size, vad_filter,
  python, models_dir, log_level, openai.api_key, openai.base_url, openai.model

Examples:
  voicetext config set model large-v3
  voicetext config set device cpu
  voicetext config set engine whisper.cpp`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: configKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		path := configPath()

		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return err
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg, path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

// voicetext config get KEY - get a config value
var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get a configuration value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: configKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath())
		if err != nil {
			return err
		}
		value, err := getConfigValue(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

// voicetext config unset KEY - reset a config value to its default
var configUnsetCmd = &cobra.Command{
	Use:       "unset <key>",
	Short:     "Reset a configuration value to its default",
	Args:      cobra.ExactArgs(1),
	ValidArgs: configKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		path := configPath()

		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return err
		}
		def, err := getConfigValue(config.DefaultConfig(), key)
		if err != nil {
			return err
		}
		if err := setConfigValue(cfg, key, def); err != nil {
			return err
		}
		if err := config.Save(cfg, path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)
		return nil
	},
}

var configKeys = []string{
	"engine", "model", "device", "compute_type", "language", "beam_size", "vad_filter",
	"python", "models_dir", "log_level", "openai.api_key", "openai.base_url", "openai.model",
}

// setConfigValue sets a config value by key
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "engine":
		cfg.Engine = value
	case "model":
		cfg.Model = value
	case "device":
		cfg.Device = value
	case "compute_type":
		cfg.ComputeType = value
	case "language":
		cfg.Language = value
	case "beam_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid beam size: %s", value)
		}
		cfg.BeamSize = n
	case "vad_filter":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		cfg.VADFilter = b
	case "python":
		cfg.Python = value
	case "models_dir":
		cfg.ModelsDir = value
	case "log_level":
		cfg.LogLevel = value
	case "openai.api_key":
		cfg.OpenAI.APIKey = value
	case "openai.base_url":
		cfg.OpenAI.BaseURL = value
	case "openai.model":
		cfg.OpenAI.Model = value
	default:
		return fmt.Errorf("unknown config key: %s\nRun 'voicetext config set --help' to see supported keys", key)
	}
	return nil
}

// getConfigValue gets a config value by key
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "engine":
		return cfg.Engine, nil
	case "model":
		return cfg.Model, nil
	case "device":
		return cfg.Device, nil
	case "compute_type":
		return cfg.ComputeType, nil
	case "language":
		return cfg.Language, nil
	case "beam_size":
		return strconv.Itoa(cfg.BeamSize), nil
	case "vad_filter":
		return strconv.FormatBool(cfg.VADFilter), nil
	case "python":
		return cfg.Python, nil
	case "models_dir":
		return cfg.ModelsDir, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "openai.api_key":
		return cfg.OpenAI.APIKey, nil
	case "openai.base_url":
		return cfg.OpenAI.BaseURL, nil
	case "openai.model":
		return cfg.OpenAI.Model, nil
	default:
		return "", fmt.Errorf("unknown config key: %s\nRun 'voicetext config get --help' to see supported keys", key)
	}
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// envOverrides lists the environment variables that override config.yml.
type envOverrides struct {
	Engine      string `env:"VOICETEXT_ENGINE"`
	Model       string `env:"VOICETEXT_MODEL"`
	Device      string `env:"VOICETEXT_DEVICE"`
	ComputeType string `env:"VOICETEXT_COMPUTE_TYPE"`
	Language    string `env:"VOICETEXT_LANGUAGE"`
	BeamSize    string `env:"VOICETEXT_BEAM_SIZE"`
	VADFilter   string `env:"VOICETEXT_VAD_FILTER"`
	Python      string `env:"VOICETEXT_PYTHON"`
	ModelsDir   string `env:"VOICETEXT_MODELS_DIR"`
	LogLevel    string `env:"VOICETEXT_LOG_LEVEL"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
}

// LoadDotEnv reads KEY=VALUE pairs from a .env file into the process
// environment. Variables that already hold a value win. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for k, v := range vars {
		if cur, set := os.LookupEnv(k); set && cur != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays VOICETEXT_* and OPENAI_* variables onto c.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if _, err := env.UnmarshalFromEnviron(&o); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setString(&c.Engine, o.Engine)
	setString(&c.Model, o.Model)
	setString(&c.Device, o.Device)
	setString(&c.ComputeType, o.ComputeType)
	setString(&c.Language, o.Language)
	setString(&c.Python, o.Python)
	setString(&c.LogLevel, o.LogLevel)
	if o.ModelsDir != "" {
		c.ModelsDir = expandPath(o.ModelsDir)
	}

	if o.BeamSize != "" {
		n, err := strconv.Atoi(o.BeamSize)
		if err != nil {
			return fmt.Errorf("VOICETEXT_BEAM_SIZE: %w", err)
		}
		c.BeamSize = n
	}
	if o.VADFilter != "" {
		b, err := strconv.ParseBool(o.VADFilter)
		if err != nil {
			return fmt.Errorf("VOICETEXT_VAD_FILTER: %w", err)
		}
		c.VADFilter = b
	}

	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = o.OpenAIKey
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = o.OpenAIBaseURL
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "voicetext"
)

// Engines that the transcriber factory knows how to build.
const (
	EngineFasterWhisper = "faster-whisper"
	EngineWhisperCPP    = "whisper.cpp"
	EngineOpenAI        = "openai"
)

// ConfigDir returns the standard config directory for voicetext.
// e.g., ~/.config/voicetext/ on Linux, ~/Library/Application Support/voicetext/ on macOS
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// DefaultModelsDir is where ggml models for the whisper.cpp engine live.
func DefaultModelsDir() string {
	return filepath.Join(xdg.DataHome, AppDirName, "models")
}

type Config struct {
	// Transcription engine: faster-whisper, whisper.cpp or openai
	Engine string `yaml:"engine"`

	// Model size or identifier (e.g., "tiny", "medium", "large-v3")
	Model string `yaml:"model"`

	// Inference device: auto, cpu, cuda, ...
	Device string `yaml:"device"`

	// Numeric precision (e.g., "float16", "int8")
	ComputeType string `yaml:"compute_type"`

	// Language hint passed to the engine ("en", "zh", ...). Empty means auto-detect.
	Language string `yaml:"language"`

	BeamSize  int  `yaml:"beam_size"`
	VADFilter bool `yaml:"vad_filter"`

	// Python interpreter used for the faster-whisper helper
	Python string `yaml:"python,omitempty"`

	// Directory holding downloaded ggml models
	ModelsDir string `yaml:"models_dir,omitempty"`

	OpenAI OpenAIConfig `yaml:"openai,omitempty"`

	// debug, info, warn or error
	LogLevel string `yaml:"log_level,omitempty"`
}

// OpenAIConfig configures the hosted transcription engine.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// DefaultConfig returns a config with the stock transcription settings.
func DefaultConfig() *Config {
	return &Config{
		Engine:      EngineFasterWhisper,
		Model:       "medium",
		Device:      "auto",
		ComputeType: "float16",
		Language:    "en",
		BeamSize:    5,
		VADFilter:   false,
		Python:      "python3",
		ModelsDir:   DefaultModelsDir(),
		LogLevel:    "info",
	}
}

// Exists checks if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads the config at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.ModelsDir = expandPath(cfg.ModelsDir)
	cfg.Python = expandPath(cfg.Python)

	return cfg, nil
}

// LoadOrDefault loads the config at path. A missing file yields defaults,
// a malformed one is still an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return nil, err
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// Both forward and backward slashes are accepted after the tilde.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Validate reports settings no engine could work with.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineFasterWhisper, EngineWhisperCPP, EngineOpenAI:
	default:
		return fmt.Errorf("unknown engine %q (want %s, %s or %s)",
			c.Engine, EngineFasterWhisper, EngineWhisperCPP, EngineOpenAI)
	}

	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	if strings.TrimSpace(c.Device) == "" {
		return errors.New("device must not be empty")
	}
	if c.BeamSize < 1 {
		return fmt.Errorf("beam size must be at least 1, got %d", c.BeamSize)
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	return nil
}

// Save writes the config to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# voicetext configuration file\n# Run 'voicetext init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(path, []byte(content), 0644)
}

// Init creates a new config.yml with default values at path.
func Init(path string) error {
	if Exists(path) {
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig(), path)
}

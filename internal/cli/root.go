package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/guiyumin/voicetext/internal/core/ai"
	"github.com/guiyumin/voicetext/internal/core/ai/transcriber"
	"github.com/guiyumin/voicetext/internal/core/config"
	"github.com/guiyumin/voicetext/internal/core/version"
	"github.com/guiyumin/voicetext/internal/logging"
)

var (
	flagModel       string
	flagDevice      string
	flagComputeType string
	flagLanguage    string
	flagBeamSize    int
	flagVADFilter   bool
	flagEngine      string
	flagConfig      string
	flagDebug       bool
)

// Swapped out in tests.
var (
	newTranscriber                       = transcriber.New
	probeGPU       transcriber.GPUProber = transcriber.HasNvidiaGPU
	appFs                                = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "voicetext [flags] <audio>",
	Short: "Transcribe an audio or video file to plain text and SRT subtitles",
	Long: `Transcribe a local audio or video file with a Whisper model.

Two files are written next to the input: <name>.txt with the plain transcript
and <name>.srt with timed subtitles.

Examples:
  voicetext "Recording 1.m4a"
  voicetext --model large-v3 --device cuda lecture.mp3
  voicetext --engine whisper.cpp --model small -l de interview.wav`,
	Version:       version.Version,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTranscribe,
}

func init() {
	defaults := config.DefaultConfig()

	flags := rootCmd.Flags()
	flags.StringVar(&flagModel, "model", defaults.Model, "model size: tiny|base|small|medium|large-v3 (or engine-specific name/path)")
	flags.StringVar(&flagDevice, "device", defaults.Device, "device: auto|cpu|cuda|metal")
	flags.StringVar(&flagComputeType, "compute-type", defaults.ComputeType, "precision, e.g. float16 (GPU), int8_float16, int8 (CPU)")
	flags.StringVarP(&flagLanguage, "language", "l", defaults.Language, "language code, or auto to detect")
	flags.IntVar(&flagBeamSize, "beam-size", defaults.BeamSize, "beam search size")
	flags.BoolVar(&flagVADFilter, "vad-filter", defaults.VADFilter, "enable voice-activity detection to reduce noise")
	flags.StringVar(&flagEngine, "engine", defaults.Engine, "engine: faster-whisper|whisper.cpp|openai")

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	registerFlagCompletions()
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, so cancelling ctx stops
// a running transcription.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadSettings merges defaults, config file, .env, environment and flags,
// then validates the result.
func loadSettings(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, nil, err
	}

	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadOrDefault(config.ConfigPath())
	}
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, nil, err
	}
	applyFlags(cmd.Flags(), cfg)
	if flagDebug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, logging.New(cmd.ErrOrStderr(), cfg.LogLevel), nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("model") {
		cfg.Model = flagModel
	}
	if fs.Changed("device") {
		cfg.Device = flagDevice
	}
	if fs.Changed("compute-type") {
		cfg.ComputeType = flagComputeType
	}
	if fs.Changed("language") {
		cfg.Language = flagLanguage
	}
	if fs.Changed("beam-size") {
		cfg.BeamSize = flagBeamSize
	}
	if fs.Changed("vad-filter") {
		cfg.VADFilter = flagVADFilter
	}
	if fs.Changed("engine") {
		cfg.Engine = flagEngine
	}
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if err := ai.CheckInput(appFs, filePath); err != nil {
		return err
	}
	warnIfNotMedia(logger, filePath)
	warnLanguage(logger, cfg.Language)

	ctx := cmd.Context()
	opts := transcriber.OptionsFromConfig(cfg)
	opts.Device = transcriber.ResolveDevice(ctx, cfg.Device, probeGPU)

	logger.Info(fmt.Sprintf("Loading model=%s on device=%s", opts.Model, opts.Device), "engine", cfg.Engine)

	engine, err := newTranscriber(cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := ai.NewPipeline(engine, appFs, logger).Process(ctx, filePath, opts)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)
	return nil
}

func warnIfNotMedia(logger *log.Logger, filePath string) {
	ok, mime, err := transcriber.IsMediaFile(filePath)
	if err != nil {
		logger.Debug("could not sniff input", "err", err)
		return
	}
	if !ok {
		logger.Warn("input does not look like audio or video", "file", filepath.Base(filePath), "type", mime)
	}
}

func warnLanguage(logger *log.Logger, code string) {
	ok, suggestion := transcriber.CheckLanguage(code)
	if ok {
		return
	}
	if suggestion != "" {
		logger.Warn("language is not a Whisper language code", "language", code, "try", suggestion)
		return
	}
	logger.Warn("language is not a Whisper language code", "language", code)
}

func printSummary(w io.Writer, result *ai.Result) {
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // green
	pathStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))            // cyan

	t := result.Transcript
	fmt.Fprintf(w, "%s Done. Segments: %d  ~%ds audio\n", doneStyle.Render("[✓]"), t.Len(), int(t.SpokenDuration()))
	fmt.Fprintf(w, "%s Transcript (plain text): %s\n", pathStyle.Render("[→]"), result.Outputs.Text)
	fmt.Fprintf(w, "%s Subtitles (SRT):        %s\n", pathStyle.Render("[→]"), result.Outputs.Subtitles)
}

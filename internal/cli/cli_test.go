package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiyumin/voicetext/internal/core/ai/transcriber"
	"github.com/guiyumin/voicetext/internal/core/config"
)

type stubEngine struct {
	segments []transcriber.Segment
	err      error
	opts     transcriber.Options
}

func (s *stubEngine) Name() string { return "stub" }
func (s *stubEngine) Close() error { return nil }

func (s *stubEngine) Transcribe(ctx context.Context, path string, opts transcriber.Options) (transcriber.Stream, error) {
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return transcriber.NewSliceStream(s.segments, transcriber.Info{Language: "en"}), nil
}

type harness struct {
	engine     *stubEngine
	factoryCfg *config.Config
	factoryHit int
	probeHit   int
	gpu        bool
	configPath string
	dir        string
}

func newHarness(t *testing.T, configBody string) *harness {
	t.Helper()

	for _, k := range []string{
		"VOICETEXT_ENGINE", "VOICETEXT_MODEL", "VOICETEXT_DEVICE", "VOICETEXT_COMPUTE_TYPE",
		"VOICETEXT_LANGUAGE", "VOICETEXT_BEAM_SIZE", "VOICETEXT_VAD_FILTER", "VOICETEXT_PYTHON",
		"VOICETEXT_MODELS_DIR", "VOICETEXT_LOG_LEVEL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "DEBUG",
	} {
		t.Setenv(k, "")
	}

	h := &harness{
		engine: &stubEngine{segments: []transcriber.Segment{
			{Start: 0, End: 1.5, Text: " Hello there."},
			{Start: 1.5, End: 4.25, Text: " General Kenobi. "},
		}},
		dir: t.TempDir(),
	}
	h.configPath = filepath.Join(h.dir, "config.yml")
	require.NoError(t, os.WriteFile(h.configPath, []byte(configBody), 0644))

	origFactory, origProbe := newTranscriber, probeGPU
	newTranscriber = func(cfg *config.Config, logger *log.Logger) (transcriber.Transcriber, error) {
		h.factoryHit++
		h.factoryCfg = cfg
		return h.engine, nil
	}
	probeGPU = func(context.Context) bool {
		h.probeHit++
		return h.gpu
	}
	t.Cleanup(func() {
		newTranscriber, probeGPU = origFactory, origProbe
	})
	return h
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) writeConfig(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(h.configPath, []byte(body), 0644))
}

func (h *harness) input(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0644))
	return path
}

func TestTranscribeWritesOutputs(t *testing.T) {
	h := newHarness(t, "device: cpu\n")
	audio := h.input(t, "Recording 1.m4a")

	stdout, stderr, err := h.run(t, "--model", "small", audio)
	require.NoError(t, err)

	txtPath := filepath.Join(h.dir, "Recording 1.txt")
	srtPath := filepath.Join(h.dir, "Recording 1.srt")

	txt, err := os.ReadFile(txtPath)
	require.NoError(t, err)
	assert.Equal(t, "Hello there. General Kenobi. ", string(txt))

	srt, err := os.ReadFile(srtPath)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,500\nHello there.\n\n"+
		"2\n00:00:01,500 --> 00:00:04,250\nGeneral Kenobi.\n\n", string(srt))

	assert.Contains(t, stdout, "Done. Segments: 2  ~4s audio")
	assert.Contains(t, stdout, "Transcript (plain text): "+txtPath)
	assert.Contains(t, stdout, "Subtitles (SRT):        "+srtPath)

	assert.Contains(t, stderr, "Loading model=small on device=cpu")
	assert.Contains(t, stderr, "Transcribing: Recording 1.m4a")

	assert.Equal(t, "small", h.engine.opts.Model)
	assert.Equal(t, 5, h.engine.opts.BeamSize)
	assert.Equal(t, "en", h.engine.opts.Language)
	assert.True(t, h.engine.opts.ConditionOnPreviousText)
}

func TestTranscribeMissingFileStopsEarly(t *testing.T) {
	h := newHarness(t, "")
	missing := filepath.Join(h.dir, "nope.m4a")

	_, _, err := h.run(t, missing)
	require.Error(t, err)
	assert.Equal(t, "file not found: "+missing, err.Error())
	assert.Equal(t, 0, h.factoryHit)
	assert.Equal(t, 0, h.probeHit)

	for _, p := range []string{"nope.txt", "nope.srt"} {
		_, statErr := os.Stat(filepath.Join(h.dir, p))
		assert.True(t, os.IsNotExist(statErr), p)
	}
}

func TestTranscribeRejectsBadBeamSizeFirst(t *testing.T) {
	h := newHarness(t, "")

	_, _, err := h.run(t, "--beam-size", "0", filepath.Join(h.dir, "nope.m4a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beam size")
	assert.Equal(t, 0, h.factoryHit)
}

func TestTranscribeRejectsUnknownEngine(t *testing.T) {
	h := newHarness(t, "")

	_, _, err := h.run(t, "--engine", "sphinx", h.input(t, "a.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
	assert.Equal(t, 0, h.factoryHit)
}

func TestFlagsOverrideConfig(t *testing.T) {
	h := newHarness(t, "model: tiny\nbeam_size: 2\nlanguage: de\n")
	audio := h.input(t, "talk.mp3")

	_, _, err := h.run(t, "--model", "large-v3", "--device", "cpu", "--vad-filter", audio)
	require.NoError(t, err)

	require.NotNil(t, h.factoryCfg)
	assert.Equal(t, "large-v3", h.factoryCfg.Model)
	assert.Equal(t, 2, h.factoryCfg.BeamSize)
	assert.Equal(t, "de", h.engine.opts.Language)
	assert.True(t, h.engine.opts.VADFilter)
	assert.Equal(t, 0, h.probeHit)
}

func TestEnvOverridesConfig(t *testing.T) {
	h := newHarness(t, "model: tiny\n")
	t.Setenv("VOICETEXT_MODEL", "base")

	_, _, err := h.run(t, "--device", "cpu", h.input(t, "talk.wav"))
	require.NoError(t, err)
	assert.Equal(t, "base", h.engine.opts.Model)
}

func TestAutoDeviceProbesGPU(t *testing.T) {
	h := newHarness(t, "")
	h.gpu = true

	_, stderr, err := h.run(t, h.input(t, "talk.wav"))
	require.NoError(t, err)
	assert.Equal(t, 1, h.probeHit)
	assert.Equal(t, "cuda", h.engine.opts.Device)
	assert.Contains(t, stderr, "on device=cuda")
}

func TestEngineFailureWritesNothing(t *testing.T) {
	h := newHarness(t, "device: cpu\n")
	h.engine.err = errors.New("CUDA out of memory")
	audio := h.input(t, "talk.m4a")

	stdout, _, err := h.run(t, audio)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA out of memory")
	assert.Empty(t, stdout)

	_, statErr := os.Stat(filepath.Join(h.dir, "talk.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRequiresExactlyOneInput(t *testing.T) {
	h := newHarness(t, "")

	_, _, err := h.run(t)
	assert.Error(t, err)

	_, _, err = h.run(t, "a.m4a", "b.m4a")
	assert.Error(t, err)
	assert.Equal(t, 0, h.factoryHit)
}

//go:build cgo

package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

const whisperCPPAvailable = true

// ErrWhisperCPPUnavailable is returned when the binary was built without cgo.
var ErrWhisperCPPUnavailable = errors.New("the whisper.cpp engine requires a cgo build (CGO_ENABLED=1)")

// WhisperCPP implements Transcriber using the whisper.cpp bindings.
type WhisperCPP struct {
	model     whisper.Model
	modelPath string
	logger    *log.Logger
}

// NewWhisperCPP loads a ggml model.
func NewWhisperCPP(modelPath string, logger *log.Logger) (*WhisperCPP, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("whisper model not found: %s", modelPath)
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whisper model: %w", err)
	}

	return &WhisperCPP{
		model:     model,
		modelPath: modelPath,
		logger:    logger,
	}, nil
}

func (w *WhisperCPP) Name() string { return "whisper.cpp" }

// Transcribe decodes the audio and runs inference. whisper.cpp finishes the
// whole file inside Process; the stream then walks the decoded segments.
func (w *WhisperCPP) Transcribe(ctx context.Context, filePath string, opts Options) (Stream, error) {
	w.warnUnsupported(opts)

	samples, err := DecodeAudio(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare audio: %w", err)
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create whisper context: %w", err)
	}

	language := opts.Language
	if language == "" {
		language = "auto"
	}
	if language != "auto" || w.model.IsMultilingual() {
		if err := wctx.SetLanguage(language); err != nil {
			return nil, fmt.Errorf("failed to set language %q: %w", language, err)
		}
	}
	if opts.BeamSize > 0 {
		wctx.SetBeamSize(opts.BeamSize)
	}
	wctx.SetThreads(uint(min(runtime.NumCPU(), 8)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Process audio (callbacks: encoder begin, segment, progress)
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to process audio: %w", err)
	}

	info := Info{
		Language: opts.Language,
		Duration: float64(len(samples)) / SampleRate,
	}
	return &whisperStream{ctx: ctx, wctx: wctx, info: info}, nil
}

func (w *WhisperCPP) warnUnsupported(opts Options) {
	if opts.VADFilter {
		w.logger.Warn("whisper.cpp engine ignores --vad-filter")
	}
	if opts.Device != "" && opts.Device != DeviceCPU && opts.Device != DeviceAuto {
		w.logger.Warn("whisper.cpp engine picks its own backend", "device", opts.Device)
	}
	if opts.ComputeType != "" && !strings.EqualFold(opts.ComputeType, "float16") {
		w.logger.Debug("whisper.cpp engine ignores compute type", "compute_type", opts.ComputeType)
	}
}

// Close releases the model resources.
func (w *WhisperCPP) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}

type whisperStream struct {
	ctx  context.Context
	wctx whisper.Context
	info Info
}

func (s *whisperStream) Next() (Segment, error) {
	if err := s.ctx.Err(); err != nil {
		return Segment{}, err
	}
	seg, err := s.wctx.NextSegment()
	if err == io.EOF {
		return Segment{}, io.EOF
	}
	if err != nil {
		return Segment{}, err
	}
	return Segment{
		Start: seg.Start.Seconds(),
		End:   seg.End.Seconds(),
		Text:  seg.Text,
	}, nil
}

func (s *whisperStream) Info() Info   { return s.info }
func (s *whisperStream) Close() error { return nil }

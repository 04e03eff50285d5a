// Package transcriber provides speech-to-text transcription behind a single
// streaming interface, with local (faster-whisper, whisper.cpp) and hosted
// (OpenAI) engines.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/guiyumin/voicetext/internal/core/config"
)

// Segment represents a timestamped portion of transcript. Times are seconds
// from the start of the audio.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Duration is End-Start, clamped at zero for malformed segments.
func (s Segment) Duration() float64 {
	if d := s.End - s.Start; d > 0 {
		return d
	}
	return 0
}

// Info describes the audio as reported by the engine.
type Info struct {
	Language            string
	LanguageProbability float64
	Duration            float64 // seconds, 0 when unknown
}

// Result contains the fully collected transcription.
type Result struct {
	Segments []Segment
	Info     Info
}

// Len returns the number of segments.
func (r *Result) Len() int { return len(r.Segments) }

// SpokenDuration sums the durations of all segments.
func (r *Result) SpokenDuration() float64 {
	var total float64
	for _, seg := range r.Segments {
		total += seg.Duration()
	}
	return total
}

// Options are the per-call transcription settings.
type Options struct {
	Model                   string
	Device                  string
	ComputeType             string
	Language                string // empty means auto-detect
	BeamSize                int
	VADFilter               bool
	ConditionOnPreviousText bool
}

// OptionsFromConfig builds Options from resolved settings.
// Device is left as configured; callers resolve "auto" first.
func OptionsFromConfig(cfg *config.Config) Options {
	lang := cfg.Language
	if lang == "auto" {
		lang = ""
	}
	return Options{
		Model:                   cfg.Model,
		Device:                  cfg.Device,
		ComputeType:             cfg.ComputeType,
		Language:                lang,
		BeamSize:                cfg.BeamSize,
		VADFilter:               cfg.VADFilter,
		ConditionOnPreviousText: true,
	}
}

// Stream yields segments in the order the engine produced them.
// Next returns io.EOF once the transcription is complete.
type Stream interface {
	Next() (Segment, error)
	Info() Info
	Close() error
}

// Transcriber converts audio to text.
type Transcriber interface {
	// Transcribe starts transcribing an audio file. Segments are produced lazily.
	Transcribe(ctx context.Context, filePath string, opts Options) (Stream, error)

	// Name returns the engine name.
	Name() string

	// Close releases any model or process held by the engine.
	Close() error
}

// Collect drains s into a Result and closes it. Zero segments is a valid result.
func Collect(s Stream) (*Result, error) {
	defer s.Close()

	res := &Result{}
	for {
		seg, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("transcription failed after %d segments: %w", len(res.Segments), err)
		}
		res.Segments = append(res.Segments, seg)
	}
	res.Info = s.Info()
	return res, nil
}

// ErrUnknownEngine is returned by New for an engine name it cannot build.
var ErrUnknownEngine = errors.New("unsupported transcription engine")

// New creates the Transcriber named by cfg.Engine.
func New(cfg *config.Config, logger *log.Logger) (Transcriber, error) {
	switch cfg.Engine {
	case config.EngineFasterWhisper, "":
		return NewFasterWhisper(cfg.Python, logger), nil
	case config.EngineWhisperCPP:
		if !whisperCPPAvailable {
			return nil, ErrWhisperCPPUnavailable
		}
		mm := NewModelManager(cfg.ModelsDir)
		path, err := mm.Resolve(cfg.Model)
		if err != nil {
			return nil, err
		}
		w, err := NewWhisperCPP(path, logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.EngineOpenAI:
		o, err := NewOpenAI(cfg.OpenAI, logger)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, cfg.Engine)
	}
}

// sliceStream replays a fixed list of segments.
type sliceStream struct {
	segments []Segment
	info     Info
	pos      int
}

// NewSliceStream returns a Stream over segments already in memory.
// The hosted engine uses it, and so do tests.
func NewSliceStream(segments []Segment, info Info) Stream {
	return &sliceStream{segments: segments, info: info}
}

func (s *sliceStream) Next() (Segment, error) {
	if s.pos >= len(s.segments) {
		return Segment{}, io.EOF
	}
	seg := s.segments[s.pos]
	s.pos++
	return seg, nil
}

func (s *sliceStream) Info() Info   { return s.info }
func (s *sliceStream) Close() error { return nil }

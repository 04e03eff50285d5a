//go:build !cgo

package transcriber

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

const whisperCPPAvailable = false

// ErrWhisperCPPUnavailable is returned when the binary was built without cgo.
var ErrWhisperCPPUnavailable = errors.New("the whisper.cpp engine requires a cgo build (CGO_ENABLED=1)")

// WhisperCPP is unavailable without cgo.
type WhisperCPP struct{}

// NewWhisperCPP always fails in non-cgo builds.
func NewWhisperCPP(modelPath string, logger *log.Logger) (*WhisperCPP, error) {
	return nil, ErrWhisperCPPUnavailable
}

func (w *WhisperCPP) Name() string { return "whisper.cpp" }

func (w *WhisperCPP) Transcribe(ctx context.Context, filePath string, opts Options) (Stream, error) {
	return nil, ErrWhisperCPPUnavailable
}

func (w *WhisperCPP) Close() error { return nil }

// Package ai runs transcription end to end: engine, collection and output files.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/guiyumin/voicetext/internal/core/ai/output"
	"github.com/guiyumin/voicetext/internal/core/ai/transcriber"
)

// ErrInputNotFound is returned when the input file does not exist.
var ErrInputNotFound = errors.New("file not found")

// Pipeline processes audio/video files through transcription and writes
// the transcript and subtitles next to the input.
type Pipeline struct {
	transcriber transcriber.Transcriber
	serializer  *output.Serializer
	fs          afero.Fs
	logger      *log.Logger
}

// Result contains the output of pipeline processing.
type Result struct {
	Outputs    output.Outputs
	Transcript *transcriber.Result
}

// NewPipeline creates a pipeline around an engine. Outputs are written to fs.
func NewPipeline(t transcriber.Transcriber, fsys afero.Fs, logger *log.Logger) *Pipeline {
	return &Pipeline{
		transcriber: t,
		serializer:  output.NewSerializer(fsys),
		fs:          fsys,
		logger:      logger,
	}
}

// CheckInput verifies that path names an existing regular file.
func CheckInput(fsys afero.Fs, path string) error {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not an audio file", path)
	}
	return nil
}

// Process transcribes filePath and writes <base>.txt and <base>.srt.
// Nothing is written unless the whole transcription succeeds.
func (p *Pipeline) Process(ctx context.Context, filePath string, opts transcriber.Options) (*Result, error) {
	if err := CheckInput(p.fs, filePath); err != nil {
		return nil, err
	}

	p.logger.Info("Transcribing: " + filepath.Base(filePath))

	stream, err := p.transcriber.Transcribe(ctx, filePath, opts)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	transcript, err := transcriber.Collect(stream)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("transcription complete",
		"segments", transcript.Len(),
		"language", transcript.Info.Language,
		"duration", transcript.Info.Duration)

	outputs, err := p.serializer.Write(transcript, filePath)
	if err != nil {
		return nil, err
	}

	return &Result{Outputs: outputs, Transcript: transcript}, nil
}

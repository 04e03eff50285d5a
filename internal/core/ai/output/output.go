// Package output writes transcripts to disk as plain text and SRT subtitles.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/guiyumin/voicetext/internal/core/ai/transcriber"
)

// Outputs are the files written for one input.
type Outputs struct {
	Text      string
	Subtitles string
}

// OutputPaths derives the .txt and .srt paths next to the input by
// replacing its last extension. "talk.final.m4a" gives "talk.final.txt".
// A leading dot belongs to the name, so ".hidden" gives ".hidden.txt".
func OutputPaths(inputPath string) Outputs {
	base := inputPath
	if name := filepath.Base(inputPath); strings.LastIndexByte(name, '.') > 0 {
		base = strings.TrimSuffix(inputPath, filepath.Ext(name))
	}
	return Outputs{
		Text:      base + ".txt",
		Subtitles: base + ".srt",
	}
}

// WriteTimedCaptions writes segments to path as SRT, replacing any existing file.
func WriteTimedCaptions(fs afero.Fs, segments []transcriber.Segment, path string) error {
	return writeFile(fs, path, func(w io.Writer) error {
		return WriteSRT(w, segments)
	})
}

// WritePlainTextFile writes segments to path as plain text, replacing any existing file.
func WritePlainTextFile(fs afero.Fs, segments []transcriber.Segment, path string) error {
	return writeFile(fs, path, func(w io.Writer) error {
		return WritePlainText(w, segments)
	})
}

func writeFile(fs afero.Fs, path string, write func(io.Writer) error) error {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Serializer writes both output files for a transcript.
type Serializer struct {
	fs afero.Fs
}

// NewSerializer returns a Serializer over fs.
func NewSerializer(fs afero.Fs) *Serializer {
	return &Serializer{fs: fs}
}

// Write stores the plain-text transcript, then the subtitles, next to
// inputPath. It stops at the first failure.
func (s *Serializer) Write(result *transcriber.Result, inputPath string) (Outputs, error) {
	out := OutputPaths(inputPath)

	if err := WritePlainTextFile(s.fs, result.Segments, out.Text); err != nil {
		return Outputs{}, err
	}
	if err := WriteTimedCaptions(s.fs, result.Segments, out.Subtitles); err != nil {
		return Outputs{}, err
	}
	return out, nil
}

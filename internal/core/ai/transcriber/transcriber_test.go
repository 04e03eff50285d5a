package transcriber

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiyumin/voicetext/internal/core/config"
	"github.com/guiyumin/voicetext/internal/logging"
)

type failingStream struct {
	good   []Segment
	err    error
	closed bool
}

func (s *failingStream) Next() (Segment, error) {
	if len(s.good) == 0 {
		return Segment{}, s.err
	}
	seg := s.good[0]
	s.good = s.good[1:]
	return seg, nil
}

func (s *failingStream) Info() Info   { return Info{} }
func (s *failingStream) Close() error { s.closed = true; return nil }

func TestSegmentDuration(t *testing.T) {
	assert.Equal(t, 1.5, Segment{Start: 1, End: 2.5}.Duration())
	assert.Equal(t, 0.0, Segment{Start: 3, End: 2}.Duration())
}

func TestResultSpokenDuration(t *testing.T) {
	res := &Result{Segments: []Segment{
		{Start: 0, End: 2},
		{Start: 2, End: 5.5},
		{Start: 7, End: 6}, // inverted, contributes nothing
	}}
	assert.Equal(t, 3, res.Len())
	assert.InDelta(t, 5.5, res.SpokenDuration(), 1e-9)
}

func TestCollect(t *testing.T) {
	segs := []Segment{{Start: 0, End: 1, Text: "a"}, {Start: 1, End: 2, Text: "b"}}
	res, err := Collect(NewSliceStream(segs, Info{Language: "en", Duration: 2}))
	require.NoError(t, err)

	assert.Equal(t, segs, res.Segments)
	assert.Equal(t, "en", res.Info.Language)
}

func TestCollectEmpty(t *testing.T) {
	res, err := Collect(NewSliceStream(nil, Info{}))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0.0, res.SpokenDuration())
}

func TestCollectPropagatesErrorAndCloses(t *testing.T) {
	boom := errors.New("boom")
	s := &failingStream{good: []Segment{{Text: "x"}}, err: boom}

	_, err := Collect(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.closed)
}

func TestSliceStreamEOF(t *testing.T) {
	s := NewSliceStream([]Segment{{Text: "only"}}, Info{})
	_, err := s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Language = "auto"
	cfg.VADFilter = true

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "medium", opts.Model)
	assert.Equal(t, "", opts.Language)
	assert.Equal(t, 5, opts.BeamSize)
	assert.True(t, opts.VADFilter)
	assert.True(t, opts.ConditionOnPreviousText)
}

func TestNewSelectsEngine(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Python = "/usr/bin/python3"

	tr, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "faster-whisper", tr.Name())

	cfg.Engine = config.EngineOpenAI
	cfg.OpenAI.APIKey = "sk-test"
	tr, err = New(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "openai", tr.Name())

	cfg.OpenAI.APIKey = ""
	tr, err = New(cfg, logging.Discard())
	assert.Error(t, err)
	assert.Nil(t, tr)

	cfg.Engine = "sphinx"
	_, err = New(cfg, logging.Discard())
	assert.ErrorIs(t, err, ErrUnknownEngine)
}

func TestNewWhisperCPPNeedsModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine = config.EngineWhisperCPP
	cfg.ModelsDir = t.TempDir()

	_, err := New(cfg, logging.Discard())
	assert.Error(t, err)
}

package output

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiyumin/voicetext/internal/core/ai/transcriber"
)

var sample = []transcriber.Segment{
	{Start: 0, End: 1.5, Text: " Hello there. "},
	{Start: 1.5, End: 3.25, Text: "General Kenobi."},
}

func TestWriteSRT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSRT(&buf, sample))

	want := "1\n00:00:00,000 --> 00:00:01,500\nHello there.\n\n" +
		"2\n00:00:01,500 --> 00:00:03,250\nGeneral Kenobi.\n\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSRTKeepsInvertedSegments(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSRT(&buf, []transcriber.Segment{{Start: 5, End: 4, Text: "odd"}}))
	assert.Equal(t, "1\n00:00:05,000 --> 00:00:04,000\nodd\n\n", buf.String())
}

func TestWritePlainText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainText(&buf, sample))
	assert.Equal(t, "Hello there. General Kenobi. ", buf.String())
}

func TestWritersEmptyInput(t *testing.T) {
	var srt, txt bytes.Buffer
	require.NoError(t, WriteSRT(&srt, nil))
	require.NoError(t, WritePlainText(&txt, nil))
	assert.Empty(t, srt.String())
	assert.Empty(t, txt.String())
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		input string
		txt   string
		srt   string
	}{
		{"talk.m4a", "talk.txt", "talk.srt"},
		{"/data/Recording 1.m4a", "/data/Recording 1.txt", "/data/Recording 1.srt"},
		{"/data/Lecture 1.m4a", "/data/Lecture 1.txt", "/data/Lecture 1.srt"},
		{"/data/.hidden", "/data/.hidden.txt", "/data/.hidden.srt"},
		{"/data/.hidden.m4a", "/data/.hidden.txt", "/data/.hidden.srt"},
		{"/data/v1.2/talk", "/data/v1.2/talk.txt", "/data/v1.2/talk.srt"},
		{"lecture.final.mp3", "lecture.final.txt", "lecture.final.srt"},
		{"noext", "noext.txt", "noext.srt"},
		{"notes.txt", "notes.txt", "notes.srt"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := OutputPaths(tt.input)
			assert.Equal(t, tt.txt, out.Text)
			assert.Equal(t, tt.srt, out.Subtitles)
		})
	}
}

func TestSerializerWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/rec/talk.srt", []byte("stale content that is longer than the new one"), 0644))

	out, err := NewSerializer(fs).Write(&transcriber.Result{Segments: sample}, "/rec/talk.m4a")
	require.NoError(t, err)
	assert.Equal(t, "/rec/talk.txt", out.Text)
	assert.Equal(t, "/rec/talk.srt", out.Subtitles)

	txt, err := afero.ReadFile(fs, out.Text)
	require.NoError(t, err)
	assert.Equal(t, "Hello there. General Kenobi. ", string(txt))

	srt, err := afero.ReadFile(fs, out.Subtitles)
	require.NoError(t, err)
	assert.Contains(t, string(srt), "2\n00:00:01,500 --> 00:00:03,250\nGeneral Kenobi.\n\n")
	assert.NotContains(t, string(srt), "stale")
}

func TestSerializerWriteEmptyTranscript(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := NewSerializer(fs).Write(&transcriber.Result{}, "/rec/silence.wav")
	require.NoError(t, err)

	for _, p := range []string{out.Text, out.Subtitles} {
		data, err := afero.ReadFile(fs, p)
		require.NoError(t, err)
		assert.Empty(t, data)
	}
}

func TestSerializerWriteReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := NewSerializer(fs).Write(&transcriber.Result{Segments: sample}, "/rec/talk.m4a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/rec/talk.txt")
}

func TestWriteTimedCaptionsMissingDir(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := WriteTimedCaptions(fs, sample, "/nowhere/out.srt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nowhere/out.srt")
}

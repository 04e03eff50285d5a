package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/guiyumin/voicetext/internal/core/ai/transcriber"
)

// WriteSRT writes segments as SubRip cues numbered from 1.
// Cue text is trimmed; segments are written in the order given.
func WriteSRT(w io.Writer, segments []transcriber.Segment) error {
	bw := bufio.NewWriter(w)
	for i, seg := range segments {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(seg.Start),
			FormatTimestamp(seg.End),
			strings.TrimSpace(seg.Text))
	}
	return bw.Flush()
}

// WritePlainText writes each trimmed segment followed by a single space.
// There are no line breaks; empty input writes nothing.
func WritePlainText(w io.Writer, segments []transcriber.Segment) error {
	bw := bufio.NewWriter(w)
	for _, seg := range segments {
		bw.WriteString(strings.TrimSpace(seg.Text))
		bw.WriteByte(' ')
	}
	return bw.Flush()
}

package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
)

// defaultChunkSeconds keeps each 16-bit 16 kHz mono chunk near 19MB,
// under the hosted API's upload limit.
const defaultChunkSeconds = 600

// audioChunk is one piece of a split recording.
type audioChunk struct {
	Index  int
	Path   string
	Offset float64 // seconds from the start of the original audio
	Length float64 // seconds
}

// splitAudio decodes filePath and writes consecutive WAV chunks of at most
// chunkSeconds into dir.
func splitAudio(ctx context.Context, filePath, dir string, chunkSeconds int) ([]audioChunk, error) {
	if chunkSeconds <= 0 {
		chunkSeconds = defaultChunkSeconds
	}

	samples, err := DecodeAudio(ctx, filePath)
	if err != nil {
		return nil, err
	}

	perChunk := chunkSeconds * SampleRate
	var chunks []audioChunk
	for i, start := 0, 0; start < len(samples); i, start = i+1, start+perChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+perChunk, len(samples))
		path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.wav", i))
		if err := writeWAV(path, samples[start:end], SampleRate); err != nil {
			return nil, fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
		chunks = append(chunks, audioChunk{
			Index:  i,
			Path:   path,
			Offset: float64(start) / SampleRate,
			Length: float64(end-start) / SampleRate,
		})
	}
	return chunks, nil
}

// mergeChunkSegments shifts each chunk's segments by the chunk offset and
// concatenates them in chunk order.
func mergeChunkSegments(chunks []audioChunk, parts [][]Segment) []Segment {
	var merged []Segment
	for i, segs := range parts {
		offset := chunks[i].Offset
		for _, seg := range segs {
			merged = append(merged, Segment{
				Start: seg.Start + offset,
				End:   seg.End + offset,
				Text:  seg.Text,
			})
		}
	}
	return merged
}

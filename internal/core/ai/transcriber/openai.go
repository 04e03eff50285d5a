package transcriber

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	openai "github.com/sashabaranov/go-openai"

	"github.com/guiyumin/voicetext/internal/core/config"
)

// openAIMaxFileSize is the upload limit of the hosted transcription API.
const openAIMaxFileSize = 25 * 1024 * 1024

// OpenAI implements Transcriber using the OpenAI Whisper API.
type OpenAI struct {
	client       *openai.Client
	model        string
	logger       *log.Logger
	maxFileSize  int64
	chunkSeconds int
}

// NewOpenAI creates a new OpenAI transcriber. The key comes from config
// or OPENAI_API_KEY, already merged into cfg.
func NewOpenAI(cfg config.OpenAIConfig, logger *log.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided (set OPENAI_API_KEY or openai.api_key)")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &OpenAI{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        model,
		logger:       logger,
		maxFileSize:  openAIMaxFileSize,
		chunkSeconds: defaultChunkSeconds,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Close() error { return nil }

// Transcribe uploads the file and returns the verbose segments. Files over
// the upload limit are decoded, split into WAV chunks and sent one by one.
// Local model tiers, device and compute type do not apply to the hosted API.
func (o *OpenAI) Transcribe(ctx context.Context, filePath string, opts Options) (Stream, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	o.logger.Debug("using hosted model", "model", o.model, "requested", opts.Model)
	if opts.VADFilter {
		o.logger.Warn("openai engine ignores --vad-filter")
	}

	if info.Size() > o.maxFileSize {
		o.logger.Info("file exceeds upload limit, splitting",
			"size", humanize.Bytes(uint64(info.Size())),
			"limit", humanize.Bytes(uint64(o.maxFileSize)))
		return o.transcribeChunked(ctx, filePath, opts)
	}

	segments, resp, err := o.transcribeFile(ctx, filePath, opts)
	if err != nil {
		return nil, err
	}
	return NewSliceStream(segments, Info{
		Language: resp.Language,
		Duration: resp.Duration,
	}), nil
}

func (o *OpenAI) transcribeFile(ctx context.Context, filePath string, opts Options) ([]Segment, openai.AudioResponse, error) {
	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: filePath,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, resp, fmt.Errorf("transcription API error: %w", err)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return segments, resp, nil
}

func (o *OpenAI) transcribeChunked(ctx context.Context, filePath string, opts Options) (Stream, error) {
	dir, err := os.MkdirTemp("", "voicetext-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk dir: %w", err)
	}
	defer os.RemoveAll(dir)

	chunks, err := splitAudio(ctx, filePath, dir, o.chunkSeconds)
	if err != nil {
		return nil, err
	}

	var (
		parts    [][]Segment
		info     Info
		duration float64
	)
	for _, chunk := range chunks {
		o.logger.Info("transcribing chunk", "chunk", chunk.Index+1, "of", len(chunks))
		segs, resp, err := o.transcribeFile(ctx, chunk.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.Index+1, err)
		}
		if info.Language == "" {
			info.Language = resp.Language
		}
		parts = append(parts, segs)
		duration += chunk.Length
	}
	info.Duration = duration

	return NewSliceStream(mergeChunkSegments(chunks, parts), info), nil
}

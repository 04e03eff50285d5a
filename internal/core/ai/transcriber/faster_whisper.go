package transcriber

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/charmbracelet/log"
)

//go:embed assets/faster_whisper.py
var fasterWhisperScript []byte

// FasterWhisper runs faster-whisper through a small embedded Python helper
// and streams its segments back as JSON lines.
type FasterWhisper struct {
	python string
	logger *log.Logger
}

// NewFasterWhisper creates the engine. An empty python means "python3".
func NewFasterWhisper(python string, logger *log.Logger) *FasterWhisper {
	if python == "" {
		python = "python3"
	}
	return &FasterWhisper{python: python, logger: logger}
}

func (f *FasterWhisper) Name() string { return "faster-whisper" }

func (f *FasterWhisper) Close() error { return nil }

// Available checks that the interpreter can import faster_whisper.
func (f *FasterWhisper) Available(ctx context.Context) error {
	task := execute.ExecTask{
		Command: f.python,
		Args:    []string{"-c", "import faster_whisper"},
	}
	res, err := task.Execute(ctx)
	if err != nil {
		return fmt.Errorf("python interpreter %q not usable: %w", f.python, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("faster-whisper is not installed for %s (pip install faster-whisper)", f.python)
	}
	return nil
}

// Transcribe starts the helper and blocks until the model is loaded and the
// audio info line has arrived. Segments are read as Next is called.
func (f *FasterWhisper) Transcribe(ctx context.Context, filePath string, opts Options) (Stream, error) {
	dir, err := os.MkdirTemp("", "voicetext-fw-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create helper dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	script := filepath.Join(dir, "faster_whisper.py")
	if err := os.WriteFile(script, fasterWhisperScript, 0o644); err != nil {
		cleanup()
		return nil, fmt.Errorf("write helper script: %w", err)
	}

	args := helperArgs(script, filePath, opts)
	f.logger.Debug("starting faster-whisper helper", "python", f.python, "args", strings.Join(args[1:], " "))

	cmd := exec.CommandContext(ctx, f.python, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cleanup()
		return nil, err
	}
	stderr := &tailBuffer{max: 16 << 10}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to start %s: %w", f.python, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)

	s := &helperStream{
		ctx:     ctx,
		engine:  f,
		cmd:     cmd,
		scanner: scanner,
		stderr:  stderr,
		cleanup: cleanup,
		logger:  f.logger,
	}
	if err := s.readInfo(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func helperArgs(script, audio string, opts Options) []string {
	args := []string{
		script,
		"--audio", audio,
		"--model", opts.Model,
		"--device", opts.Device,
		"--compute-type", opts.ComputeType,
		"--beam-size", strconv.Itoa(opts.BeamSize),
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}
	if opts.VADFilter {
		args = append(args, "--vad-filter")
	}
	if !opts.ConditionOnPreviousText {
		args = append(args, "--no-condition-on-previous-text")
	}
	return args
}

// helperMessage is one JSON line from the helper.
type helperMessage struct {
	Type                string  `json:"type"`
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`
	Start               float64 `json:"start"`
	End                 float64 `json:"end"`
	Text                string  `json:"text"`
}

func parseHelperLine(line []byte) (helperMessage, error) {
	var msg helperMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return msg, fmt.Errorf("malformed helper output %q: %w", truncate(string(line), 120), err)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("helper output missing type: %q", truncate(string(line), 120))
	}
	return msg, nil
}

type helperStream struct {
	ctx     context.Context
	engine  *FasterWhisper
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	stderr  *tailBuffer
	cleanup func()
	logger  *log.Logger

	info   Info
	done   bool
	closed bool
}

func (s *helperStream) Info() Info { return s.info }

func (s *helperStream) readInfo() error {
	for {
		msg, err := s.nextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("faster-whisper exited without output")
			}
			return err
		}
		if msg.Type == "info" {
			s.info = Info{
				Language:            msg.Language,
				LanguageProbability: msg.LanguageProbability,
				Duration:            msg.Duration,
			}
			return nil
		}
		s.logger.Debug("skipping helper message before info", "type", msg.Type)
	}
}

func (s *helperStream) Next() (Segment, error) {
	for {
		msg, err := s.nextMessage()
		if err != nil {
			return Segment{}, err
		}
		if msg.Type == "segment" {
			return Segment{Start: msg.Start, End: msg.End, Text: msg.Text}, nil
		}
		s.logger.Debug("ignoring helper message", "type", msg.Type)
	}
}

// nextMessage returns the next JSON line. At end of output it reaps the
// process and returns io.EOF on a clean exit.
func (s *helperStream) nextMessage() (helperMessage, error) {
	if s.done {
		return helperMessage{}, io.EOF
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return parseHelperLine(line)
	}

	s.done = true
	scanErr := s.scanner.Err()
	if err := s.wait(); err != nil {
		return helperMessage{}, err
	}
	if scanErr != nil {
		return helperMessage{}, fmt.Errorf("reading helper output: %w", scanErr)
	}
	return helperMessage{}, io.EOF
}

func (s *helperStream) wait() error {
	err := s.cmd.Wait()
	if err == nil {
		return nil
	}
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	detail := strings.TrimSpace(s.stderr.String())
	if strings.Contains(detail, "No module named 'faster_whisper'") {
		if availErr := s.engine.Available(context.WithoutCancel(s.ctx)); availErr != nil {
			return availErr
		}
	}
	if detail == "" {
		return fmt.Errorf("faster-whisper failed: %w", err)
	}
	return fmt.Errorf("faster-whisper failed: %s", lastLines(detail, 5))
}

func (s *helperStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.cleanup()

	if !s.done {
		s.done = true
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.cmd.Wait()
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

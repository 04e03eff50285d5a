package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// ASRModel represents a ggml model for the whisper.cpp engine.
type ASRModel struct {
	Name        string // Model size (e.g., "small", "large-v3")
	FileName    string // ggml file name inside the models directory
	Size        string // Human-readable size
	Description string
	URL         string
}

// ErrUnknownModel is returned for names missing from ASRModels.
var ErrUnknownModel = errors.New("unknown model")

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// ASRModels lists available models.
var ASRModels = []ASRModel{
	{Name: "tiny", FileName: "ggml-tiny.bin", Size: "78MB", Description: "Fastest, basic quality"},
	{Name: "base", FileName: "ggml-base.bin", Size: "148MB", Description: "Good for quick drafts"},
	{Name: "small", FileName: "ggml-small.bin", Size: "488MB", Description: "Balanced for most uses"},
	{Name: "medium", FileName: "ggml-medium.bin", Size: "1.5GB", Description: "Higher accuracy"},
	{Name: "large-v3", FileName: "ggml-large-v3.bin", Size: "3.1GB", Description: "Highest accuracy, slowest"},
	{Name: "large-v3-turbo", FileName: "ggml-large-v3-turbo.bin", Size: "1.6GB", Description: "Near large-v3 quality, much faster"},
}

func init() {
	for i := range ASRModels {
		ASRModels[i].URL = modelBaseURL + ASRModels[i].FileName
	}
}

// GetModel returns a model by name.
func GetModel(name string) *ASRModel {
	for _, m := range ASRModels {
		if m.Name == name {
			return &m
		}
	}
	return nil
}

// ModelManager handles model downloads and caching.
type ModelManager struct {
	modelsDir string
	fs        afero.Fs
	client    *http.Client
}

// NewModelManager creates a model manager over the OS filesystem.
func NewModelManager(modelsDir string) *ModelManager {
	return &ModelManager{
		modelsDir: modelsDir,
		fs:        afero.NewOsFs(),
		client:    http.DefaultClient,
	}
}

// Dir returns the models directory.
func (m *ModelManager) Dir() string { return m.modelsDir }

// ModelPath returns the path to a model file.
func (m *ModelManager) ModelPath(modelName string) string {
	model := GetModel(modelName)
	if model == nil {
		return filepath.Join(m.modelsDir, modelName)
	}
	return filepath.Join(m.modelsDir, model.FileName)
}

// IsModelDownloaded checks if a model is already downloaded.
func (m *ModelManager) IsModelDownloaded(modelName string) bool {
	info, err := m.fs.Stat(m.ModelPath(modelName))
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// ListDownloadedModels returns the registry models present on disk.
func (m *ModelManager) ListDownloadedModels() []ASRModel {
	var out []ASRModel
	for _, model := range ASRModels {
		if m.IsModelDownloaded(model.Name) {
			out = append(out, model)
		}
	}
	return out
}

// Resolve maps a model name or ggml file path to a loadable file.
func (m *ModelManager) Resolve(nameOrPath string) (string, error) {
	if strings.ContainsRune(nameOrPath, os.PathSeparator) || strings.HasSuffix(nameOrPath, ".bin") {
		if _, err := m.fs.Stat(nameOrPath); err != nil {
			return "", fmt.Errorf("model file not found: %s", nameOrPath)
		}
		return nameOrPath, nil
	}

	if GetModel(nameOrPath) == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, nameOrPath)
	}
	if !m.IsModelDownloaded(nameOrPath) {
		return "", fmt.Errorf("model %s is not downloaded, run 'voicetext models download %s'", nameOrPath, nameOrPath)
	}
	return m.ModelPath(nameOrPath), nil
}

// ProgressFunc is called as download bytes arrive. total is -1 when the
// server sends no Content-Length.
type ProgressFunc func(current, total int64)

// Download fetches a registry model, reporting to progress when non-nil.
func (m *ModelManager) Download(ctx context.Context, modelName string, progress ProgressFunc) (string, error) {
	model := GetModel(modelName)
	if model == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, modelName)
	}
	return m.DownloadFromURL(ctx, modelName, model.URL, progress)
}

// DownloadFromURL downloads a model from a custom URL. The file is written
// to a temporary name and renamed into place once complete.
func (m *ModelManager) DownloadFromURL(ctx context.Context, modelName, url string, progress ProgressFunc) (string, error) {
	if GetModel(modelName) == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, modelName)
	}

	if err := m.fs.MkdirAll(m.modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	target := m.ModelPath(modelName)
	tmp := target + ".tmp"

	file, err := m.fs.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	var w io.Writer = file
	if progress != nil {
		w = io.MultiWriter(file, &countingWriter{total: resp.ContentLength, report: progress})
	}

	_, copyErr := io.Copy(w, resp.Body)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = m.fs.Remove(tmp)
		return "", fmt.Errorf("download failed: %w", err)
	}

	if err := m.fs.Rename(tmp, target); err != nil {
		_ = m.fs.Remove(tmp)
		return "", fmt.Errorf("failed to move model into place: %w", err)
	}
	return target, nil
}

// RemoveModel deletes a downloaded model.
func (m *ModelManager) RemoveModel(modelName string) error {
	if GetModel(modelName) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownModel, modelName)
	}
	if !m.IsModelDownloaded(modelName) {
		return fmt.Errorf("model %s is not downloaded", modelName)
	}
	return m.fs.Remove(m.ModelPath(modelName))
}

type countingWriter struct {
	current int64
	total   int64
	report  ProgressFunc
}

func (c *countingWriter) Write(b []byte) (int, error) {
	c.current += int64(len(b))
	c.report(c.current, c.total)
	return len(b), nil
}

// TextProgress prints coarse download progress to w every 5%.
func TextProgress(w io.Writer) ProgressFunc {
	lastBucket := -1
	return func(current, total int64) {
		if total <= 0 {
			fmt.Fprintf(w, "\r  Downloaded: %s", humanize.Bytes(uint64(current)))
			return
		}
		percent := int(float64(current) / float64(total) * 100)
		if percent/5 <= lastBucket {
			return
		}
		lastBucket = percent / 5
		fmt.Fprintf(w, "\r  Progress: %d%% (%s / %s)", percent,
			humanize.Bytes(uint64(current)), humanize.Bytes(uint64(total)))
		if current >= total {
			fmt.Fprintln(w)
		}
	}
}

package transcriber

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memManager(dir string) *ModelManager {
	return &ModelManager{modelsDir: dir, fs: afero.NewMemMapFs(), client: http.DefaultClient}
}

func TestGetModel(t *testing.T) {
	m := GetModel("large-v3-turbo")
	require.NotNil(t, m)
	assert.Equal(t, "ggml-large-v3-turbo.bin", m.FileName)
	assert.True(t, strings.HasSuffix(m.URL, "/ggml-large-v3-turbo.bin"))

	assert.Nil(t, GetModel("gigantic"))
}

func TestModelManagerPaths(t *testing.T) {
	mm := memManager("/models")

	assert.Equal(t, filepath.Join("/models", "ggml-small.bin"), mm.ModelPath("small"))
	assert.False(t, mm.IsModelDownloaded("small"))
	assert.Empty(t, mm.ListDownloadedModels())

	require.NoError(t, afero.WriteFile(mm.fs, mm.ModelPath("small"), []byte("ggml"), 0644))
	assert.True(t, mm.IsModelDownloaded("small"))

	listed := mm.ListDownloadedModels()
	require.Len(t, listed, 1)
	assert.Equal(t, "small", listed[0].Name)
}

func TestModelManagerResolve(t *testing.T) {
	mm := memManager("/models")

	_, err := mm.Resolve("tiny")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voicetext models download tiny")

	_, err = mm.Resolve("colossal")
	assert.ErrorIs(t, err, ErrUnknownModel)

	require.NoError(t, afero.WriteFile(mm.fs, mm.ModelPath("tiny"), []byte("ggml"), 0644))
	path, err := mm.Resolve("tiny")
	require.NoError(t, err)
	assert.Equal(t, mm.ModelPath("tiny"), path)

	require.NoError(t, afero.WriteFile(mm.fs, "/elsewhere/custom.bin", []byte("ggml"), 0644))
	path, err = mm.Resolve("/elsewhere/custom.bin")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/custom.bin", path)

	_, err = mm.Resolve("/elsewhere/missing.bin")
	assert.Error(t, err)
}

func TestModelManagerDownload(t *testing.T) {
	payload := bytes.Repeat([]byte("w"), 100*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	mm := memManager("/models")
	var progress bytes.Buffer

	path, err := mm.DownloadFromURL(context.Background(), "base", srv.URL+"/ggml-base.bin", TextProgress(&progress))
	require.NoError(t, err)
	assert.Equal(t, mm.ModelPath("base"), path)

	data, err := afero.ReadFile(mm.fs, path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Contains(t, progress.String(), "100%")
	assert.Contains(t, progress.String(), "(102 kB / 102 kB)")

	exists, err := afero.Exists(mm.fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestModelManagerDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	mm := memManager("/models")
	_, err := mm.DownloadFromURL(context.Background(), "base", srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.False(t, mm.IsModelDownloaded("base"))
}

func TestModelManagerDownloadUnknown(t *testing.T) {
	_, err := memManager("/models").Download(context.Background(), "huge", nil)
	assert.Error(t, err)
}

func TestModelManagerRemove(t *testing.T) {
	mm := memManager("/models")

	assert.Error(t, mm.RemoveModel("tiny"))

	require.NoError(t, afero.WriteFile(mm.fs, mm.ModelPath("tiny"), []byte("ggml"), 0644))
	require.NoError(t, mm.RemoveModel("tiny"))
	assert.False(t, mm.IsModelDownloaded("tiny"))
}

func TestTextProgress(t *testing.T) {
	var out bytes.Buffer
	report := TextProgress(&out)

	report(1, 100)
	report(2, 100)
	report(5, 100)
	report(100, 100)
	assert.Equal(t, "\r  Progress: 1% (1 B / 100 B)\r  Progress: 5% (5 B / 100 B)\r  Progress: 100% (100 B / 100 B)\n", out.String())

	out.Reset()
	TextProgress(&out)(2048, -1)
	assert.Equal(t, "\r  Downloaded: 2.0 kB", out.String())
}

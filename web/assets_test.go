package web

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAssets_Embedded(t *testing.T) {
	assets := GetAssets(filepath.Join(t.TempDir(), "missing"))
	require.NotNil(t, assets)

	file, err := assets.Open(IndexFile)
	require.NoError(t, err)
	defer file.Close()

	stat, err := file.Stat()
	require.NoError(t, err)
	assert.False(t, stat.IsDir())

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<title>teamtrack</title>")
	assert.Contains(t, string(body), "/drill/live")
	assert.Contains(t, string(body), "/focus?limit=5", "drill tab lists recent scores")
}

func TestGetAssetsWithBase_PrefersLiveDir(t *testing.T) {
	base := t.TempDir()
	dist := filepath.Join(base, "web", "dist")
	require.NoError(t, os.MkdirAll(dist, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dist, IndexFile), []byte("live build"), 0o644))

	data, err := fs.ReadFile(GetAssetsWithBase(base), IndexFile)
	require.NoError(t, err)
	assert.Equal(t, "live build", string(data))
}

func TestGetAssetsWithBase_FallsBackToEmbedded(t *testing.T) {
	data, err := fs.ReadFile(GetAssetsWithBase("/nonexistent/path"), IndexFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "teamtrack")
}

func TestAssetsFSInterface(t *testing.T) {
	var fileCount int
	err := fs.WalkDir(GetAssets("/nonexistent/path"), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			fileCount++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, fileCount)
}

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.model", "text-embedding-3-small"))

	val, ok := store.Get("embedding.model")
	assert.True(t, ok)
	assert.Equal(t, "text-embedding-3-small", val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("ingest.chunk_size", 1500))
	require.NoError(t, store.Set("ingest.dry_run", true))
	require.NoError(t, store.Set("ingest.sources", []string{"act", "debate"}))

	assert.Equal(t, 1500, store.GetInt("ingest.chunk_size"))
	assert.True(t, store.GetBool("ingest.dry_run"))
	assert.Equal(t, []string{"act", "debate"}, store.GetStringSlice("ingest.sources"))

	// Wrong types fall back to zero values
	assert.Equal(t, "", store.GetString("ingest.chunk_size"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_PersistsAcrossLoads(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("database.url", "postgres://localhost/lexcorpus"))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/lexcorpus", reloaded.GetString("database.url"))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[embedding]\nmodel = \"text-embedding-3-large\"\nrequests_per_second = 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-large", store.GetString(KeyEmbeddingModel))
	assert.Equal(t, 4, store.GetInt(KeyRequestsPerSec))
}

func TestConfigStore_EnvOverride(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyDatabaseURL, "postgres://file/value"))

	t.Setenv("DATABASE_URL", "postgres://env/value")
	assert.Equal(t, "postgres://env/value", store.GetString(KeyDatabaseURL))

	t.Setenv("DATABASE_URL", "")
	assert.Equal(t, "postgres://file/value", store.GetString(KeyDatabaseURL))
}

func TestConfigStore_RestrictedPermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyOpenAIAPIKey, "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sridattasai18/repologic/internal/index"
	"github.com/Sridattasai18/repologic/internal/storage"
	"github.com/Sridattasai18/repologic/pkg/types"
)

func testChunks() []types.Chunk {
	return []types.Chunk{
		{
			RepoID: "myrepo", FilePath: "auth.py", ChunkIndex: 0,
			StartLine: 1, EndLine: 20, Language: "python",
			Text:          "def login():\n    pass",
			ContextHeader: "File: auth.py\nLanguage: python",
			Embedding:     []float32{0.9, 0.1, 0.05},
		},
		{
			RepoID: "myrepo", FilePath: "auth.py", ChunkIndex: 1,
			StartLine: 18, EndLine: 40, Language: "python",
			Text:          "def logout():\n    pass",
			ContextHeader: "File: auth.py\nLanguage: python",
			Embedding:     []float32{0.1, 0.8, 0.2},
		},
		{
			RepoID: "myrepo", FilePath: "db.py", ChunkIndex: 0,
			StartLine: 1, EndLine: 15, Language: "python",
			Text:          "def connect():\n    return conn",
			ContextHeader: "File: db.py\nLanguage: python",
			Embedding:     []float32{0.2, 0.2, 0.95},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	original, err := index.Build("myrepo", testChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, original))

	loaded, err := store.Load(ctx, "myrepo")
	require.NoError(t, err)

	assert.Equal(t, original.RepoID(), loaded.RepoID())
	assert.Equal(t, original.Len(), loaded.Len())
	assert.Equal(t, original.Dimension(), loaded.Dimension())
	assert.Equal(t, original.Chunks(), loaded.Chunks())
	assert.True(t, original.CreatedAt().Equal(loaded.CreatedAt()))

	// The reloaded index must answer queries identically.
	query := []float32{1, 0, 0}
	wantHits, err := original.Search(query, 3)
	require.NoError(t, err)
	gotHits, err := loaded.Search(query, 3)
	require.NoError(t, err)
	assert.Equal(t, wantHits, gotHits)
}

func TestLoad_MissingArtifact(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "never-indexed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIndexUnavailable),
		"missing artifact should map to ErrIndexUnavailable, got %v", err)
}

func TestLoad_CorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.db"), []byte("not a database"), 0o644))

	_, err = store.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIndexUnavailable),
		"corrupt artifact should map to ErrIndexUnavailable, got %v", err)
}

func TestLoad_RepoMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	require.NoError(t, err)

	idx, err := index.Build("myrepo", testChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))

	// An artifact renamed to another repo ID must be rejected on load.
	require.NoError(t, os.Rename(filepath.Join(dir, "myrepo.db"), filepath.Join(dir, "imposter.db")))
	_, err = store.Load(ctx, "imposter")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIndexUnavailable))
}

func TestSave_ReplacesExistingArtifact(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := index.Build("myrepo", testChunks()[:1])
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, first))

	second, err := index.Build("myrepo", testChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx, "myrepo")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
}

func TestSave_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	empty, err := index.Build("empty", nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, empty))

	loaded, err := store.Load(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())

	hits, err := loaded.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestArtifactPath_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	for _, repoID := range []string{"", "../evil", "a/b", `a\b`, "a..b.."} {
		_, err := store.Load(ctx, repoID)
		require.Error(t, err, "repoID %q", repoID)
		assert.True(t, errors.Is(err, storage.ErrInvalidRepoID), "repoID %q: %v", repoID, err)
	}
}

func TestHasDeleteList(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Has("myrepo"))

	idx, err := index.Build("myrepo", testChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))
	assert.True(t, store.Has("myrepo"))

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"myrepo"}, ids)

	require.NoError(t, store.Delete("myrepo"))
	assert.False(t, store.Has("myrepo"))
	require.NoError(t, store.Delete("myrepo"), "deleting a missing artifact is not an error")
}

func TestVectorSerialization(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75, 0}
	blob := storage.SerializeVector(vec)
	assert.Len(t, blob, len(vec)*4)
	assert.Equal(t, vec, storage.DeserializeVector(blob))

	assert.Empty(t, storage.SerializeVector(nil))
	assert.Empty(t, storage.DeserializeVector(nil))
}

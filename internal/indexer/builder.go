package indexer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sridattasai18/repologic/internal/chunker"
	"github.com/Sridattasai18/repologic/internal/embedder"
	"github.com/Sridattasai18/repologic/internal/index"
	"github.com/Sridattasai18/repologic/internal/language"
	"github.com/Sridattasai18/repologic/internal/storage"
	"github.com/Sridattasai18/repologic/pkg/types"
)

const (
	// DefaultWorkers is the number of concurrent file chunkers.
	DefaultWorkers = 4

	// DefaultMaxFileSize is the per-file size cap. Larger files are
	// skipped rather than chunked.
	DefaultMaxFileSize = 1 << 20
)

// ignoredDirs are directory names pruned during file discovery.
var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"target":       true,
	".idea":        true,
	".vscode":      true,
}

// SkipRecord notes a file excluded from the index and why.
type SkipRecord struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Statistics summarizes one build.
type Statistics struct {
	RepoID        string        `json:"repo_id"`
	FilesScanned  int           `json:"files_scanned"`
	FilesChunked  int           `json:"files_chunked"`
	FilesSkipped  int           `json:"files_skipped"`
	ChunksCreated int           `json:"chunks_created"`
	Dimension     int           `json:"dimension"`
	Duration      time.Duration `json:"duration"`
	Skipped       []SkipRecord  `json:"skipped,omitempty"`

	// Joined is true when this call attached to a build that was
	// already running for the same repository.
	Joined bool `json:"joined,omitempty"`
}

// Options tunes a Builder. Zero values take defaults.
type Options struct {
	Workers     int
	MaxFileSize int64
}

// Builder runs the full indexing pipeline for a repository: discover
// files, chunk them, embed the chunks, build the in-memory index,
// persist it, and publish it for retrieval. At most one build runs per
// repository at a time; concurrent callers join the in-flight build.
type Builder struct {
	chunker  *chunker.Chunker
	embedder *embedder.Client
	store    *storage.Store
	registry *index.Registry
	log      *zap.Logger

	workers     int
	maxFileSize int64
}

// New creates a Builder. The store may be nil for in-memory-only use.
func New(ch *chunker.Chunker, emb *embedder.Client, store *storage.Store, registry *index.Registry, log *zap.Logger, opts Options) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &Builder{
		chunker:     ch,
		embedder:    emb,
		store:       store,
		registry:    registry,
		log:         log,
		workers:     opts.Workers,
		maxFileSize: opts.MaxFileSize,
	}
}

// BuildRepo indexes the repository rooted at rootPath under repoID.
// On success the new index is persisted and published atomically; a
// failed build leaves any previously published index untouched. A call
// made while a build for the same repoID is in flight waits for that
// build and returns its outcome.
func (b *Builder) BuildRepo(ctx context.Context, repoID, rootPath string) (*Statistics, error) {
	if repoID == "" {
		return nil, fmt.Errorf("repo ID must not be empty")
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("repository path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path %s is not a directory", rootPath)
	}

	var stats *Statistics
	idx, err := b.registry.BuildOnce(repoID, func() (*index.Index, error) {
		built, s, buildErr := b.build(ctx, repoID, rootPath)
		stats = s
		return built, buildErr
	})
	if err != nil {
		return nil, err
	}
	if stats == nil {
		// Joined a build started by another caller.
		stats = &Statistics{
			RepoID:        repoID,
			ChunksCreated: idx.Len(),
			Dimension:     idx.Dimension(),
			Joined:        true,
		}
	}
	return stats, nil
}

func (b *Builder) build(ctx context.Context, repoID, rootPath string) (*index.Index, *Statistics, error) {
	start := time.Now()
	stats := &Statistics{RepoID: repoID}

	files, err := b.discover(rootPath, stats)
	if err != nil {
		return nil, stats, fmt.Errorf("scanning %s: %w", rootPath, err)
	}
	stats.FilesScanned = len(files) + stats.FilesSkipped

	chunks, err := b.chunkFiles(ctx, repoID, rootPath, files, stats)
	if err != nil {
		return nil, stats, err
	}
	stats.ChunksCreated = len(chunks)

	if err := b.embedChunks(ctx, chunks); err != nil {
		return nil, stats, err
	}

	idx, err := index.Build(repoID, chunks)
	if err != nil {
		return nil, stats, fmt.Errorf("building index: %w", err)
	}

	if b.store != nil {
		if err := b.store.Save(ctx, idx); err != nil {
			return nil, stats, fmt.Errorf("persisting index: %w", err)
		}
	}

	stats.Dimension = idx.Dimension()
	stats.Duration = time.Since(start)
	b.log.Info("repository indexed",
		zap.String("repo_id", repoID),
		zap.Int("files", stats.FilesChunked),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("chunks", stats.ChunksCreated),
		zap.Duration("duration", stats.Duration))
	return idx, stats, nil
}

// discover walks the tree and returns indexable files as paths
// relative to root, in lexical order.
func (b *Builder) discover(root string, stats *Statistics) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if ignoredDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !language.Indexable(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			stats.skip(rel, fmt.Sprintf("stat failed: %v", err))
			return nil
		}
		if info.Size() > b.maxFileSize {
			stats.skip(rel, fmt.Sprintf("file too large (%d bytes)", info.Size()))
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// chunkFiles reads and chunks files concurrently. Per-file failures
// are recorded as skips so one unreadable file cannot abort a build.
// Chunk order is deterministic regardless of worker scheduling.
func (b *Builder) chunkFiles(ctx context.Context, repoID, root string, files []string, stats *Statistics) ([]types.Chunk, error) {
	perFile := make([][]types.Chunk, len(files))
	skips := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				skips[i] = fmt.Sprintf("read failed: %v", err)
				return nil
			}
			if bytes.IndexByte(content, 0) >= 0 {
				skips[i] = "binary content"
				return nil
			}
			if !utf8.Valid(content) {
				skips[i] = "invalid UTF-8"
				return nil
			}
			lang := language.Classify(rel)
			perFile[i] = b.chunker.ChunkText(repoID, rel, lang, string(content))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []types.Chunk
	for i, rel := range files {
		if skips[i] != "" {
			stats.skip(rel, skips[i])
			continue
		}
		if len(perFile[i]) > 0 {
			stats.FilesChunked++
			chunks = append(chunks, perFile[i]...)
		}
	}
	return chunks, nil
}

// embedChunks fills in embeddings for every chunk, or fails the build.
func (b *Builder) embedChunks(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].EmbeddingText()
	}
	vectors, err := b.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

// Remove evicts a repository's index from memory and deletes its
// persisted artifact.
func (b *Builder) Remove(repoID string) error {
	b.registry.Evict(repoID)
	if b.store == nil {
		return nil
	}
	return b.store.Delete(repoID)
}

func (s *Statistics) skip(path, reason string) {
	s.FilesSkipped++
	s.Skipped = append(s.Skipped, SkipRecord{Path: path, Reason: reason})
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sridattasai18/repologic/internal/index"
	"github.com/Sridattasai18/repologic/pkg/types"
)

// ErrInvalidRepoID is returned for repo IDs that cannot name an artifact.
var ErrInvalidRepoID = errors.New("invalid repo ID")

// Store persists repository indices, one SQLite file per repo ID under a
// root directory. Each artifact holds the chunk-metadata table and the
// embedding vectors, loadable independently of the build process.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) artifactPath(repoID string) (string, error) {
	if repoID == "" || strings.ContainsAny(repoID, `/\`) || strings.Contains(repoID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepoID, repoID)
	}
	return filepath.Join(s.root, repoID+".db"), nil
}

// Save persists an index atomically: the artifact is written to a
// temporary file and renamed into place, so a concurrent Load never
// observes a partially written index.
func (s *Store) Save(ctx context.Context, idx *index.Index) error {
	path, err := s.artifactPath(idx.RepoID())
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := s.writeArtifact(ctx, tmp, idx); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish index artifact: %w", err)
	}
	return nil
}

func (s *Store) writeArtifact(ctx context.Context, path string, idx *index.Index) error {
	db, err := openDatabase(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_meta (repo_id, created_at, dimension, chunk_count) VALUES (?, ?, ?, ?)`,
		idx.RepoID(), idx.CreatedAt().Format(time.RFC3339Nano), idx.Dimension(), idx.Len(),
	); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, file_path, chunk_index, language, start_line, end_line, text, context_header, vector)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range idx.Chunks() {
		if _, err := stmt.ExecContext(ctx,
			i, c.FilePath, c.ChunkIndex, string(c.Language),
			c.StartLine, c.EndLine, c.Text, c.ContextHeader,
			serializeVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("write chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit artifact: %w", err)
	}
	return nil
}

// Load reads the persisted index for repoID. A missing or corrupt artifact
// returns types.ErrIndexUnavailable: the caller should rebuild, the
// process is unharmed.
func (s *Store) Load(ctx context.Context, repoID string) (*index.Index, error) {
	path, err := s.artifactPath(repoID)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrIndexUnavailable, repoID, err)
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrIndexUnavailable, repoID, err)
	}
	defer func() { _ = db.Close() }()

	idx, err := readArtifact(ctx, db, repoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrIndexUnavailable, repoID, err)
	}
	return idx, nil
}

func readArtifact(ctx context.Context, db *sql.DB, repoID string) (*index.Index, error) {
	var storedRepo, createdAt string
	var dimension, chunkCount int
	err := db.QueryRowContext(ctx,
		`SELECT repo_id, created_at, dimension, chunk_count FROM index_meta LIMIT 1`,
	).Scan(&storedRepo, &createdAt, &dimension, &chunkCount)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	if storedRepo != repoID {
		return nil, fmt.Errorf("artifact repo mismatch: contains %q", storedRepo)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT file_path, chunk_index, language, start_line, end_line, text, context_header, vector
		 FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]types.Chunk, 0, chunkCount)
	for rows.Next() {
		var c types.Chunk
		var lang string
		var blob []byte
		if err := rows.Scan(&c.FilePath, &c.ChunkIndex, &lang,
			&c.StartLine, &c.EndLine, &c.Text, &c.ContextHeader, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.RepoID = repoID
		c.Language = types.Language(lang)
		c.Embedding = deserializeVector(blob)
		if len(c.Embedding) != dimension {
			return nil, fmt.Errorf("chunk %s[%d] vector has %d values, meta says %d",
				c.FilePath, c.ChunkIndex, len(c.Embedding), dimension)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(chunks) != chunkCount {
		return nil, fmt.Errorf("artifact has %d chunks, meta says %d", len(chunks), chunkCount)
	}

	return index.BuildAt(repoID, created, chunks)
}

// Has reports whether a persisted artifact exists for repoID.
func (s *Store) Has(repoID string) bool {
	path, err := s.artifactPath(repoID)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes the persisted artifact for repoID, if present.
func (s *Store) Delete(repoID string) error {
	path, err := s.artifactPath(repoID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete index artifact: %w", err)
	}
	return nil
}

// List returns the repo IDs with persisted artifacts.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list index dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".db") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".db"))
	}
	return ids, nil
}

const schema = `
CREATE TABLE index_meta (
	repo_id     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	dimension   INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL
);

CREATE TABLE chunks (
	id             INTEGER PRIMARY KEY,
	file_path      TEXT NOT NULL,
	chunk_index    INTEGER NOT NULL,
	language       TEXT NOT NULL,
	start_line     INTEGER NOT NULL,
	end_line       INTEGER NOT NULL,
	text           TEXT NOT NULL,
	context_header TEXT NOT NULL,
	vector         BLOB NOT NULL
);

CREATE INDEX idx_chunks_file ON chunks(file_path, chunk_index);
`

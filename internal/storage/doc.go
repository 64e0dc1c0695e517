// Package storage persists repository indices to durable SQLite artifacts.
//
// Each repository snapshot gets one addressable artifact (<repo_id>.db)
// under the store's root directory, holding the chunk-metadata table and
// the embedding vectors as little-endian float32 blobs. Artifacts are
// loadable independently of the build process.
//
// Writes are atomic from the reader's perspective: Save writes to a
// temporary file and renames it into place, so Load never observes a
// partially written artifact. Load maps every missing/corrupt condition to
// types.ErrIndexUnavailable, a recoverable signal telling the caller to
// rebuild.
//
// Two SQLite drivers are supported via build tags: modernc.org/sqlite
// (pure Go, default) and mattn/go-sqlite3 (cgo_sqlite tag).
package storage

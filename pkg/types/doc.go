// Package types provides shared type definitions for the RepoLogic pipeline.
//
// This package defines the domain types used across components: chunks,
// retrieval results, and the shared error taxonomy.
//
// # Core Types
//
// Chunk represents a bounded unit of repository content produced by the
// chunker and embedded for vector search:
//
//	chunk := &types.Chunk{
//	    RepoID:     "owner-repo",
//	    FilePath:   "src/auth.py",
//	    ChunkIndex: 0,
//	    StartLine:  1,
//	    EndLine:    42,
//	    Language:   "python",
//	    Text:       content,
//	}
//
// A chunk is uniquely identified by (RepoID, FilePath, ChunkIndex). Line
// ranges are 1-based and inclusive; consecutive chunks of a file may overlap
// by the configured overlap window but never skip lines.
//
// RetrievalResult pairs a chunk with a per-query similarity score and a
// source kind tag (selected vs related). Results are produced fresh per
// query and never persisted.
//
// # Errors
//
// The error variables in this package form the pipeline's failure taxonomy.
// Components wrap them with fmt.Errorf("%w: ...") so callers can branch on
// errors.Is:
//
//	if errors.Is(err, types.ErrIndexUnavailable) {
//	    // trigger a rebuild
//	}
package types

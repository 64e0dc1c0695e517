package types

// SourceKind tags how a retrieval result entered the result set.
type SourceKind string

const (
	// SourceSelected marks the chunk(s) covering the user's own selection.
	SourceSelected SourceKind = "selected"
	// SourceRelated marks chunks surfaced by vector similarity.
	SourceRelated SourceKind = "related"
)

// SelectionChunkIndex is the chunk index carried by the synthetic result
// standing in for a user selection. Real chunks are 0-based, so the
// sentinel can never collide with an indexed chunk's key.
const SelectionChunkIndex = -1

// RetrievalResult is a chunk plus per-query relevance information.
// Results are produced fresh for every query and never persisted.
type RetrievalResult struct {
	Chunk  Chunk
	Score  float64 // Cosine similarity, higher = more relevant
	Source SourceKind
}

// Validate checks if the retrieval result is well formed.
func (r *RetrievalResult) Validate() error {
	if r.Source != SourceSelected && r.Source != SourceRelated {
		return ErrInvalidSourceKind
	}

	if r.Source == SourceRelated && (r.Score < -1 || r.Score > 1) {
		return ErrInvalidScore
	}

	if r.Source == SourceSelected && r.Chunk.ChunkIndex == SelectionChunkIndex {
		c := r.Chunk
		c.ChunkIndex = 0
		return c.Validate()
	}
	return r.Chunk.Validate()
}

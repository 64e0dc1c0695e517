package index

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Sridattasai18/repologic/pkg/types"
)

// Hit is a single nearest-neighbor result: the chunk's position in the
// index plus its similarity score.
type Hit struct {
	ChunkID int
	Score   float64
}

// Index is the searchable structure over one repository snapshot's chunk
// embeddings. It is immutable once built, so concurrent Search calls need
// no locking.
type Index struct {
	repoID    string
	createdAt time.Time
	dim       int
	chunks    []types.Chunk
	vectors   [][]float32 // L2-normalized copies of the chunk embeddings
}

// Build constructs an index over chunks that already carry embeddings.
// All embeddings must share one dimension; mismatches are rejected.
// Zero chunks is a valid, searchable (empty) index.
func Build(repoID string, chunks []types.Chunk) (*Index, error) {
	return build(repoID, time.Now().UTC(), chunks)
}

// BuildAt is Build with an explicit creation time, used when loading a
// persisted index so the round trip preserves metadata.
func BuildAt(repoID string, createdAt time.Time, chunks []types.Chunk) (*Index, error) {
	return build(repoID, createdAt, chunks)
}

func build(repoID string, createdAt time.Time, chunks []types.Chunk) (*Index, error) {
	idx := &Index{
		repoID:    repoID,
		createdAt: createdAt,
		chunks:    make([]types.Chunk, len(chunks)),
		vectors:   make([][]float32, len(chunks)),
	}
	copy(idx.chunks, chunks)

	for i := range idx.chunks {
		emb := idx.chunks[i].Embedding
		if len(emb) == 0 {
			return nil, fmt.Errorf("chunk %s[%d] has no embedding",
				idx.chunks[i].FilePath, idx.chunks[i].ChunkIndex)
		}
		if idx.dim == 0 {
			idx.dim = len(emb)
		}
		if len(emb) != idx.dim {
			return nil, fmt.Errorf("embedding dimension mismatch: chunk %s[%d] has %d, index has %d",
				idx.chunks[i].FilePath, idx.chunks[i].ChunkIndex, len(emb), idx.dim)
		}
		idx.vectors[i] = normalize(emb)
	}

	return idx, nil
}

// Search returns up to k nearest neighbors by cosine similarity (inner
// product over normalized vectors), in descending score order. Ties break
// by ascending chunk index, then file path, for determinism. An empty
// index returns an empty result, never an error.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(x.chunks) == 0 || k <= 0 {
		return []Hit{}, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, index has %d", len(query), x.dim)
	}

	q := normalize(query)
	hits := make([]Hit, len(x.vectors))
	for i, vec := range x.vectors {
		var dot float64
		for j := range vec {
			dot += float64(q[j]) * float64(vec[j])
		}
		hits[i] = Hit{ChunkID: i, Score: dot}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		ci, cj := &x.chunks[hits[i].ChunkID], &x.chunks[hits[j].ChunkID]
		if ci.ChunkIndex != cj.ChunkIndex {
			return ci.ChunkIndex < cj.ChunkIndex
		}
		return ci.FilePath < cj.FilePath
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Chunk returns the chunk at the given index position.
func (x *Index) Chunk(id int) types.Chunk {
	return x.chunks[id]
}

// Chunks returns the full ordered chunk collection.
func (x *Index) Chunks() []types.Chunk {
	out := make([]types.Chunk, len(x.chunks))
	copy(out, x.chunks)
	return out
}

// ChunksInRange returns the chunks of filePath whose line ranges overlap
// [startLine, endLine], in chunk order.
func (x *Index) ChunksInRange(filePath string, startLine, endLine int) []types.Chunk {
	var out []types.Chunk
	for i := range x.chunks {
		c := &x.chunks[i]
		if c.FilePath != filePath {
			continue
		}
		if c.StartLine <= endLine && c.EndLine >= startLine {
			out = append(out, *c)
		}
	}
	return out
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Dimension returns the embedding dimension, 0 for an empty index.
func (x *Index) Dimension() int { return x.dim }

// RepoID returns the owning repository snapshot identifier.
func (x *Index) RepoID() string { return x.repoID }

// CreatedAt returns when the index was built.
func (x *Index) CreatedAt() time.Time { return x.createdAt }

// normalize returns a unit-length copy of v. Zero vectors are returned
// as-is rather than dividing by zero.
func normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	norm := float32(math.Sqrt(sum))
	for i, val := range v {
		out[i] = val / norm
	}
	return out
}

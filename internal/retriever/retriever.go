package retriever

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Sridattasai18/repologic/internal/embedder"
	"github.com/Sridattasai18/repologic/internal/index"
	"github.com/Sridattasai18/repologic/internal/storage"
	"github.com/Sridattasai18/repologic/pkg/types"
)

// Request defaults and bounds
const (
	DefaultLimit        = 5
	MaxLimit            = 50
	DefaultRelatedLimit = 3
	DefaultMinScore     = 0.25
	DefaultTimeout      = 10 * time.Second

	queryCacheSize = 1000
	queryCacheTTL  = time.Hour
)

// Validation errors
var (
	ErrEmptyQuestion  = errors.New("question cannot be empty")
	ErrEmptySelection = errors.New("selected text cannot be empty")
	ErrInvalidRange   = errors.New("invalid line range")
)

// QuestionRequest asks for the chunks most relevant to a free-text question.
type QuestionRequest struct {
	RepoID   string
	Question string
	Limit    int     // Max results; default 5
	MinScore float64 // Results scoring below this are dropped; 0 keeps all, negative means unset (0.25)
}

// SelectionRequest asks for context around a selected code span.
type SelectionRequest struct {
	RepoID       string
	FilePath     string
	StartLine    int // 1-based, inclusive
	EndLine      int
	SelectedText string
	RelatedLimit int // Max related results beyond the selection; 0 means selection only, negative means unset (3)
}

// Response carries ranked, deduplicated retrieval results.
type Response struct {
	Results  []types.RetrievalResult
	Duration time.Duration
	CacheHit bool
}

// cacheEntry is a cached result set with expiration time.
type cacheEntry struct {
	results   []types.RetrievalResult
	expiresAt time.Time
}

// Retriever answers selection and question queries against built indices.
// It only reads through the index search interface and never mutates
// index state, so calls with identical inputs against an unchanged index
// are idempotent.
type Retriever struct {
	registry *index.Registry
	store    *storage.Store
	embedder *embedder.Client
	log      *zap.Logger
	timeout  time.Duration

	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.Mutex
}

// New creates a Retriever. The store may be nil, in which case only
// registry-resident indices are queryable.
func New(registry *index.Registry, store *storage.Store, emb *embedder.Client, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[[32]byte, *cacheEntry](queryCacheSize)
	if err != nil {
		// Only possible with a non-positive size
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}
	return &Retriever{
		registry: registry,
		store:    store,
		embedder: emb,
		log:      log,
		timeout:  DefaultTimeout,
		cache:    cache,
	}
}

// SetTimeout overrides the bound applied to embedding calls.
func (r *Retriever) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// AskQuestion embeds a free-text question, searches the repository index,
// filters results below the minimum relevance threshold, and returns them
// ranked by score. Zero matches is a valid, empty outcome, not an error.
func (r *Retriever) AskQuestion(ctx context.Context, req QuestionRequest) (*Response, error) {
	start := time.Now()
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	applyQuestionDefaults(&req)

	idx, err := r.getIndex(ctx, req.RepoID)
	if err != nil {
		return nil, err
	}
	if idx.Len() == 0 {
		return &Response{Results: []types.RetrievalResult{}, Duration: time.Since(start)}, nil
	}

	key := questionCacheKey(idx, req)
	if results, ok := r.checkCache(key); ok {
		return &Response{Results: results, Duration: time.Since(start), CacheHit: true}, nil
	}

	queryVec, err := r.embedQuery(ctx, req.Question)
	if err != nil {
		return nil, err
	}

	hits, err := idx.Search(queryVec, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]types.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < req.MinScore {
			continue
		}
		results = append(results, types.RetrievalResult{
			Chunk:  idx.Chunk(hit.ChunkID),
			Score:  hit.Score,
			Source: types.SourceRelated,
		})
	}

	r.storeCache(key, results)
	r.log.Debug("question retrieval complete",
		zap.String("repo", req.RepoID),
		zap.Int("results", len(results)),
		zap.Duration("took", time.Since(start)))

	return &Response{Results: results, Duration: time.Since(start)}, nil
}

// ExplainSelection returns the selection itself as the top result, then up
// to RelatedLimit semantically related chunks. Chunks wholly contained in
// the selection's line range are excluded, and no (file, chunk_index) pair
// appears twice.
func (r *Retriever) ExplainSelection(ctx context.Context, req SelectionRequest) (*Response, error) {
	start := time.Now()
	if strings.TrimSpace(req.SelectedText) == "" {
		return nil, ErrEmptySelection
	}
	if req.StartLine < 1 || req.EndLine < req.StartLine {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidRange, req.StartLine, req.EndLine)
	}
	if req.RelatedLimit < 0 {
		req.RelatedLimit = DefaultRelatedLimit
	}

	idx, err := r.getIndex(ctx, req.RepoID)
	if err != nil {
		return nil, err
	}

	results := []types.RetrievalResult{selectionResult(req)}
	if idx.Len() == 0 || req.RelatedLimit == 0 {
		return &Response{Results: results, Duration: time.Since(start)}, nil
	}

	// The selection embeds with its file header, the same enrichment the
	// chunks themselves were embedded with.
	lang := selectionLanguage(idx, req.FilePath)
	queryText := types.BuildContextHeader(req.FilePath, lang) + "\n\n" + req.SelectedText
	queryVec, err := r.embedQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}

	// Over-fetch so exclusion and dedup still leave enough candidates.
	overlapping := idx.ChunksInRange(req.FilePath, req.StartLine, req.EndLine)
	k := req.RelatedLimit + len(overlapping) + 2
	hits, err := idx.Search(queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	seen := make(map[types.Key]bool)
	related := 0
	for _, hit := range hits {
		if related >= req.RelatedLimit {
			break
		}
		chunk := idx.Chunk(hit.ChunkID)
		if containedInSelection(&chunk, req) {
			continue
		}
		if seen[chunk.Key()] {
			continue
		}
		seen[chunk.Key()] = true
		results = append(results, types.RetrievalResult{
			Chunk:  chunk,
			Score:  hit.Score,
			Source: types.SourceRelated,
		})
		related++
	}

	r.log.Debug("selection retrieval complete",
		zap.String("repo", req.RepoID),
		zap.String("file", req.FilePath),
		zap.Int("related", related),
		zap.Duration("took", time.Since(start)))

	return &Response{Results: results, Duration: time.Since(start)}, nil
}

// getIndex resolves the registry-resident index for repoID, falling back
// to the persisted artifact.
func (r *Retriever) getIndex(ctx context.Context, repoID string) (*index.Index, error) {
	if idx, ok := r.registry.Get(repoID); ok {
		return idx, nil
	}
	if r.store == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrNotIndexed, repoID)
	}

	idx, err := r.store.Load(ctx, repoID)
	if err != nil {
		return nil, err
	}
	r.registry.Put(idx)
	return idx, nil
}

// embedQuery embeds under the retrieval timeout, failing closed instead of
// blocking indefinitely on an unresponsive provider.
func (r *Retriever) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vec, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: embedding provider unresponsive: %v", types.ErrEmbeddingFailed, err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

// selectionResult builds the synthetic top result representing the user's
// own selection. Its score is maximal by convention, and its chunk index
// is the sentinel so a real chunk of the same file keeps a distinct key.
func selectionResult(req SelectionRequest) types.RetrievalResult {
	return types.RetrievalResult{
		Chunk: types.Chunk{
			RepoID:        req.RepoID,
			FilePath:      req.FilePath,
			ChunkIndex:    types.SelectionChunkIndex,
			StartLine:     req.StartLine,
			EndLine:       req.EndLine,
			Text:          req.SelectedText,
			ContextHeader: types.BuildContextHeader(req.FilePath, types.LangGeneric),
		},
		Score:  1.0,
		Source: types.SourceSelected,
	}
}

// selectionLanguage finds the language tag the index recorded for the file.
func selectionLanguage(idx *index.Index, filePath string) types.Language {
	for _, c := range idx.ChunksInRange(filePath, 1, 1<<30) {
		return c.Language
	}
	return types.LangGeneric
}

// containedInSelection reports whether a chunk lies wholly inside the
// selection's own line range in the same file.
func containedInSelection(c *types.Chunk, req SelectionRequest) bool {
	return c.FilePath == req.FilePath &&
		c.StartLine >= req.StartLine &&
		c.EndLine <= req.EndLine
}

// applyQuestionDefaults fills unset fields. Zero is a valid, explicit
// minimum score; only a negative value means unset.
func applyQuestionDefaults(req *QuestionRequest) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.MinScore < 0 {
		req.MinScore = DefaultMinScore
	}
}

// questionCacheKey hashes the request plus the index build time, so
// entries for a replaced index miss naturally instead of serving stale
// results.
func questionCacheKey(idx *index.Index, req QuestionRequest) [32]byte {
	var b strings.Builder
	b.WriteString(req.RepoID)
	b.WriteString("|")
	b.WriteString(idx.CreatedAt().Format(time.RFC3339Nano))
	b.WriteString("|")
	b.WriteString(req.Question)
	b.WriteString("|")
	fmt.Fprintf(&b, "%d|%.4f", req.Limit, req.MinScore)
	return sha256.Sum256([]byte(b.String()))
}

func (r *Retriever) checkCache(key [32]byte) ([]types.RetrievalResult, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	entry, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		r.cache.Remove(key)
		return nil, false
	}

	out := make([]types.RetrievalResult, len(entry.results))
	copy(out, entry.results)
	return out, true
}

func (r *Retriever) storeCache(key [32]byte, results []types.RetrievalResult) {
	stored := make([]types.RetrievalResult, len(results))
	copy(stored, results)

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache.Add(key, &cacheEntry{
		results:   stored,
		expiresAt: time.Now().Add(queryCacheTTL),
	})
}

// InvalidateCache drops all cached query results. Called after reindexing.
func (r *Retriever) InvalidateCache() {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache.Purge()
}

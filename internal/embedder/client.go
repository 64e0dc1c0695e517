package embedder

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Sridattasai18/repologic/pkg/types"
)

// DefaultMaxInFlight is the default number of concurrent provider calls.
const DefaultMaxInFlight = 4

// Client is the embedding client used by the pipeline. It wraps a Provider
// with content-hash memoization, batching at the provider's ceiling,
// per-sub-batch retry with exponential backoff, and a concurrency ceiling
// it enforces itself rather than trusting the caller.
type Client struct {
	provider    Provider
	cache       *Cache
	retry       RetryConfig
	maxInFlight int
	batchSize   int
}

// NewClient creates a Client. A nil cache disables memoization;
// maxInFlight <= 0 falls back to the default.
func NewClient(provider Provider, cache *Cache, retry RetryConfig, maxInFlight int) *Client {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	if retry.MaxRetries <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Client{
		provider:    provider,
		cache:       cache,
		retry:       retry,
		maxInFlight: maxInFlight,
	}
}

// EmbedTexts embeds texts, returning one vector per input in input order.
// Repeated and previously seen texts are served from cache and never
// re-issue a network request. A sub-batch that keeps failing after retries
// fails the whole call: the result is complete or absent, never partial.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))

	// Resolve cache hits and deduplicate the remainder. Identical texts
	// inside one call collapse to a single provider item.
	hashes := make([]string, len(texts))
	var missHashes []string
	missText := make(map[string]string)
	for i, text := range texts {
		h := ComputeHash(text)
		hashes[i] = h
		if c.cache != nil {
			if vec, ok := c.cache.Get(h); ok {
				out[i] = vec
				continue
			}
		}
		if _, seen := missText[h]; !seen {
			missText[h] = text
			missHashes = append(missHashes, h)
		}
	}

	if len(missHashes) > 0 {
		missVecs := make([][]float32, len(missHashes))
		limit := c.batchSize
		if max := c.provider.BatchLimit(); max > 0 && (limit <= 0 || limit > max) {
			limit = max
		}
		if limit <= 0 {
			limit = DefaultBatchLimit
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.maxInFlight)

		for start := 0; start < len(missHashes); start += limit {
			end := start + limit
			if end > len(missHashes) {
				end = len(missHashes)
			}
			s, e := start, end

			g.Go(func() error {
				batch := make([]string, e-s)
				for i := s; i < e; i++ {
					batch[i-s] = missText[missHashes[i]]
				}

				vecs, err := retryWithBackoff(gctx, c.retry, func() ([][]float32, error) {
					return c.provider.EmbedBatch(gctx, batch)
				})
				if err != nil {
					if errors.Is(err, types.ErrEmbeddingFailed) {
						return err
					}
					return fmt.Errorf("%w: texts %d-%d after %d attempts: %v",
						types.ErrEmbeddingFailed, s, e-1, c.retry.MaxRetries, err)
				}
				if len(vecs) != e-s {
					return fmt.Errorf("%w: provider returned %d vectors for %d texts",
						types.ErrEmbeddingFailed, len(vecs), e-s)
				}

				copy(missVecs[s:e], vecs)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		byHash := make(map[string][]float32, len(missHashes))
		for i, h := range missHashes {
			byHash[h] = missVecs[i]
			if c.cache != nil {
				c.cache.Set(h, missVecs[i])
			}
		}
		for i := range out {
			if out[i] == nil {
				out[i] = byHash[hashes[i]]
			}
		}
	}

	return out, nil
}

// EmbedQuery embeds a single query string through the same batched path.
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, ErrEmptyText
	}
	vecs, err := c.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Dimension returns the wrapped provider's embedding dimension.
func (c *Client) Dimension() int {
	return c.provider.Dimension()
}

// Provider returns the wrapped provider's name.
func (c *Client) Provider() string {
	return c.provider.Name()
}

// SetBatchSize lowers the sub-batch size below the provider's ceiling.
// Values above the ceiling or <= 0 are ignored.
func (c *Client) SetBatchSize(n int) {
	c.batchSize = n
}

// Close releases provider resources.
func (c *Client) Close() error {
	return c.provider.Close()
}

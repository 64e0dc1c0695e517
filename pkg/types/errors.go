package types

import "errors"

// Error taxonomy shared across the pipeline. Callers match with errors.Is
// to decide whether to retry, rebuild, or degrade.
var (
	// ErrIndexUnavailable signals a missing or corrupt persisted index.
	// The caller should trigger a rebuild; process state is unaffected.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrNotIndexed signals a query against a repository that has never
	// been indexed.
	ErrNotIndexed = errors.New("repository not indexed")

	// ErrEmbeddingRateLimited is the transient form of an embedding
	// failure; the client retries it with backoff.
	ErrEmbeddingRateLimited = errors.New("embedding provider rate limited")

	// ErrEmbeddingFailed is terminal: retries were exhausted or the
	// provider rejected the request outright. A build hitting this aborts
	// while any previously built index stays servable.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// Result validation errors
	ErrInvalidSourceKind = errors.New("invalid source kind")
	ErrInvalidScore      = errors.New("score must be between -1 and 1")
)

// Package retriever turns queries into ranked, deduplicated context chunks.
//
// Two entry points exist. AskQuestion embeds a free-text question and
// returns the top index matches above a minimum relevance threshold.
// ExplainSelection always returns the user's own selection first (tagged
// selected, maximal score), then related chunks found by searching with an
// embedding of the selected text. Chunks wholly inside the selection's
// line range are excluded, and the same (file, chunk_index) never appears
// twice.
//
// Both calls are read-only and idempotent against an unchanged index.
// Embedding calls run under a bounded timeout and fail closed rather than
// blocking on an unresponsive provider. Question results are cached in an
// LRU keyed by request and index build time, so a rebuilt index misses the
// cache naturally.
package retriever

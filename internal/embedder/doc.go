// Package embedder converts chunk text and queries into fixed-dimension
// vectors through an external embedding provider.
//
// The Client is what the pipeline uses. It owns the policies the raw
// provider call does not:
//
//   - batching: inputs are split at the provider's items-per-call ceiling
//   - memoization: embeddings are cached by SHA-256 content hash, so
//     repeated chunk text never re-issues a network request, within one
//     build or across builds
//   - retry: a failed sub-batch is retried alone with exponential backoff;
//     exhausted retries surface types.ErrEmbeddingFailed for the whole call
//     rather than a partial result
//   - concurrency: the client enforces its own in-flight ceiling
//
// # Providers
//
// Three Provider implementations are included: Gemini (Google Generative AI
// batchEmbedContents), OpenAI, and a deterministic Local provider for
// offline use and tests.
//
//	client, err := embedder.New(embedder.Config{
//	    Provider:  embedder.ProviderGemini,
//	    CacheSize: 10000,
//	})
//	vectors, err := client.EmbedTexts(ctx, texts)
//
// Provider selection can also come from the environment via NewFromEnv:
// REPOLOGIC_EMBEDDING_PROVIDER, or auto-detection from GOOGLE_API_KEY /
// OPENAI_API_KEY, falling back to the local provider.
package embedder

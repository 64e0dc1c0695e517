package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds embedding client configuration
type Config struct {
	Provider    string
	APIKey      string
	CacheSize   int
	MaxInFlight int
	BatchSize   int
	Retry       RetryConfig
}

// NewFromEnv creates an embedding client based on environment variables.
// Priority:
//  1. REPOLOGIC_EMBEDDING_PROVIDER (gemini, openai, local)
//  2. Check for API keys: GOOGLE_API_KEY, OPENAI_API_KEY
//  3. Default to local if no API keys found
func NewFromEnv() (*Client, error) {
	return New(Config{
		Provider:  DetectProvider(),
		CacheSize: 10000,
	})
}

// New creates an embedding client with explicit configuration.
func New(cfg Config) (*Client, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	client := NewClient(provider, cache, cfg.Retry, cfg.MaxInFlight)
	client.SetBatchSize(cfg.BatchSize)
	return client, nil
}

func newProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini:
		return NewGeminiProvider(cfg.APIKey)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey)
	case ProviderLocal, "":
		return NewLocalProvider()
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvGeminiAPIKey) != "" {
		return ProviderGemini
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderLocal
}

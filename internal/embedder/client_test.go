package embedder_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sridattasai18/repologic/internal/embedder"
	"github.com/Sridattasai18/repologic/pkg/types"
)

// mockProvider counts calls and can be scripted to fail.
type mockProvider struct {
	mu         sync.Mutex
	calls      int
	batchSizes []int

	batchLimit int
	dimension  int

	// failFor maps the first text of a batch to how many times that
	// batch should fail before succeeding.
	failFor map[string]int
	failErr error
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		batchLimit: 100,
		dimension:  4,
		failFor:    make(map[string]int),
	}
}

func (m *mockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.batchSizes = append(m.batchSizes, len(texts))

	if len(texts) > m.batchLimit {
		return nil, fmt.Errorf("%w: %d texts", embedder.ErrBatchTooLarge, len(texts))
	}
	if remaining, ok := m.failFor[texts[0]]; ok && remaining > 0 {
		m.failFor[texts[0]] = remaining - 1
		err := m.failErr
		if err == nil {
			err = types.ErrEmbeddingRateLimited
		}
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1, 2, 3}
	}
	return vectors, nil
}

func (m *mockProvider) BatchLimit() int { return m.batchLimit }
func (m *mockProvider) Dimension() int  { return m.dimension }
func (m *mockProvider) Name() string    { return "mock" }
func (m *mockProvider) Close() error    { return nil }

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func fastRetry() embedder.RetryConfig {
	return embedder.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
		Retryable:  embedder.IsTransient,
	}
}

func manyTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk text number %d", i)
	}
	return texts
}

func TestEmbedTexts_SplitsAtBatchCeiling(t *testing.T) {
	provider := newMockProvider()
	client := embedder.NewClient(provider, nil, fastRetry(), 1)

	texts := manyTexts(250)
	vectors, err := client.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 250 {
		t.Fatalf("got %d vectors, want 250", len(vectors))
	}
	if provider.callCount() != 3 {
		t.Errorf("provider called %d times, want 3", provider.callCount())
	}
	if want := []int{100, 100, 50}; !equalInts(provider.batchSizes, want) {
		t.Errorf("batch sizes = %v, want %v", provider.batchSizes, want)
	}
	for i, vec := range vectors {
		if len(vec) != 4 {
			t.Fatalf("vector %d has dimension %d", i, len(vec))
		}
	}
}

func TestEmbedTexts_RetriesTransientSubBatch(t *testing.T) {
	provider := newMockProvider()
	client := embedder.NewClient(provider, nil, fastRetry(), 1)

	texts := manyTexts(250)
	// Second sub-batch fails twice with a rate limit, then succeeds.
	provider.failFor[texts[100]] = 2

	vectors, err := client.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 250 {
		t.Fatalf("got %d vectors, want 250", len(vectors))
	}
	// 3 sub-batches plus 2 retries of the second.
	if provider.callCount() != 5 {
		t.Errorf("provider called %d times, want 5", provider.callCount())
	}
}

func TestEmbedTexts_TerminalFailureIsComplete(t *testing.T) {
	provider := newMockProvider()
	client := embedder.NewClient(provider, nil, fastRetry(), 1)

	texts := manyTexts(250)
	// Second sub-batch keeps failing past the retry budget.
	provider.failFor[texts[100]] = 10

	vectors, err := client.EmbedTexts(context.Background(), texts)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, types.ErrEmbeddingFailed) {
		t.Errorf("error = %v, want ErrEmbeddingFailed", err)
	}
	if vectors != nil {
		t.Errorf("got partial result with %d vectors, want none", len(vectors))
	}
}

func TestEmbedTexts_CacheSkipsProvider(t *testing.T) {
	provider := newMockProvider()
	cache := embedder.NewCache(1000)
	client := embedder.NewClient(provider, cache, fastRetry(), 1)

	texts := manyTexts(50)
	if _, err := client.EmbedTexts(context.Background(), texts); err != nil {
		t.Fatalf("first EmbedTexts() error = %v", err)
	}
	calls := provider.callCount()

	vectors, err := client.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("second EmbedTexts() error = %v", err)
	}
	if provider.callCount() != calls {
		t.Errorf("cached call reissued provider requests: %d -> %d", calls, provider.callCount())
	}
	if len(vectors) != 50 {
		t.Errorf("got %d vectors, want 50", len(vectors))
	}
}

func TestEmbedTexts_DuplicatesCollapse(t *testing.T) {
	provider := newMockProvider()
	client := embedder.NewClient(provider, nil, fastRetry(), 1)

	texts := []string{"same text", "same text", "other text", "same text"}
	vectors, err := client.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 4 {
		t.Fatalf("got %d vectors, want 4", len(vectors))
	}
	if provider.batchSizes[0] != 2 {
		t.Errorf("provider saw %d texts, want 2 unique", provider.batchSizes[0])
	}
	if !equalFloats(vectors[0], vectors[1]) || !equalFloats(vectors[0], vectors[3]) {
		t.Error("duplicate texts produced different vectors")
	}
}

func TestEmbedTexts_RejectsEmptyInput(t *testing.T) {
	client := embedder.NewClient(newMockProvider(), nil, fastRetry(), 1)

	if _, err := client.EmbedTexts(context.Background(), nil); !errors.Is(err, embedder.ErrInvalidInput) {
		t.Errorf("nil input error = %v, want ErrInvalidInput", err)
	}
	if _, err := client.EmbedTexts(context.Background(), []string{"ok", ""}); !errors.Is(err, embedder.ErrInvalidInput) {
		t.Errorf("empty item error = %v, want ErrInvalidInput", err)
	}
}

func TestEmbedTexts_NonRetryableFailsFast(t *testing.T) {
	provider := newMockProvider()
	provider.failFor["validation rejected"] = 10
	provider.failErr = embedder.ErrInvalidInput
	client := embedder.NewClient(provider, nil, fastRetry(), 1)

	_, err := client.EmbedTexts(context.Background(), []string{"validation rejected"})
	if err == nil {
		t.Fatal("expected error")
	}
	if provider.callCount() != 1 {
		t.Errorf("non-retryable error was retried: %d calls", provider.callCount())
	}
}

func TestEmbedQuery(t *testing.T) {
	client := embedder.NewClient(newMockProvider(), nil, fastRetry(), 1)

	vec, err := client.EmbedQuery(context.Background(), "where is auth handled")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("vector dimension = %d, want 4", len(vec))
	}

	if _, err := client.EmbedQuery(context.Background(), ""); !errors.Is(err, embedder.ErrEmptyText) {
		t.Errorf("empty query error = %v, want ErrEmptyText", err)
	}
}

func TestEmbedTexts_ConcurrencyBounded(t *testing.T) {
	var inFlight, peak int64
	provider := newMockProvider()
	client := embedder.NewClient(&gatedProvider{mockProvider: provider, inFlight: &inFlight, peak: &peak}, nil, fastRetry(), 2)

	if _, err := client.EmbedTexts(context.Background(), manyTexts(1000)); err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if p := atomic.LoadInt64(&peak); p > 2 {
		t.Errorf("peak concurrent provider calls = %d, want <= 2", p)
	}
}

// gatedProvider tracks peak concurrent EmbedBatch calls.
type gatedProvider struct {
	*mockProvider
	inFlight *int64
	peak     *int64
}

func (g *gatedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := atomic.AddInt64(g.inFlight, 1)
	for {
		p := atomic.LoadInt64(g.peak)
		if n <= p || atomic.CompareAndSwapInt64(g.peak, p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	defer atomic.AddInt64(g.inFlight, -1)
	return g.mockProvider.EmbedBatch(ctx, texts)
}

func TestIsTransient(t *testing.T) {
	if !embedder.IsTransient(types.ErrEmbeddingRateLimited) {
		t.Error("rate limit should be transient")
	}
	if embedder.IsTransient(embedder.ErrInvalidInput) {
		t.Error("validation errors should not be transient")
	}
	if embedder.IsTransient(errors.New("unclassified")) {
		t.Error("unknown errors should not be transient")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalFloats(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

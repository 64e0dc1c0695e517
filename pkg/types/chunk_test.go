package types_test

import (
	"testing"

	"github.com/Sridattasai18/repologic/pkg/types"
)

func validChunk() types.Chunk {
	return types.Chunk{
		RepoID:        "repo",
		FilePath:      "auth.py",
		ChunkIndex:    0,
		StartLine:     1,
		EndLine:       20,
		Language:      "python",
		Text:          "def login():\n    pass",
		ContextHeader: "File: auth.py\nLanguage: python",
	}
}

func TestChunkValidate(t *testing.T) {
	c := validChunk()
	if err := c.Validate(); err != nil {
		t.Fatalf("valid chunk rejected: %v", err)
	}

	mutations := map[string]func(*types.Chunk){
		"empty repo ID":   func(c *types.Chunk) { c.RepoID = "" },
		"empty file path": func(c *types.Chunk) { c.FilePath = "" },
		"negative index":  func(c *types.Chunk) { c.ChunkIndex = -1 },
		"zero start line": func(c *types.Chunk) { c.StartLine = 0 },
		"inverted range":  func(c *types.Chunk) { c.StartLine = 30; c.EndLine = 20 },
		"empty text":      func(c *types.Chunk) { c.Text = "" },
	}
	for name, mutate := range mutations {
		c := validChunk()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestEmbeddingText(t *testing.T) {
	c := validChunk()
	want := "File: auth.py\nLanguage: python\n\ndef login():\n    pass"
	if got := c.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}

	c.ContextHeader = ""
	if got := c.EmbeddingText(); got != c.Text {
		t.Errorf("headerless EmbeddingText() = %q, want raw text", got)
	}
}

func TestContentHash(t *testing.T) {
	a, b := validChunk(), validChunk()
	if a.ContentHash() != b.ContentHash() {
		t.Error("identical chunks must hash identically")
	}
	b.Text = "changed"
	if a.ContentHash() == b.ContentHash() {
		t.Error("different text must change the hash")
	}
}

func TestBuildContextHeader(t *testing.T) {
	got := types.BuildContextHeader("internal/server.go", "go")
	if got != "File: internal/server.go\nLanguage: go" {
		t.Errorf("BuildContextHeader() = %q", got)
	}
}

func TestRetrievalResultValidate(t *testing.T) {
	r := types.RetrievalResult{Chunk: validChunk(), Score: 0.8, Source: types.SourceRelated}
	if err := r.Validate(); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}

	r.Source = "guessed"
	if err := r.Validate(); err == nil {
		t.Error("unknown source kind must be rejected")
	}

	r.Source = types.SourceRelated
	r.Score = 1.5
	if err := r.Validate(); err == nil {
		t.Error("out-of-range score must be rejected")
	}

	selected := types.RetrievalResult{Chunk: validChunk(), Score: 1.0, Source: types.SourceSelected}
	selected.Chunk.ChunkIndex = types.SelectionChunkIndex
	if err := selected.Validate(); err != nil {
		t.Errorf("selection sentinel index rejected: %v", err)
	}

	related := types.RetrievalResult{Chunk: validChunk(), Score: 0.8, Source: types.SourceRelated}
	related.Chunk.ChunkIndex = types.SelectionChunkIndex
	if err := related.Validate(); err == nil {
		t.Error("sentinel index on a related result must be rejected")
	}
}

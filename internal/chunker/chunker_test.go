package chunker_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/Sridattasai18/repologic/internal/chunker"
	"github.com/Sridattasai18/repologic/internal/language"
	"github.com/Sridattasai18/repologic/pkg/types"
)

// pythonSource is a small module with two functions separated by blank
// lines, the shape the boundary detector is built for.
func pythonSource() string {
	var b strings.Builder
	b.WriteString("import os\n")
	b.WriteString("import sys\n")
	b.WriteString("\n")
	b.WriteString("\n")
	b.WriteString("def validate_token(token):\n")
	for i := 0; i < 10; i++ {
		b.WriteString(fmt.Sprintf("    step_%d = token + %d\n", i, i))
	}
	b.WriteString("    return True\n")
	b.WriteString("\n")
	b.WriteString("\n")
	b.WriteString("def refresh_token(token):\n")
	for i := 0; i < 10; i++ {
		b.WriteString(fmt.Sprintf("    part_%d = token * %d\n", i, i))
	}
	b.WriteString("    return token\n")
	return b.String()
}

func TestChunkText_CoversEveryLine(t *testing.T) {
	text := pythonSource()
	lineCount := len(strings.Split(strings.TrimRight(text, "\n"), "\n"))

	c := chunker.New(30, 3)
	chunks := c.ChunkText("repo", "auth.py", language.Python, text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	if chunks[0].StartLine != 1 {
		t.Errorf("first chunk starts at line %d, want 1", chunks[0].StartLine)
	}
	if last := chunks[len(chunks)-1]; last.EndLine != lineCount {
		t.Errorf("last chunk ends at line %d, want %d", last.EndLine, lineCount)
	}

	for i, chunk := range chunks {
		if chunk.StartLine > chunk.EndLine {
			t.Errorf("chunk[%d]: StartLine %d > EndLine %d", i, chunk.StartLine, chunk.EndLine)
		}
		if chunk.ChunkIndex != i {
			t.Errorf("chunk[%d]: ChunkIndex = %d", i, chunk.ChunkIndex)
		}
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		if chunk.StartLine > prev.EndLine+1 {
			t.Errorf("gap between chunk[%d] ending %d and chunk[%d] starting %d",
				i-1, prev.EndLine, i, chunk.StartLine)
		}
		if chunk.StartLine <= prev.StartLine {
			t.Errorf("chunk[%d] does not advance: start %d after previous start %d",
				i, chunk.StartLine, prev.StartLine)
		}
	}
}

func TestChunkText_Deterministic(t *testing.T) {
	text := pythonSource()
	c := chunker.New(30, 3)

	first := c.ChunkText("repo", "auth.py", language.Python, text)
	for i := 0; i < 5; i++ {
		again := c.ChunkText("repo", "auth.py", language.Python, text)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different chunks", i)
		}
	}
}

func TestChunkText_RespectsTokenCap(t *testing.T) {
	text := pythonSource()
	maxTokens := 30
	c := chunker.New(maxTokens, 3)

	for i, chunk := range c.ChunkText("repo", "auth.py", language.Python, text) {
		// Single lines longer than the cap are the only permitted overage.
		if len(chunk.Text) > maxTokens*chunker.TokensPerChar && strings.Contains(chunk.Text, "\n") {
			t.Errorf("chunk[%d] has %d chars, cap is %d", i, len(chunk.Text), maxTokens*chunker.TokensPerChar)
		}
	}
}

func TestChunkText_SmallFunctionStaysWhole(t *testing.T) {
	// 30 filler lines, a 10-line function at 31-40 that fits the cap, then
	// 40 more filler lines. The cut before the function must land on the
	// def boundary, and the function must fall entirely inside one chunk.
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString(fmt.Sprintf("# filler before %02d\n", i))
	}
	b.WriteString("def compact(token):\n")
	for i := 0; i < 9; i++ {
		b.WriteString(fmt.Sprintf("    step_%d = token + %d\n", i, i))
	}
	for i := 0; i < 40; i++ {
		b.WriteString(fmt.Sprintf("# filler after %02d\n", i))
	}

	c := chunker.New(250, 3)
	chunks := c.ChunkText("repo", "auth.py", language.Python, b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	whole := false
	for _, chunk := range chunks {
		if chunk.StartLine <= 31 && chunk.EndLine >= 40 {
			whole = true
		}
		if chunk.StartLine > 31 && chunk.StartLine <= 40 {
			t.Errorf("chunk starting at line %d cuts through the function body", chunk.StartLine)
		}
	}
	if !whole {
		t.Error("function at lines 31-40 is split across chunks")
	}
	if chunks[0].EndLine != 30 {
		t.Errorf("first cut at line %d, want the def boundary at 30", chunks[0].EndLine)
	}

	for i := 1; i < len(chunks); i++ {
		if chunks[i].EndLine <= chunks[i-1].EndLine {
			t.Errorf("chunk[%d] ends at %d, does not extend past chunk[%d] ending %d",
				i, chunks[i].EndLine, i-1, chunks[i-1].EndLine)
		}
	}
}

func TestChunkText_BoundaryInsideOverlapIsNotReselected(t *testing.T) {
	// A single def near the top of a long file. The first cut lands on the
	// def, the overlap rewinds past it, and subsequent chunks must not cut
	// at that same boundary again.
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteString(fmt.Sprintf("# prologue line %02d aa\n", i))
	}
	b.WriteString("def handler(token):\n")
	for i := 0; i < 110; i++ {
		b.WriteString(fmt.Sprintf("    acc = token + %03d\n", i))
	}

	c := chunker.New(375, 3)
	chunks := c.ChunkText("repo", "long.py", language.Python, b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	if chunks[0].EndLine != 9 {
		t.Errorf("first cut at line %d, want the def boundary at 9", chunks[0].EndLine)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].EndLine <= chunks[i-1].EndLine {
			t.Errorf("chunk[%d] spans %d-%d and adds no lines beyond chunk[%d] ending %d",
				i, chunks[i].StartLine, chunks[i].EndLine, i-1, chunks[i-1].EndLine)
		}
	}
	if last := chunks[len(chunks)-1]; last.EndLine != 120 {
		t.Errorf("last chunk ends at line %d, want 120", last.EndLine)
	}
	if len(chunks) > 5 {
		t.Errorf("got %d chunks for 120 lines, overlap rewind is crawling", len(chunks))
	}
}

func TestChunkText_OversizedLineSplitsAtCap(t *testing.T) {
	long := strings.Repeat("x", 5000)
	text := "short\n" + long + "\nshort again\n"

	c := chunker.New(30, 0)
	chunks := c.ChunkText("repo", "big.txt", types.LangGeneric, text)
	if len(chunks) < 2 {
		t.Fatalf("expected oversized line to force a split, got %d chunks", len(chunks))
	}
	if chunks[len(chunks)-1].EndLine != 3 {
		t.Errorf("last chunk ends at %d, want 3", chunks[len(chunks)-1].EndLine)
	}
}

func TestChunkText_EmptyInput(t *testing.T) {
	c := chunker.New(0, -1)
	if chunks := c.ChunkText("repo", "empty.go", language.Go, ""); chunks != nil {
		t.Errorf("empty input produced %d chunks", len(chunks))
	}
	if chunks := c.ChunkText("repo", "blank.go", language.Go, "   \n\t\n"); chunks != nil {
		t.Errorf("whitespace input produced %d chunks", len(chunks))
	}
}

func TestChunkText_SingleChunk(t *testing.T) {
	text := "package main\n\nfunc main() {}\n"
	c := chunker.New(chunker.DefaultMaxTokens, chunker.DefaultOverlapLines)

	chunks := c.ChunkText("repo", "main.go", language.Go, text)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	chunk := chunks[0]
	if chunk.StartLine != 1 || chunk.EndLine != 3 {
		t.Errorf("lines %d-%d, want 1-3", chunk.StartLine, chunk.EndLine)
	}
	if chunk.Language != language.Go {
		t.Errorf("language = %q", chunk.Language)
	}
	if want := types.BuildContextHeader("main.go", language.Go); chunk.ContextHeader != want {
		t.Errorf("header = %q, want %q", chunk.ContextHeader, want)
	}
	if err := chunk.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestChunkText_OverlapSharesTrailingLines(t *testing.T) {
	// Uniform generic lines, no boundaries, so cuts land at the cap and
	// the overlap window is visible directly.
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString(fmt.Sprintf("line number %02d padded out\n", i))
	}

	overlap := 3
	c := chunker.New(40, overlap)
	chunks := c.ChunkText("repo", "data.txt", types.LangGeneric, b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		shared := chunks[i-1].EndLine - chunks[i].StartLine + 1
		if shared < 1 || shared > overlap {
			t.Errorf("chunks %d/%d share %d lines, want 1..%d", i-1, i, shared, overlap)
		}
	}
}

func TestEstimateTokenCount(t *testing.T) {
	if got := chunker.EstimateTokenCount(strings.Repeat("a", 400)); got != 100 {
		t.Errorf("EstimateTokenCount = %d, want 100", got)
	}
}

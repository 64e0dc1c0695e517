package chunker

import (
	"strings"

	"github.com/Sridattasai18/repologic/pkg/types"
)

const (
	// DefaultMaxTokens is the default maximum token count per chunk.
	DefaultMaxTokens = 400

	// DefaultOverlapLines is the default number of trailing lines shared
	// with the following chunk.
	DefaultOverlapLines = 3

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4
)

// Chunker splits file text into bounded, overlapping chunks, preferring
// language-specific structural boundaries over arbitrary offsets.
type Chunker struct {
	maxTokens    int
	overlapLines int
}

// New creates a Chunker. Non-positive arguments fall back to defaults.
func New(maxTokens, overlapLines int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlapLines < 0 {
		overlapLines = DefaultOverlapLines
	}
	return &Chunker{
		maxTokens:    maxTokens,
		overlapLines: overlapLines,
	}
}

// ChunkText splits text into an ordered chunk sequence. The result is
// deterministic: identical text and language always produce identical
// chunks. Empty or whitespace-only input yields nil.
//
// Invariants:
//   - no chunk exceeds the token cap (single lines longer than the cap are
//     the only exception, since a chunk cannot split mid-line)
//   - chunk start lines are monotonically non-decreasing, no source line is
//     ever skipped, and every chunk ends strictly past its predecessor
//   - adjacent chunks share up to overlapLines of trailing/leading content
func (c *Chunker) ChunkText(repoID, filePath string, lang types.Language, text string) []types.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	// A trailing newline produces one empty trailing element; drop it so
	// EndLine matches the file's actual line count.
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	boundary := boundaryFor(lang)
	maxChars := c.maxTokens * TokensPerChar
	header := types.BuildContextHeader(filePath, lang)

	var chunks []types.Chunk
	start := 0   // 0-based index of the current chunk's first line
	prevEnd := 0 // exclusive end of the previous chunk
	for start < len(lines) {
		end := start // exclusive
		charCount := 0
		lastBoundary := -1

		for end < len(lines) {
			lineChars := len(lines[end]) + 1
			if charCount > 0 && charCount+lineChars > maxChars {
				break
			}
			// A boundary at or before the previous chunk's end sits inside
			// the overlap rewind and cannot be a cut, or the same boundary
			// would be re-selected on every pass.
			if end > prevEnd && boundary(lines, end) {
				lastBoundary = end
			}
			charCount += lineChars
			end++
		}

		// Size cap hit mid-file: back up to the last structural boundary
		// inside the window. If none exists the unit is oversized and is
		// split at the cap regardless.
		if end < len(lines) && lastBoundary > start {
			end = lastBoundary
		}
		// Every chunk must extend coverage past the previous one, even when
		// oversized overlap lines exhaust the cap on their own.
		if end <= prevEnd {
			end = prevEnd + 1
		}

		chunks = append(chunks, types.Chunk{
			RepoID:        repoID,
			FilePath:      filePath,
			Language:      lang,
			ChunkIndex:    len(chunks),
			StartLine:     start + 1,
			EndLine:       end,
			Text:          strings.Join(lines[start:end], "\n"),
			ContextHeader: header,
		})

		if end >= len(lines) {
			break
		}
		prevEnd = end

		// Next chunk leads with the previous chunk's trailing overlap.
		next := end - c.overlapLines
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// MaxTokens returns the configured token cap.
func (c *Chunker) MaxTokens() int { return c.maxTokens }

// OverlapLines returns the configured overlap window.
func (c *Chunker) OverlapLines() int { return c.overlapLines }

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}

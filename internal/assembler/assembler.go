// Package assembler renders retrieval results into a single bounded
// context block for hand-off to generation.
package assembler

import (
	"fmt"
	"strings"

	"github.com/Sridattasai18/repologic/pkg/types"
)

// DefaultMaxChars is the default context budget in characters.
const DefaultMaxChars = 12000

// Delimiter separates provenance-tagged sections in the assembled block.
const Delimiter = "\n\n---\n\n"

// Assembler renders ranked retrieval results into one provenance-tagged
// text block no larger than its budget.
type Assembler struct {
	maxChars int
}

// New creates an Assembler. A non-positive budget falls back to the default.
func New(maxChars int) *Assembler {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Assembler{maxChars: maxChars}
}

// Assemble renders results in rank order, dropping lowest-ranked results
// once the budget would be exceeded. A chunk is included whole or omitted
// entirely, never cut mid-chunk. Returns the block and how many results
// made it in.
func (a *Assembler) Assemble(results []types.RetrievalResult) (string, int) {
	var b strings.Builder
	included := 0

	for i := range results {
		section := Section(&results[i])
		cost := len(section)
		if included > 0 {
			cost += len(Delimiter)
		}
		if b.Len()+cost > a.maxChars {
			break
		}
		if included > 0 {
			b.WriteString(Delimiter)
		}
		b.WriteString(section)
		included++
	}

	return b.String(), included
}

// Section renders one result with its file provenance tag.
func Section(r *types.RetrievalResult) string {
	c := &r.Chunk
	if r.Source == types.SourceRelated {
		return fmt.Sprintf("[Related: %s:%d-%d]\n%s", c.FilePath, c.StartLine, c.EndLine, c.Text)
	}
	return fmt.Sprintf("[%s:%d-%d]\n%s", c.FilePath, c.StartLine, c.EndLine, c.Text)
}

// MaxChars returns the configured budget.
func (a *Assembler) MaxChars() int { return a.maxChars }

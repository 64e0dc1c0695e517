package chunker

import (
	"regexp"
	"strings"

	"github.com/Sridattasai18/repologic/internal/language"
	"github.com/Sridattasai18/repologic/pkg/types"
)

// boundaryFunc reports whether a chunk may preferably begin at lines[i].
// Strategies are heuristic line classifiers, not parsers: they recognize
// definition starts well enough to avoid cutting through a function body.
type boundaryFunc func(lines []string, i int) bool

// Definition-start patterns per language family. Anchored at column zero
// (or leading decorators/annotations) so nested statements never register
// as boundaries.
var (
	goBoundary     = regexp.MustCompile(`^(func|type|const|var|import|package)\b`)
	cLikeBoundary  = regexp.MustCompile(`^(?:[A-Za-z_][\w<>\[\],\s\*&:]*\s)?(class|struct|enum|interface|namespace|void|int|static|public|private|protected|export|function|impl|fn|pub|def|object|trait|module)\b`)
	jsBoundary     = regexp.MustCompile(`^(export\s+)?(async\s+)?(function|class|const|let|var|interface|type|enum)\b`)
	pythonBoundary = regexp.MustCompile(`^(def|class|async\s+def|@)\b|^@\w`)
	rubyBoundary   = regexp.MustCompile(`^(def|class|module)\b`)
	shellBoundary  = regexp.MustCompile(`^(\w+\s*\(\)\s*\{|function\s+\w+)`)
	sqlBoundary    = regexp.MustCompile(`(?i)^(create|alter|drop|insert|select|with|update|delete)\b`)
	headingBound   = regexp.MustCompile(`^#{1,6}\s`)
)

// strategies is the closed map from language tag to boundary detection.
// Adding a language means adding one entry here.
var strategies = map[types.Language]boundaryFunc{
	language.Go:         matchStart(goBoundary),
	language.Python:     matchStart(pythonBoundary),
	language.JavaScript: matchStart(jsBoundary),
	language.TypeScript: matchStart(jsBoundary),
	language.Java:       matchStart(cLikeBoundary),
	language.C:          matchStart(cLikeBoundary),
	language.CPP:        matchStart(cLikeBoundary),
	language.CSharp:     matchStart(cLikeBoundary),
	language.Rust:       matchStart(cLikeBoundary),
	language.PHP:        matchStart(cLikeBoundary),
	language.Swift:      matchStart(cLikeBoundary),
	language.Kotlin:     matchStart(cLikeBoundary),
	language.Scala:      matchStart(cLikeBoundary),
	language.Ruby:       matchStart(rubyBoundary),
	language.Shell:      matchStart(shellBoundary),
	language.SQL:        matchStart(sqlBoundary),
	language.Markdown:   matchStart(headingBound),
}

// boundaryFor returns the boundary strategy for a language, falling back to
// paragraph detection for anything unrecognized.
func boundaryFor(lang types.Language) boundaryFunc {
	if fn, ok := strategies[lang]; ok {
		return fn
	}
	return paragraphBoundary
}

// matchStart builds a strategy that fires when a top-level line matches the
// pattern. Indented lines are never boundaries: a definition nested inside
// another belongs to its parent's chunk.
func matchStart(re *regexp.Regexp) boundaryFunc {
	return func(lines []string, i int) bool {
		line := lines[i]
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			return false
		}
		return re.MatchString(line)
	}
}

// paragraphBoundary is the generic fallback: a non-blank line directly after
// a blank line starts a new paragraph.
func paragraphBoundary(lines []string, i int) bool {
	if i == 0 {
		return true
	}
	return strings.TrimSpace(lines[i]) != "" && strings.TrimSpace(lines[i-1]) == ""
}

// Package language maps file paths to source language tags.
package language

import (
	"path/filepath"
	"strings"

	"github.com/Sridattasai18/repologic/pkg/types"
)

// Language tags for the supported source and markup languages.
const (
	Go         = types.Language("go")
	Python     = types.Language("python")
	JavaScript = types.Language("javascript")
	TypeScript = types.Language("typescript")
	Java       = types.Language("java")
	C          = types.Language("c")
	CPP        = types.Language("cpp")
	CSharp     = types.Language("csharp")
	Ruby       = types.Language("ruby")
	Rust       = types.Language("rust")
	PHP        = types.Language("php")
	Swift      = types.Language("swift")
	Kotlin     = types.Language("kotlin")
	Scala      = types.Language("scala")
	Shell      = types.Language("shell")
	HTML       = types.Language("html")
	CSS        = types.Language("css")
	SQL        = types.Language("sql")
	Markdown   = types.Language("markdown")
	YAML       = types.Language("yaml")
	JSON       = types.Language("json")
	Generic    = types.LangGeneric
)

// extensions maps lowercase file extensions to language tags.
var extensions = map[string]types.Language{
	".go":    Go,
	".py":    Python,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".ts":    TypeScript,
	".tsx":   TypeScript,
	".java":  Java,
	".c":     C,
	".h":     C,
	".cc":    CPP,
	".cpp":   CPP,
	".cxx":   CPP,
	".hpp":   CPP,
	".cs":    CSharp,
	".rb":    Ruby,
	".rs":    Rust,
	".php":   PHP,
	".swift": Swift,
	".kt":    Kotlin,
	".kts":   Kotlin,
	".scala": Scala,
	".sh":    Shell,
	".bash":  Shell,
	".zsh":   Shell,
	".html":  HTML,
	".htm":   HTML,
	".css":   CSS,
	".scss":  CSS,
	".sql":   SQL,
	".md":    Markdown,
	".yaml":  YAML,
	".yml":   YAML,
	".json":  JSON,
}

// Classify maps a file path to a language tag. Unknown extensions always
// resolve to the generic tag; there is no failure mode.
func Classify(path string) types.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensions[ext]; ok {
		return lang
	}

	// A few well-known extensionless files
	switch strings.ToLower(filepath.Base(path)) {
	case "makefile":
		return Shell
	case "dockerfile":
		return Shell
	}

	return Generic
}

// Indexable reports whether files of this extension are worth indexing at
// all. Classify still never fails; this is a separate build-time filter.
func Indexable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := extensions[ext]; ok {
		return true
	}
	switch ext {
	case ".txt", ".toml", ".cfg", ".ini", ".xml":
		return true
	}
	return false
}

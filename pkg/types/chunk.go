package types

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// Language identifies the classified source language of a file.
type Language string

// LangGeneric is the fallback for unrecognized file types.
const LangGeneric Language = "generic"

// Chunk represents a bounded unit of retrievable repository content
type Chunk struct {
	// Identification
	RepoID     string
	FilePath   string // Relative to repository root, forward slashes
	ChunkIndex int    // 0-based position within the file's chunk sequence

	// Location (1-based, inclusive)
	StartLine int
	EndLine   int

	// Content
	Language      Language
	Text          string
	ContextHeader string // Derived provenance string, prepended when embedding

	// Embedding is set after the chunk has been embedded. All chunks of
	// one repository index share the same dimension.
	Embedding []float32
}

// Key uniquely identifies a chunk within a repository index.
type Key struct {
	FilePath   string
	ChunkIndex int
}

// Key returns the chunk's identity within its repository.
func (c *Chunk) Key() Key {
	return Key{FilePath: c.FilePath, ChunkIndex: c.ChunkIndex}
}

// EmbeddingText returns the text actually sent to the embedding provider:
// the context header followed by the raw chunk content.
func (c *Chunk) EmbeddingText() string {
	if c.ContextHeader == "" {
		return c.Text
	}
	return c.ContextHeader + "\n\n" + c.Text
}

// ContentHash computes the SHA-256 hash of the embedding text for memoization.
func (c *Chunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.EmbeddingText()))
}

// Validate checks structural integrity of the chunk.
func (c *Chunk) Validate() error {
	if c.RepoID == "" {
		return errors.New("repo ID is required")
	}

	if c.FilePath == "" {
		return errors.New("file path is required")
	}

	if c.ChunkIndex < 0 {
		return errors.New("chunk index must be non-negative")
	}

	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}

	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}

	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}

	return nil
}

// BuildContextHeader derives the display/embedding header for a chunk.
func BuildContextHeader(filePath string, lang Language) string {
	return fmt.Sprintf("File: %s\nLanguage: %s", filePath, lang)
}

// Package chunker divides source files into bounded, overlapping chunks for
// embedding and search.
//
// Split points are chosen preferentially at structural boundaries for the
// file's language (function, class, and definition starts) rather than at
// arbitrary offsets. Boundary detection is a closed map from language tag to
// a line-level strategy with a generic paragraph fallback; adding a language
// means adding one entry, not branching logic through the pipeline.
//
// # Basic Usage
//
//	c := chunker.New(400, 3)
//	chunks := c.ChunkText("owner-repo", "src/auth.py", language.Python, content)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("chunk %d: lines %d-%d\n",
//	        chunk.ChunkIndex, chunk.StartLine, chunk.EndLine)
//	}
//
// # Sizing
//
// Chunk size is measured in a token-like unit estimated as chars/4. The
// size cap always wins over boundary preservation: a single logical unit
// larger than the cap is split anyway. Adjacent chunks share a configured
// number of trailing/leading lines so context survives the cut.
//
// Chunking is deterministic, which is what makes reindexing an unchanged
// file tree idempotent.
package chunker

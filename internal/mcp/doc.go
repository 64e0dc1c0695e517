// Package mcp implements the Model Context Protocol server exposing the
// retrieval pipeline over stdio.
//
// # Tools
//
// The server registers five tools:
//
//   - index_repository: chunk, embed, and index a repository under a
//     caller-chosen repo ID. Re-running it rebuilds the index and
//     atomically replaces the previous one; concurrent calls for the
//     same repo join the in-flight build instead of starting another.
//
//   - ask_question: embed a free-text question, search the repository's
//     index by cosine similarity, and return the top chunks plus an
//     assembled context string. With a generation API key configured it
//     also returns a generated answer grounded in that context.
//
//   - explain_selection: given a file path, line range, and selected
//     text, return the selection plus related chunks from elsewhere in
//     the repository, with the same optional generation step.
//
//   - get_status: report indexed repositories (in memory and on disk),
//     the active embedding provider, and server configuration.
//
//   - remove_repository: evict a repository's index from memory and
//     delete its persisted artifact.
//
// # Errors
//
// Tool failures are returned as MCP errors with stable codes: invalid
// parameters (-32602), repository not indexed (-32001), index artifact
// missing or corrupt (-32002), terminal embedding failure (-32003), and
// empty query (-32004). Generation failures never fail a tool call; the
// retrieved context is returned with an answer_error field instead.
package mcp

package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Chunk and embed a repository so it can be queried",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier for this repository; later queries use the same ID",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
			},
			Required: []string{"repo_id", "path"},
		},
	}
}

// askQuestionTool returns the tool definition for ask_question
func askQuestionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a free-text question about an indexed repository using retrieved code context",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier used when the repository was indexed",
				},
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question about the codebase",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of retrieved chunks (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity for a chunk to be included (0.0-1.0)",
					"default":     0.25,
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"generate_answer": map[string]interface{}{
					"type":        "boolean",
					"description": "If true and a generation API key is configured, return a generated answer alongside the context",
					"default":     true,
				},
			},
			Required: []string{"repo_id", "question"},
		},
	}
}

// explainSelectionTool returns the tool definition for explain_selection
func explainSelectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "explain_selection",
		Description: "Explain a selected code span using the selection plus related chunks from the repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier used when the repository was indexed",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Repository-relative path of the file containing the selection",
				},
				"start_line": map[string]interface{}{
					"type":        "integer",
					"description": "First selected line (1-based, inclusive)",
					"minimum":     1,
				},
				"end_line": map[string]interface{}{
					"type":        "integer",
					"description": "Last selected line (1-based, inclusive)",
					"minimum":     1,
				},
				"selected_text": map[string]interface{}{
					"type":        "string",
					"description": "The selected source text",
				},
				"related_limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of related chunks beyond the selection itself",
					"default":     3,
					"minimum":     0,
					"maximum":     50,
				},
				"generate_answer": map[string]interface{}{
					"type":        "boolean",
					"description": "If true and a generation API key is configured, return a generated explanation alongside the context",
					"default":     true,
				},
			},
			Required: []string{"repo_id", "file_path", "start_line", "end_line", "selected_text"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report indexed repositories and server configuration",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_id": map[string]interface{}{
					"type":        "string",
					"description": "If set, report only this repository",
				},
			},
		},
	}
}

// removeRepositoryTool returns the tool definition for remove_repository
func removeRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_repository",
		Description: "Drop a repository's index from memory and disk",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier used when the repository was indexed",
				},
			},
			Required: []string{"repo_id"},
		},
	}
}

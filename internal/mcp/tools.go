package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/Sridattasai18/repologic/internal/generation"
	"github.com/Sridattasai18/repologic/internal/retriever"
	"github.com/Sridattasai18/repologic/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed       = -32001 // Repository not indexed
	ErrorCodeIndexUnavailable = -32002 // Index artifact missing or corrupt
	ErrorCodeEmbeddingFailed  = -32003 // Embedding provider failed terminally
	ErrorCodeEmptyQuery       = -32004 // Question or selection is empty
)

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repoID, ok := args["repo_id"].(string)
	if !ok || repoID == "" {
		return nil, missingParam("repo_id")
	}
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, missingParam("path")
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	stats, err := s.builder.BuildRepo(ctx, repoID, path)
	if err != nil {
		return nil, s.toolError(err, "indexing failed")
	}

	response := map[string]interface{}{
		"indexed":        true,
		"repo_id":        stats.RepoID,
		"files_chunked":  stats.FilesChunked,
		"files_skipped":  stats.FilesSkipped,
		"chunks_created": stats.ChunksCreated,
		"dimension":      stats.Dimension,
		"duration_ms":    stats.Duration.Milliseconds(),
	}
	if stats.Joined {
		response["joined_in_flight_build"] = true
	}
	if len(stats.Skipped) > 0 {
		skipped := stats.Skipped
		if len(skipped) > 5 {
			response["skipped_count"] = len(skipped)
			skipped = skipped[:5]
		}
		response["skipped"] = skipped
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAskQuestion handles the ask_question tool invocation
func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repoID, ok := args["repo_id"].(string)
	if !ok || repoID == "" {
		return nil, missingParam("repo_id")
	}
	question, ok := args["question"].(string)
	if !ok || question == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "question parameter is required and cannot be empty", map[string]interface{}{
			"param":  "question",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", s.cfg.Retrieval.TopK)
	if limit < 1 || limit > retriever.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams,
			fmt.Sprintf("limit must be between 1 and %d", retriever.MaxLimit),
			map[string]interface{}{"param": "limit", "value": limit})
	}
	minScore := getFloatDefault(args, "min_score", s.cfg.Retrieval.MinScore)
	if minScore < 0 || minScore > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "min_score must be between 0.0 and 1.0",
			map[string]interface{}{"param": "min_score", "value": minScore})
	}

	resp, err := s.retriever.AskQuestion(ctx, retriever.QuestionRequest{
		RepoID:   repoID,
		Question: question,
		Limit:    limit,
		MinScore: minScore,
	})
	if err != nil {
		return nil, s.toolError(err, "retrieval failed")
	}

	contextStr, used := s.assembler.Assemble(resp.Results)
	response := map[string]interface{}{
		"repo_id":       repoID,
		"results":       formatResults(resp.Results),
		"context":       contextStr,
		"chunks_used":   used,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"answer_source": "none",
	}

	if getBoolDefault(args, "generate_answer", true) && s.generator != nil && len(resp.Results) > 0 {
		answer, genErr := s.generator.Generate(ctx, generation.QAPrompt(question, contextStr))
		if genErr != nil {
			s.log.Warn("answer generation failed", zap.Error(genErr))
			response["answer_error"] = genErr.Error()
		} else {
			response["answer"] = answer
			response["answer_source"] = "generated"
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleExplainSelection handles the explain_selection tool invocation
func (s *Server) handleExplainSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repoID, ok := args["repo_id"].(string)
	if !ok || repoID == "" {
		return nil, missingParam("repo_id")
	}
	filePath, ok := args["file_path"].(string)
	if !ok || filePath == "" {
		return nil, missingParam("file_path")
	}
	selectedText, ok := args["selected_text"].(string)
	if !ok || selectedText == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "selected_text parameter is required and cannot be empty", map[string]interface{}{
			"param":  "selected_text",
			"reason": "missing or empty",
		})
	}
	startLine := getIntDefault(args, "start_line", 0)
	endLine := getIntDefault(args, "end_line", 0)
	if startLine < 1 || endLine < startLine {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid line range",
			map[string]interface{}{"start_line": startLine, "end_line": endLine})
	}
	relatedLimit := getIntDefault(args, "related_limit", s.cfg.Retrieval.RelatedLimit)
	if relatedLimit < 0 || relatedLimit > retriever.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams,
			fmt.Sprintf("related_limit must be between 0 and %d", retriever.MaxLimit),
			map[string]interface{}{"param": "related_limit", "value": relatedLimit})
	}

	resp, err := s.retriever.ExplainSelection(ctx, retriever.SelectionRequest{
		RepoID:       repoID,
		FilePath:     filePath,
		StartLine:    startLine,
		EndLine:      endLine,
		SelectedText: selectedText,
		RelatedLimit: relatedLimit,
	})
	if err != nil {
		return nil, s.toolError(err, "retrieval failed")
	}

	contextStr, used := s.assembler.Assemble(resp.Results)
	response := map[string]interface{}{
		"repo_id":       repoID,
		"results":       formatResults(resp.Results),
		"context":       contextStr,
		"chunks_used":   used,
		"duration_ms":   resp.Duration.Milliseconds(),
		"answer_source": "none",
	}

	if getBoolDefault(args, "generate_answer", true) && s.generator != nil {
		prompt := generation.ExplainPrompt(filePath, startLine, endLine, selectedText, contextStr)
		answer, genErr := s.generator.Generate(ctx, prompt)
		if genErr != nil {
			s.log.Warn("explanation generation failed", zap.Error(genErr))
			response["answer_error"] = genErr.Error()
		} else {
			response["explanation"] = answer
			response["answer_source"] = "generated"
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	filter, _ := args["repo_id"].(string)

	persisted, err := s.store.List()
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list index artifacts", map[string]interface{}{
			"error": err.Error(),
		})
	}

	seen := make(map[string]bool)
	var repos []map[string]interface{}
	add := func(repoID string) {
		if seen[repoID] || (filter != "" && repoID != filter) {
			return
		}
		seen[repoID] = true
		entry := map[string]interface{}{
			"repo_id":   repoID,
			"loaded":    false,
			"persisted": s.store.Has(repoID),
		}
		if idx, ok := s.registry.Get(repoID); ok {
			entry["loaded"] = true
			entry["chunks"] = idx.Len()
			entry["dimension"] = idx.Dimension()
			entry["indexed_at"] = idx.CreatedAt().Format("2006-01-02T15:04:05Z07:00")
		}
		repos = append(repos, entry)
	}
	for _, id := range s.registry.Repos() {
		add(id)
	}
	for _, id := range persisted {
		add(id)
	}

	response := map[string]interface{}{
		"server":             ServerName,
		"version":            ServerVersion,
		"embedding_provider": s.embedder.Provider(),
		"index_dir":          s.store.Root(),
		"generation":         s.generator != nil,
		"repositories":       repos,
	}
	if filter != "" && len(repos) == 0 {
		response["message"] = fmt.Sprintf("Repository %q is not indexed. Use the index_repository tool first.", filter)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveRepository handles the remove_repository tool invocation
func (s *Server) handleRemoveRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	repoID, ok := args["repo_id"].(string)
	if !ok || repoID == "" {
		return nil, missingParam("repo_id")
	}

	if err := s.builder.Remove(repoID); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to remove repository", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.retriever.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"removed": true,
		"repo_id": repoID,
	})), nil
}

// toolError maps pipeline errors onto MCP error codes.
func (s *Server) toolError(err error, message string) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrNotIndexed):
		code = ErrorCodeNotIndexed
	case errors.Is(err, types.ErrIndexUnavailable):
		code = ErrorCodeIndexUnavailable
	case errors.Is(err, types.ErrEmbeddingFailed):
		code = ErrorCodeEmbeddingFailed
	case errors.Is(err, retriever.ErrEmptyQuestion),
		errors.Is(err, retriever.ErrEmptySelection):
		code = ErrorCodeEmptyQuery
	case errors.Is(err, retriever.ErrInvalidRange):
		code = ErrorCodeInvalidParams
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// formatResults maps retrieval results into the wire representation.
func formatResults(results []types.RetrievalResult) []map[string]interface{} {
	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		out[i] = map[string]interface{}{
			"file_path":  r.Chunk.FilePath,
			"start_line": r.Chunk.StartLine,
			"end_line":   r.Chunk.EndLine,
			"language":   string(r.Chunk.Language),
			"score":      r.Score,
			"source":     string(r.Source),
			"text":       r.Chunk.Text,
		}
	}
	return out
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func missingParam(name string) error {
	return newMCPError(ErrorCodeInvalidParams, name+" parameter is required", map[string]interface{}{
		"param":  name,
		"reason": "missing or empty",
	})
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path is an absolute, readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)

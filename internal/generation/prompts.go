package generation

import "fmt"

// explainPrompt frames a selection explanation request for the model.
const explainPrompt = `You are an expert code analyst explaining selected code to a developer.

**Selected Code** (from %s, lines %d-%d):
` + "```" + `
%s
` + "```" + `

**Repository Context**:
%s

**Your Task**: Explain the selected code clearly and thoroughly.

Guidelines:
1. **What it does**: Explain the functionality in plain English
2. **How it works**: Break down the logic step by step
3. **Key concepts**: Highlight important patterns, algorithms, or design decisions
4. **Dependencies**: Note any important imports, functions, or classes it relies on
5. **Context**: Explain how it fits into the broader codebase (if visible from context)

Use Markdown formatting. Be educational and clear.

Explanation:`

// qaPrompt frames a repository question for the model.
const qaPrompt = `You are an expert code analyst helping a developer understand a repository.

**User Question**: %s

**Retrieved Repository Context**:
%s

**Your Task**: Answer the user's question based ONLY on the retrieved context.

Guidelines:
1. **Be specific**: Reference exact files, functions, and line ranges when possible
2. **Multi-file reasoning**: If the answer spans multiple files, explain the connections
3. **Grounded answers**: Only use information from the context above
4. **Admit limitations**: If the context doesn't contain the answer, clearly state: "I couldn't find information about [topic] in the retrieved context."
5. **Structured response**: Use bullet points, code snippets, and clear sections

Use Markdown formatting. Be educational and precise.

Answer:`

// ExplainPrompt builds the prompt for a selection explanation.
func ExplainPrompt(filePath string, startLine, endLine int, selectedCode, context string) string {
	return fmt.Sprintf(explainPrompt, filePath, startLine, endLine, selectedCode, context)
}

// QAPrompt builds the prompt for a repository question.
func QAPrompt(question, context string) string {
	return fmt.Sprintf(qaPrompt, question, context)
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ahoffer/cogito/pkg/thinkmodel"
)

// Preview lengths bound prompt size: full definitions go into the solution
// prompt, but selection sees a preview, and examples are always previews.
const (
	definitionPreviewLen = 300
	examplePreviewLen    = 200
)

const selectionSystemPrompt = `You are an expert at selecting relevant thinking models for problem-solving.
Given a user query and a list of available thinking models with their definitions, select only those that are potentially helpful.

Your response should be a JSON list of model IDs, like: ["model1", "model2", "model3"]
Select between 0-3 of the most relevant models. Only select a model when it's truly useful. If no model fits, select none.`

const solutionSystemPrompt = `You are an expert problem solver. You have been provided with thinking models that may assist in solving a user's query.
Only use these thinking models as guidance if they are helpful. Otherwise, feel free to ignore them.

For each thinking model provided, consider:
1. Its applicability to the problem
2. Whether using its methodology adds value
3. If so, explicitly reference it in your solution

Provide a clear, structured response that demonstrates thoughtful application when relevant, but don't force their use.`

// preview truncates s to at most n runes, marking the cut with an ellipsis.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func buildSelectionPrompt(query string, available []thinkmodel.Model) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User Query: %s\n\nAvailable Thinking Models:\n", query)
	for _, m := range available {
		fmt.Fprintf(&b, "**%s**: %s\n\n", m.ID, preview(m.Definition, definitionPreviewLen))
	}
	b.WriteString("Select the most relevant thinking models for this query:")

	return b.String()
}

func buildSolutionPrompt(query string, selected []thinkmodel.Model) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User Query: %s\n\nRelevant Thinking Models:\n", query)
	for i, m := range selected {
		fmt.Fprintf(&b, "\n%d. **%s** (%s)\n   Definition: %s\n", i+1, m.ID, m.Kind, m.Definition)
		if len(m.Examples) > 0 {
			b.WriteString("\n   Examples:\n")
			for j, ex := range m.Examples {
				fmt.Fprintf(&b, "   %d. %s\n", j+1, preview(ex, examplePreviewLen))
			}
		}
	}
	b.WriteString("\nUsing these thinking models as guidance, provide a comprehensive solution to the user's query:")

	return b.String()
}

// stripFence removes a fenced-code-block wrapper, with or without a
// language tag, from an LLM reply. Replies without a fence pass through.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "[]{}") {
		// Drop a language tag such as "json" on the opening fence line.
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// parseSelection extracts the JSON array of model IDs from a selection
// reply. Anything unparsable is a *SelectionParseError soft failure.
func parseSelection(reply string) ([]string, error) {
	cleaned := stripFence(reply)

	var ids []string
	if err := json.Unmarshal([]byte(cleaned), &ids); err != nil {
		return nil, &SelectionParseError{Reply: reply, Err: err}
	}

	return ids, nil
}

package assistant

import (
	"sort"

	"github.com/devpad-platform/devpad/internal/projects"
)

// EstimateTokens approximates the token cost of file content at 4 characters
// per token, rounded up. The heuristic is deliberately decoupled from any
// real tokenizer: it budgets prompt size, it does not predict billing.
func EstimateTokens(content string) int {
	return (len(content) + 3) / 4
}

// SelectContext picks the subset of project files to send as AI context
// under the given token budget.
//
// Files are considered most-recently-modified first (stable order for ties)
// and accepted greedily. The walk stops entirely at the first file that
// would overflow the budget instead of skipping ahead to smaller files:
// consumers rely on a stable, recency-biased prefix, not on bin-packing
// optimality.
func SelectContext(files []projects.File, maxTokens int) []projects.File {
	if len(files) == 0 || maxTokens <= 0 {
		return nil
	}

	sorted := make([]projects.File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastModified.After(sorted[j].LastModified)
	})

	var selected []projects.File
	total := 0
	for i := range sorted {
		cost := EstimateTokens(sorted[i].Content)
		if total+cost > maxTokens {
			break
		}
		selected = append(selected, sorted[i])
		total += cost
	}
	return selected
}

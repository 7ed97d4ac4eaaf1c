package commands

import "github.com/tyemirov/projtree/internal/types"

// SummarizeTree counts the entries below root and totals their sizes and token counts.
// The root itself is not counted.
func SummarizeTree(root *types.TreeOutputNode) types.TreeSummary {
	var summary types.TreeSummary
	if root == nil {
		return summary
	}
	for _, child := range root.Children {
		accumulateSummary(child, &summary)
	}
	return summary
}

func accumulateSummary(node *types.TreeOutputNode, summary *types.TreeSummary) {
	if !node.IsDirectory() {
		summary.Files++
		summary.Bytes += node.SizeBytes
		summary.Tokens += node.Tokens
		return
	}
	summary.Directories++
	if node.Truncated {
		summary.TruncatedDirectories++
		return
	}
	for _, child := range node.Children {
		accumulateSummary(child, summary)
	}
}

// CountTreeNodes returns the number of entries rendered for root, which is one line per entry.
func CountTreeNodes(root *types.TreeOutputNode) int {
	summary := SummarizeTree(root)
	return summary.Directories + summary.Files
}

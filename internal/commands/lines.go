package commands

import (
	"fmt"
	"strings"

	"github.com/tyemirov/projtree/internal/types"
)

const (
	branchConnector     = "├── "
	lastBranchConnector = "└── "
	branchIndent        = "│   "
	lastBranchIndent    = "    "
	directorySuffix     = "/"

	// TruncationMarker follows the name of a directory that was not expanded.
	TruncationMarker = "/... (depth limit reached)"

	tokenAnnotationFormat = "%d tokens"
	binaryAnnotation      = "binary"
	annotationSeparator   = ", "
)

// LineOptions controls the annotations and styling applied to rendered tree lines.
// Style functions receive the entry label only; connectors are never styled.
type LineOptions struct {
	ShowSizes      bool
	ShowTokens     bool
	StyleDirectory func(label string) string
	StyleTruncated func(label string) string
}

// RenderTreeLines renders the descendants of root as connector-prefixed lines, one per entry.
// The root itself is not rendered.
func RenderTreeLines(root *types.TreeOutputNode, options LineOptions) []string {
	if root == nil {
		return nil
	}
	return appendTreeLines(make([]string, 0, len(root.Children)), root.Children, "", options)
}

func appendTreeLines(lines []string, children []*types.TreeOutputNode, prefix string, options LineOptions) []string {
	for childIndex, child := range children {
		connector := branchConnector
		childPrefix := prefix + branchIndent
		if childIndex == len(children)-1 {
			connector = lastBranchConnector
			childPrefix = prefix + lastBranchIndent
		}
		lines = append(lines, prefix+connector+formatEntryLabel(child, options))
		if child.IsDirectory() && !child.Truncated {
			lines = appendTreeLines(lines, child.Children, childPrefix, options)
		}
	}
	return lines
}

func formatEntryLabel(node *types.TreeOutputNode, options LineOptions) string {
	switch {
	case node.Truncated:
		return applyStyle(options.StyleTruncated, node.Name+TruncationMarker)
	case node.IsDirectory():
		return applyStyle(options.StyleDirectory, node.Name+directorySuffix)
	}

	var annotations []string
	if options.ShowSizes && node.Size != "" {
		annotations = append(annotations, node.Size)
	}
	if options.ShowTokens {
		if node.Type == types.NodeTypeBinary {
			annotations = append(annotations, binaryAnnotation)
		} else {
			annotations = append(annotations, fmt.Sprintf(tokenAnnotationFormat, node.Tokens))
		}
	}
	if len(annotations) == 0 {
		return node.Name
	}
	return node.Name + " (" + strings.Join(annotations, annotationSeparator) + ")"
}

func applyStyle(style func(string) string, label string) string {
	if style == nil {
		return label
	}
	return style(label)
}

// BuildLines builds the tree below rootDirectoryPath and renders it without annotations.
func (treeBuilder *TreeBuilder) BuildLines(rootDirectoryPath string) ([]string, error) {
	rootNode, buildError := treeBuilder.GetTreeData(rootDirectoryPath)
	if buildError != nil {
		return nil, buildError
	}
	return RenderTreeLines(rootNode, LineOptions{}), nil
}

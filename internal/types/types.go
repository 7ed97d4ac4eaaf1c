// Package types defines every cross‑package data structure used by the projtree CLI.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
	NodeTypeBinary    = "binary"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatYAML = "yaml"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// TreeOutputNode represents a node of a rendered directory tree.
// Truncated marks a directory that exists below the depth limit and was not expanded.
type TreeOutputNode struct {
	XMLName   xml.Name          `json:"-" xml:"node" yaml:"-"`
	Path      string            `json:"path" xml:"path" yaml:"path"`
	Name      string            `json:"name" xml:"name" yaml:"name"`
	Type      string            `json:"type" xml:"type" yaml:"type"`
	Truncated bool              `json:"truncated,omitempty" xml:"truncated,omitempty" yaml:"truncated,omitempty"`
	Size      string            `json:"size,omitempty" xml:"size,omitempty" yaml:"size,omitempty"`
	SizeBytes int64             `json:"-" xml:"-" yaml:"-"`
	Tokens    int               `json:"tokens,omitempty" xml:"tokens,omitempty" yaml:"tokens,omitempty"`
	Children  []*TreeOutputNode `json:"children,omitempty" xml:"children>node,omitempty" yaml:"children,omitempty"`
}

// IsDirectory reports whether the node represents a directory, expanded or truncated.
func (node *TreeOutputNode) IsDirectory() bool {
	return node != nil && node.Type == NodeTypeDirectory
}

// IgnoreFileListing is the echoed content of the root .gitignore. Disabled is set when
// .gitignore rules are turned off; the patterns are then not listed.
type IgnoreFileListing struct {
	Found    bool     `json:"found" xml:"found,attr" yaml:"found"`
	Disabled bool     `json:"disabled,omitempty" xml:"disabled,attr,omitempty" yaml:"disabled,omitempty"`
	Patterns []string `json:"patterns,omitempty" xml:"pattern,omitempty" yaml:"patterns,omitempty"`
}

// TreeReport is the document rendered by every output format.
type TreeReport struct {
	XMLName   xml.Name          `json:"-" xml:"report" yaml:"-"`
	Root      string            `json:"root" xml:"root" yaml:"root"`
	MaxDepth  int               `json:"maxDepth" xml:"maxDepth" yaml:"maxDepth"`
	GitIgnore IgnoreFileListing `json:"gitignore" xml:"gitignore" yaml:"gitignore"`
	Model     string            `json:"model,omitempty" xml:"model,omitempty" yaml:"model,omitempty"`
	Summary   TreeSummary       `json:"summary" xml:"summary" yaml:"summary"`
	Tree      *TreeOutputNode   `json:"tree" xml:"tree>node" yaml:"tree"`
}

// TreeSummary totals the entries of a rendered tree.
type TreeSummary struct {
	Directories          int   `json:"directories" xml:"directories" yaml:"directories"`
	TruncatedDirectories int   `json:"truncatedDirectories" xml:"truncatedDirectories" yaml:"truncatedDirectories"`
	Files                int   `json:"files" xml:"files" yaml:"files"`
	Bytes                int64 `json:"bytes,omitempty" xml:"bytes,omitempty" yaml:"bytes,omitempty"`
	Tokens               int   `json:"tokens,omitempty" xml:"tokens,omitempty" yaml:"tokens,omitempty"`
}

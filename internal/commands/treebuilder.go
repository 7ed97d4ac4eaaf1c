package commands

import (
	"io/fs"

	"github.com/tyemirov/projtree/internal/ignore"
)

// DefaultMaxDepth is the number of directory levels expanded when no limit is configured.
const DefaultMaxDepth = 3

// TreeBuilder builds directory tree nodes using configured options.
//
// Ignorer receives paths relative to the root in slash form; a nil Ignorer keeps every entry.
// Directories at MaxDepth are reported as truncated instead of being listed, so a MaxDepth of 0
// shows the root's entries only. FileSystem defaults to os.DirFS of the root being built.
// Unreadable subdirectories are reported through Warn and left empty unless Strict is set.
type TreeBuilder struct {
	Ignorer      ignore.Ignorer
	MaxDepth     int
	IncludeSizes bool
	Strict       bool
	FileSystem   fs.FS
	Warn         func(message string)
}

func (treeBuilder *TreeBuilder) warn(message string) {
	if treeBuilder.Warn != nil {
		treeBuilder.Warn(message)
	}
}

func (treeBuilder *TreeBuilder) ignored(relativePath string, isDirectory bool) bool {
	return treeBuilder.Ignorer != nil && treeBuilder.Ignorer.Ignored(relativePath, isDirectory)
}

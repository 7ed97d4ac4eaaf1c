// Package ignore decides which entries are left out of a rendered tree.
//
// Every Ignorer receives paths relative to the tree root in slash-separated form
// ("cmd/projtree/main.go") together with a flag telling whether the entry is a directory.
package ignore

import (
	"path"
	"strings"

	"github.com/tyemirov/projtree/internal/utils"
)

// Ignorer reports whether an entry should be skipped.
type Ignorer interface {
	Ignored(relativePath string, isDirectory bool) bool
}

// IgnoreFunc adapts an ordinary function to the Ignorer interface.
type IgnoreFunc func(relativePath string, isDirectory bool) bool

// Ignored calls function(relativePath, isDirectory).
func (function IgnoreFunc) Ignored(relativePath string, isDirectory bool) bool {
	return function(relativePath, isDirectory)
}

// Nothing never ignores anything.
var Nothing Ignorer = IgnoreFunc(func(string, bool) bool { return false })

// Verdict is the outcome of one ignore source for one entry.
type Verdict int

const (
	// Undecided means no rule of the source matched.
	Undecided Verdict = iota
	// Excluded means the last matching rule ignores the entry.
	Excluded
	// Included means the last matching rule is a negation that keeps the entry.
	Included
)

// Judge is an ignore source that can tell a negated match apart from no match at all.
type Judge interface {
	Verdict(relativePath string, isDirectory bool) Verdict
}

type layeredIgnorer []Judge

// Layered stacks judges from the least to the most specific, the way Git stacks the
// .gitignore files of a directory and its ancestors: the last judge with a verdict decides.
// Nil judges are dropped.
func Layered(judges ...Judge) Ignorer {
	var layers layeredIgnorer
	for _, judge := range judges {
		if judge != nil {
			layers = append(layers, judge)
		}
	}
	if len(layers) == 0 {
		return Nothing
	}
	return layers
}

func (layers layeredIgnorer) Ignored(relativePath string, isDirectory bool) bool {
	for index := len(layers) - 1; index >= 0; index-- {
		switch layers[index].Verdict(relativePath, isDirectory) {
		case Excluded:
			return true
		case Included:
			return false
		}
	}
	return false
}

type anyIgnorer []Ignorer

// Any combines ignorers; an entry is skipped when at least one of them skips it.
// Nil ignorers are dropped.
func Any(ignorers ...Ignorer) Ignorer {
	var combined anyIgnorer
	for _, ignorer := range ignorers {
		if ignorer == nil {
			continue
		}
		combined = append(combined, ignorer)
	}
	switch len(combined) {
	case 0:
		return Nothing
	case 1:
		return combined[0]
	default:
		return combined
	}
}

func (ignorers anyIgnorer) Ignored(relativePath string, isDirectory bool) bool {
	for _, ignorer := range ignorers {
		if ignorer.Ignored(relativePath, isDirectory) {
			return true
		}
	}
	return false
}

// GitDirectory ignores every entry named .git at any level. Submodules and worktrees
// use a plain .git file, so the entry type is not checked.
func GitDirectory() Ignorer {
	return IgnoreFunc(func(relativePath string, _ bool) bool {
		return path.Base(relativePath) == utils.GitDirectoryName
	})
}

type scopedJudge struct {
	directoryPrefix string
	judge           Judge
}

// Scoped restricts judge to entries below directory (relative to the tree root) and
// hands it paths relative to that directory, the way Git applies a nested .gitignore.
func Scoped(directory string, judge Judge) Judge {
	if judge == nil {
		return nil
	}
	trimmedDirectory := strings.Trim(directory, "/")
	if trimmedDirectory == utils.EmptyString || trimmedDirectory == "." {
		return judge
	}
	return scopedJudge{directoryPrefix: trimmedDirectory + "/", judge: judge}
}

func (scoped scopedJudge) Verdict(relativePath string, isDirectory bool) Verdict {
	if !strings.HasPrefix(relativePath, scoped.directoryPrefix) {
		return Undecided
	}
	return scoped.judge.Verdict(strings.TrimPrefix(relativePath, scoped.directoryPrefix), isDirectory)
}

func (scoped scopedJudge) Ignored(relativePath string, isDirectory bool) bool {
	return scoped.Verdict(relativePath, isDirectory) == Excluded
}

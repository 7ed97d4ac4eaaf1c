package ignore

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	anchorPrefix         = "/"
	directorySuffix      = "/"
	validationSampleName = "sample"

	errorParsePatternFormat    = "unable to parse pattern %q: %w"
	errorValidatePatternFormat = "invalid glob: %w"
)

var (
	errEmptyPattern = errors.New("empty pattern")
	errRootPattern  = errors.New("pattern targets the tree root")
)

// exclusionGlob is one parsed --exclude pattern.
type exclusionGlob struct {
	glob          string
	negated       bool
	directoryOnly bool
	// baseNameToo is set for unanchored patterns without a slash, which match at any depth.
	baseNameToo bool
}

func parseExclusionGlob(rawPattern string) (exclusionGlob, error) {
	var parsed exclusionGlob
	body := strings.TrimSpace(rawPattern)
	if trimmed, negated := strings.CutPrefix(body, negationPrefix); negated {
		parsed.negated = true
		body = trimmed
	}
	if body == "" {
		return exclusionGlob{}, errEmptyPattern
	}

	parsed.directoryOnly = strings.HasSuffix(body, directorySuffix)
	anchored := strings.HasPrefix(body, anchorPrefix)
	body = strings.Trim(path.Clean(body), anchorPrefix)
	if body == "" || body == "." {
		return exclusionGlob{}, errRootPattern
	}

	parsed.glob = body
	parsed.baseNameToo = !anchored && !strings.Contains(body, "/")
	if _, matchError := doublestar.Match(parsed.glob, validationSampleName); matchError != nil {
		return exclusionGlob{}, fmt.Errorf(errorValidatePatternFormat, matchError)
	}
	return parsed, nil
}

func (exclusion exclusionGlob) matches(relativePath string, isDirectory bool) bool {
	if exclusion.directoryOnly && !isDirectory {
		return false
	}
	if matched, _ := doublestar.Match(exclusion.glob, relativePath); matched {
		return true
	}
	if !exclusion.baseNameToo {
		return false
	}
	matched, _ := doublestar.Match(exclusion.glob, path.Base(relativePath))
	return matched
}

// PatternIgnorer evaluates exclusion globs in order; the last matching pattern decides.
type PatternIgnorer struct {
	globs []exclusionGlob
}

// NewPatternIgnorer parses exclusion globs. A leading "!" negates, a leading "/" anchors the
// pattern to the tree root, a trailing "/" restricts it to directories and a pattern without a
// slash is also matched against the entry's base name. "**" crosses directory boundaries.
func NewPatternIgnorer(patterns []string) (*PatternIgnorer, error) {
	globs := make([]exclusionGlob, 0, len(patterns))
	for _, pattern := range patterns {
		parsed, parseError := parseExclusionGlob(pattern)
		if parseError != nil {
			return nil, fmt.Errorf(errorParsePatternFormat, pattern, parseError)
		}
		globs = append(globs, parsed)
	}
	return &PatternIgnorer{globs: globs}, nil
}

// EnsurePatternValid reports whether pattern is a valid exclusion glob.
func EnsurePatternValid(pattern string) error {
	_, parseError := parseExclusionGlob(pattern)
	return parseError
}

// Ignored implements Ignorer.
func (ignorer *PatternIgnorer) Ignored(relativePath string, isDirectory bool) bool {
	return ignorer.Verdict(relativePath, isDirectory) == Excluded
}

// Verdict reports the decision of the last glob matching relativePath.
func (ignorer *PatternIgnorer) Verdict(relativePath string, isDirectory bool) Verdict {
	if ignorer == nil {
		return Undecided
	}
	for index := len(ignorer.globs) - 1; index >= 0; index-- {
		glob := ignorer.globs[index]
		if !glob.matches(relativePath, isDirectory) {
			continue
		}
		if glob.negated {
			return Included
		}
		return Excluded
	}
	return Undecided
}

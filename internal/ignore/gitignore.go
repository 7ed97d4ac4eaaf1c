package ignore

import (
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

const (
	negationPrefix = "!"
	// singleCharacterClass is handed to go-gitignore in place of "?", which it would
	// otherwise escape to a literal question mark. The slash is spelled as a hex escape
	// because go-gitignore treats a literal "/" in a pattern as an anchor.
	singleCharacterClass = `[^\x2f]`
	// literalQuestionMark replaces an escaped "\?".
	literalQuestionMark = "[?]"
)

type gitIgnoreRule struct {
	compiled *gitignore.GitIgnore
	negated  bool
}

// GitIgnoreMatcher applies .gitignore syntax to paths relative to the directory holding the file.
// Rules are evaluated in order and the last matching rule decides, so "!pattern" re-includes
// entries excluded by an earlier rule.
type GitIgnoreMatcher struct {
	rules    []gitIgnoreRule
	patterns []string
}

// NewGitIgnoreMatcher compiles .gitignore lines. Comments and blank lines are allowed.
func NewGitIgnoreMatcher(lines ...string) *GitIgnoreMatcher {
	matcher := &GitIgnoreMatcher{patterns: append([]string(nil), lines...)}
	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		rule := gitIgnoreRule{}
		if strings.HasPrefix(trimmedLine, negationPrefix) {
			rule.negated = true
			trimmedLine = trimmedLine[len(negationPrefix):]
		}
		if trimmedLine == "" {
			continue
		}
		// Each rule is compiled on its own; go-gitignore drops a negation that follows no match.
		rule.compiled = gitignore.CompileIgnoreLines(normalizeDirectoryPattern(normalizeWildcards(trimmedLine)))
		matcher.rules = append(matcher.rules, rule)
	}
	return matcher
}

// Patterns returns the lines the matcher was compiled from.
func (matcher *GitIgnoreMatcher) Patterns() []string {
	return append([]string(nil), matcher.patterns...)
}

// Ignored matches directories with a trailing slash so "name/" rules never hit files.
func (matcher *GitIgnoreMatcher) Ignored(relativePath string, isDirectory bool) bool {
	return matcher.Verdict(relativePath, isDirectory) == Excluded
}

// Verdict reports the decision of the last rule matching relativePath.
func (matcher *GitIgnoreMatcher) Verdict(relativePath string, isDirectory bool) Verdict {
	if matcher == nil {
		return Undecided
	}
	candidate := relativePath
	if isDirectory {
		candidate += "/"
	}
	for index := len(matcher.rules) - 1; index >= 0; index-- {
		rule := matcher.rules[index]
		if !rule.compiled.MatchesPath(candidate) {
			continue
		}
		if rule.negated {
			return Included
		}
		return Excluded
	}
	return Undecided
}

// normalizeWildcards rewrites "?" into a class matching one non-slash character and "\?"
// into a class matching a literal question mark.
func normalizeWildcards(pattern string) string {
	if !strings.Contains(pattern, "?") {
		return pattern
	}
	var builder strings.Builder
	for index := 0; index < len(pattern); index++ {
		character := pattern[index]
		switch {
		case character == '\\' && index+1 < len(pattern) && pattern[index+1] == '?':
			builder.WriteString(literalQuestionMark)
			index++
		case character == '?':
			builder.WriteString(singleCharacterClass)
		default:
			builder.WriteByte(character)
		}
	}
	return builder.String()
}

// normalizeDirectoryPattern rewrites a bare "name/" rule as "**/name/". Git matches such a rule
// at any depth, while a slash inside a go-gitignore pattern anchors it to the root.
func normalizeDirectoryPattern(body string) string {
	if !strings.HasSuffix(body, "/") || strings.HasPrefix(body, "/") {
		return body
	}
	if strings.Contains(strings.TrimSuffix(body, "/"), "/") || strings.HasPrefix(body, "**") {
		return body
	}
	return "**/" + body
}

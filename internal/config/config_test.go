package config

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/tyemirov/projtree/internal/utils"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(filepath.Dir(filePath), 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create directory for %s: %v", filePath, makeDirError)
	}
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// TestLoadIgnoreFilePatternsSkipsCommentsAndBlankLines verifies the pattern listing echoed before the tree.
func TestLoadIgnoreFilePatternsSkipsCommentsAndBlankLines(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	gitIgnorePath := filepath.Join(rootDirectory, utils.GitIgnoreFileName)
	writeTestFile(testingHandle, gitIgnorePath, "# build output\n\nbuild/\n  *.log  \n\t\n!keep.log\n")

	patterns, loadError := LoadIgnoreFilePatterns(gitIgnorePath)
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreFilePatterns failed: %v", loadError)
	}
	expectedPatterns := []string{"build/", "*.log", "!keep.log"}
	if !reflect.DeepEqual(patterns, expectedPatterns) {
		testingHandle.Fatalf("unexpected patterns: got %v want %v", patterns, expectedPatterns)
	}
}

// TestLoadIgnoreFilePatternsMissingFile verifies that a missing ignore file is not an error.
func TestLoadIgnoreFilePatternsMissingFile(testingHandle *testing.T) {
	patterns, loadError := LoadIgnoreFilePatterns(filepath.Join(testingHandle.TempDir(), utils.GitIgnoreFileName))
	if loadError != nil {
		testingHandle.Fatalf("expected no error, got %v", loadError)
	}
	if len(patterns) != 0 {
		testingHandle.Fatalf("expected no patterns, got %v", patterns)
	}
}

// TestLoadIgnoreRulesRootGitIgnore verifies root .gitignore rules, the listing and the .git rule.
func TestLoadIgnoreRulesRootGitIgnore(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "b/\n")

	rules, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: true, UseIgnoreFile: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
	}
	if !rules.GitIgnore.Found || !reflect.DeepEqual(rules.GitIgnore.Patterns, []string{"b/"}) {
		testingHandle.Fatalf("unexpected listing: %+v", rules.GitIgnore)
	}
	if !rules.Ignorer.Ignored("b", true) {
		testingHandle.Fatalf("expected directory b to be ignored")
	}
	if rules.Ignorer.Ignored("a.txt", false) {
		testingHandle.Fatalf("expected a.txt to be kept")
	}
	if !rules.Ignorer.Ignored(utils.GitDirectoryName, true) {
		testingHandle.Fatalf("expected .git to be ignored by default")
	}
}

// TestLoadIgnoreRulesToggles verifies the include-git, no-gitignore and no-ignore switches.
func TestLoadIgnoreRulesToggles(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "*.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.IgnoreFileName), "*.tmp\n")

	testCases := []struct {
		name           string
		options        IgnoreOptions
		path           string
		isDirectory    bool
		expectIgnored  bool
		expectListings bool
	}{
		{name: "gitignore applies", options: IgnoreOptions{UseGitignore: true}, path: "debug.log", expectIgnored: true, expectListings: true},
		{name: "gitignore disabled still found", options: IgnoreOptions{UseGitignore: false}, path: "debug.log", expectIgnored: false, expectListings: true},
		{name: "ignore file applies", options: IgnoreOptions{UseIgnoreFile: true}, path: "cache.tmp", expectIgnored: true, expectListings: true},
		{name: "ignore file disabled", options: IgnoreOptions{UseGitignore: true}, path: "cache.tmp", expectIgnored: false, expectListings: true},
		{name: "git included", options: IgnoreOptions{IncludeGit: true}, path: utils.GitDirectoryName, isDirectory: true, expectIgnored: false, expectListings: true},
		{name: "exclusion pattern", options: IgnoreOptions{ExclusionPatterns: []string{" vendor/ ", ""}}, path: "third_party/vendor", isDirectory: true, expectIgnored: true, expectListings: true},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			rules, loadError := LoadIgnoreRules(rootDirectory, testCase.options)
			if loadError != nil {
				testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
			}
			if ignored := rules.Ignorer.Ignored(testCase.path, testCase.isDirectory); ignored != testCase.expectIgnored {
				testingHandle.Fatalf("Ignored(%s) = %v, want %v", testCase.path, ignored, testCase.expectIgnored)
			}
			if rules.GitIgnore.Found != testCase.expectListings {
				testingHandle.Fatalf("listing found = %v, want %v", rules.GitIgnore.Found, testCase.expectListings)
			}
		})
	}
}

// TestLoadIgnoreRulesGitIgnoreDisabledListsNoPatterns verifies that unused .gitignore patterns are not echoed.
func TestLoadIgnoreRulesGitIgnoreDisabledListsNoPatterns(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "*.log\n")

	rules, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: false, UseIgnoreFile: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
	}
	if !rules.GitIgnore.Disabled || len(rules.GitIgnore.Patterns) != 0 {
		testingHandle.Fatalf("unexpected listing: %+v", rules.GitIgnore)
	}

	enabledRules, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
	}
	if enabledRules.GitIgnore.Disabled || !reflect.DeepEqual(enabledRules.GitIgnore.Patterns, []string{"*.log"}) {
		testingHandle.Fatalf("unexpected listing: %+v", enabledRules.GitIgnore)
	}
}

// TestLoadIgnoreRulesNestedNegationOverridesRoot verifies that a deeper ignore file wins over its ancestors.
func TestLoadIgnoreRulesNestedNegationOverridesRoot(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "*.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", utils.GitIgnoreFileName), "!keep.log\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "deeper", utils.IgnoreFileName), "keep.log\n")

	rules, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: true, UseIgnoreFile: true, Nested: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
	}
	testCases := []struct {
		path          string
		expectIgnored bool
	}{
		{path: "keep.log", expectIgnored: true},
		{path: "sub/keep.log", expectIgnored: false},
		{path: "sub/other.log", expectIgnored: true},
		{path: "sub/deeper/keep.log", expectIgnored: true},
	}
	for _, testCase := range testCases {
		if ignored := rules.Ignorer.Ignored(testCase.path, false); ignored != testCase.expectIgnored {
			testingHandle.Fatalf("Ignored(%s) = %v, want %v", testCase.path, ignored, testCase.expectIgnored)
		}
	}
}

// TestLoadIgnoreRulesInvalidExclusion verifies that malformed exclusion globs are reported.
func TestLoadIgnoreRulesInvalidExclusion(testingHandle *testing.T) {
	_, loadError := LoadIgnoreRules(testingHandle.TempDir(), IgnoreOptions{ExclusionPatterns: []string{"["}})
	if loadError == nil {
		testingHandle.Fatalf("expected an error for an invalid exclusion pattern")
	}
}

// TestLoadIgnoreRulesNestedGitIgnore verifies that nested .gitignore files apply to their own subtree only.
func TestLoadIgnoreRulesNestedGitIgnore(testingHandle *testing.T) {
	const nestedDirectoryName = "web"

	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, nestedDirectoryName, utils.GitIgnoreFileName), "dist/\n*.map\n")

	nestedRules, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: true, Nested: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
	}
	if nestedRules.GitIgnore.Found {
		testingHandle.Fatalf("expected no root .gitignore listing")
	}
	if !nestedRules.Ignorer.Ignored(nestedDirectoryName+"/dist", true) {
		testingHandle.Fatalf("expected nested dist directory to be ignored")
	}
	if !nestedRules.Ignorer.Ignored(nestedDirectoryName+"/assets/app.js.map", false) {
		testingHandle.Fatalf("expected nested map file to be ignored")
	}
	if nestedRules.Ignorer.Ignored("app.js.map", false) {
		testingHandle.Fatalf("nested rules must not leak to the root")
	}

	flatRules, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: true, Nested: false})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
	}
	if flatRules.Ignorer.Ignored(nestedDirectoryName+"/dist", true) {
		testingHandle.Fatalf("nested rules must be skipped when nesting is disabled")
	}
}

// TestLoadIgnoreRulesSkipsIgnoredDirectories verifies ignore files inside ignored directories are not honoured.
func TestLoadIgnoreRulesSkipsIgnoredDirectories(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, utils.GitIgnoreFileName), "node_modules/\n")
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "node_modules", "pkg", utils.GitIgnoreFileName), "!*\n*.js\n")

	rules, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: true, Nested: true})
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreRules failed: %v", loadError)
	}
	if rules.Ignorer.Ignored("index.js", false) {
		testingHandle.Fatalf("rules from an ignored directory must not apply")
	}
}

// TestLoadIgnoreRulesUnreadableNestedDirectory verifies that an unreadable subdirectory does not abort loading.
func TestLoadIgnoreRulesUnreadableNestedDirectory(testingHandle *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		testingHandle.Skip("permission bits are not enforced")
	}
	rootDirectory := testingHandle.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	if makeDirError := os.Mkdir(lockedDirectory, 0o000); makeDirError != nil {
		testingHandle.Fatalf("mkdir locked: %v", makeDirError)
	}
	testingHandle.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	if _, loadError := LoadIgnoreRules(rootDirectory, IgnoreOptions{UseGitignore: true, UseIgnoreFile: true, Nested: true}); loadError != nil {
		testingHandle.Fatalf("expected unreadable directory to be skipped, got %v", loadError)
	}
}

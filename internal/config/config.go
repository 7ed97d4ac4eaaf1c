// Package config loads ignore files and application configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tyemirov/projtree/internal/ignore"
	"github.com/tyemirov/projtree/internal/types"
	"github.com/tyemirov/projtree/internal/utils"
)

const (
	commentPrefix = "#"

	errorAbsolutePathFormat      = "getting absolute path for %s: %w"
	errorLoadIgnoreFileFormat    = "loading %s from %s: %w"
	errorExclusionPatternsFormat = "parsing exclusion patterns: %w"
	errorWalkIgnoreFilesFormat   = "collecting nested ignore files under %s: %w"
	warningCloseFileFormat       = "Warning: failed to close %s: %v\n"
)

// IgnoreOptions selects which ignore sources contribute to the tree's ignore predicate.
type IgnoreOptions struct {
	ExclusionPatterns []string
	UseGitignore      bool
	UseIgnoreFile     bool
	IncludeGit        bool
	Nested            bool
}

// IgnoreRules is the combined ignore predicate for one tree root along with the
// root .gitignore listing that is echoed before the tree.
type IgnoreRules struct {
	Ignorer   ignore.Ignorer
	GitIgnore types.IgnoreFileListing
}

// LoadIgnoreFilePatterns reads an ignore file and returns its patterns: trimmed, non-empty lines
// that are not comments. A missing file yields no patterns and no error.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if errors.Is(openFileError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil {
			fmt.Fprintf(os.Stderr, warningCloseFileFormat, ignoreFilePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		rawLine := scanner.Text()
		trimmedLine := strings.TrimSpace(rawLine)
		if trimmedLine == utils.EmptyString || strings.HasPrefix(rawLine, commentPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadIgnoreRules builds the ignore predicate for rootDirectoryPath.
// The .git directory is excluded unless IncludeGit is set and exclusion patterns, parsed as
// doublestar globs, always apply. Ignore files are stacked the way Git stacks them: the root
// .gitignore first, then .ignore, then, when Nested is set, the files of each subdirectory scoped
// to its subtree. The last file with a matching rule decides, so a nested "!pattern" re-includes
// what an ancestor excluded. Directories already ignored are not searched for nested ignore files.
func LoadIgnoreRules(rootDirectoryPath string, options IgnoreOptions) (IgnoreRules, error) {
	absoluteRootPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return IgnoreRules{}, fmt.Errorf(errorAbsolutePathFormat, rootDirectoryPath, absolutePathError)
	}
	rootDirectoryPath = absoluteRootPath

	var ignorers []ignore.Ignorer
	if !options.IncludeGit {
		ignorers = append(ignorers, ignore.GitDirectory())
	}

	exclusionPatterns := utils.DeduplicatePatterns(utils.TrimPatterns(options.ExclusionPatterns))
	if len(exclusionPatterns) > 0 {
		exclusionIgnorer, parseError := ignore.NewPatternIgnorer(exclusionPatterns)
		if parseError != nil {
			return IgnoreRules{}, fmt.Errorf(errorExclusionPatternsFormat, parseError)
		}
		ignorers = append(ignorers, exclusionIgnorer)
	}

	judges, listing, loadError := loadDirectoryIgnoreFiles(rootDirectoryPath, options)
	if loadError != nil {
		return IgnoreRules{}, loadError
	}

	if options.Nested && (options.UseGitignore || options.UseIgnoreFile) {
		nestedJudges, walkError := loadNestedIgnoreFiles(rootDirectoryPath, options, ignore.Any(ignorers...), judges)
		if walkError != nil {
			return IgnoreRules{}, fmt.Errorf(errorWalkIgnoreFilesFormat, rootDirectoryPath, walkError)
		}
		judges = append(judges, nestedJudges...)
	}
	ignorers = append(ignorers, ignore.Layered(judges...))

	return IgnoreRules{Ignorer: ignore.Any(ignorers...), GitIgnore: listing}, nil
}

// loadDirectoryIgnoreFiles compiles the .gitignore and .ignore found directly in directoryPath,
// in that order so .ignore rules take precedence.
func loadDirectoryIgnoreFiles(directoryPath string, options IgnoreOptions) ([]ignore.Judge, types.IgnoreFileListing, error) {
	var judges []ignore.Judge
	var listing types.IgnoreFileListing

	gitIgnoreFilePath := filepath.Join(directoryPath, utils.GitIgnoreFileName)
	if fileInformation, statError := os.Stat(gitIgnoreFilePath); statError == nil && !fileInformation.IsDir() {
		listing.Found = true
	}
	listing.Disabled = !options.UseGitignore
	if listing.Found && options.UseGitignore {
		gitIgnorePatterns, loadError := LoadIgnoreFilePatterns(gitIgnoreFilePath)
		if loadError != nil {
			return nil, types.IgnoreFileListing{}, fmt.Errorf(errorLoadIgnoreFileFormat, utils.GitIgnoreFileName, directoryPath, loadError)
		}
		listing.Patterns = gitIgnorePatterns
		if len(gitIgnorePatterns) > 0 {
			judges = append(judges, ignore.NewGitIgnoreMatcher(gitIgnorePatterns...))
		}
	}

	if options.UseIgnoreFile {
		ignoreFilePatterns, loadError := LoadIgnoreFilePatterns(filepath.Join(directoryPath, utils.IgnoreFileName))
		if loadError != nil {
			return nil, types.IgnoreFileListing{}, fmt.Errorf(errorLoadIgnoreFileFormat, utils.IgnoreFileName, directoryPath, loadError)
		}
		if len(ignoreFilePatterns) > 0 {
			judges = append(judges, ignore.NewGitIgnoreMatcher(ignoreFilePatterns...))
		}
	}

	return judges, listing, nil
}

// loadNestedIgnoreFiles walks below rootDirectoryPath and scopes every nested ignore file to its
// directory. WalkDir visits a directory before its subdirectories, so the result is ordered from
// the least to the most specific file.
func loadNestedIgnoreFiles(rootDirectoryPath string, options IgnoreOptions, always ignore.Ignorer, rootJudges []ignore.Judge) ([]ignore.Judge, error) {
	var nestedJudges []ignore.Judge
	// Unreadable directories are left to the tree builder, which reports them.
	walkFunction := func(currentDirectoryPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if directoryEntry != nil && directoryEntry.IsDir() && currentDirectoryPath != rootDirectoryPath {
				return filepath.SkipDir
			}
			return walkError
		}
		if !directoryEntry.IsDir() || currentDirectoryPath == rootDirectoryPath {
			return nil
		}

		relativeDirectory := utils.RelativePathOrSelf(currentDirectoryPath, rootDirectoryPath)
		stacked := ignore.Layered(append(slices.Clone(rootJudges), nestedJudges...)...)
		if always.Ignored(relativeDirectory, true) || stacked.Ignored(relativeDirectory, true) {
			return filepath.SkipDir
		}

		directoryJudges, _, loadError := loadDirectoryIgnoreFiles(currentDirectoryPath, options)
		if loadError != nil {
			if errors.Is(loadError, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return loadError
		}
		for _, directoryJudge := range directoryJudges {
			nestedJudges = append(nestedJudges, ignore.Scoped(relativeDirectory, directoryJudge))
		}
		return nil
	}

	if walkError := filepath.WalkDir(rootDirectoryPath, walkFunction); walkError != nil {
		return nil, walkError
	}
	return nestedJudges, nil
}

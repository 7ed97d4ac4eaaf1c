package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/tyemirov/projtree/internal/commands"
	"github.com/tyemirov/projtree/internal/types"
	"github.com/tyemirov/projtree/internal/utils"
)

const (
	currentDirectoryFormat = "Using current directory: %s\n"
	gitIgnoreHeader        = ".gitignore contents:"
	gitIgnoreNotFound      = ".gitignore not found."
	gitIgnoreDisabled      = ".gitignore rules disabled."
	gitIgnoreRule          = "---------------------"
	gitIgnorePatternIndent = "  "
	projectStructureFormat = "Project structure (%s) with max depth %d:\n"
	summaryFormat          = "Summary: %d %s, %d %s"
	summarySizeFormat      = ", %s"
	summaryTokensFormat    = ", %d tokens"
	summaryModelFormat     = " (model: %s)"
	directorySingularLabel = "directory"
	directoryPluralLabel   = "directories"
	fileSingularLabel      = "file"
	filePluralLabel        = "files"
	rawLineTerminator      = "\n"
	errorWriteRawFormat    = "writing raw output: %w"
)

// RawOptions controls the plain text rendering.
type RawOptions struct {
	// AnnounceCurrentDirectory prints the resolved root first, used when no path was given.
	AnnounceCurrentDirectory bool
	ShowSizes                bool
	ShowTokens               bool
	Color                    bool
}

// RenderRaw writes the .gitignore listing, the header line and the tree lines.
// A summary line follows the tree when sizes or tokens are shown.
func RenderRaw(writer io.Writer, report types.TreeReport, options RawOptions) error {
	var builder strings.Builder

	if options.AnnounceCurrentDirectory {
		fmt.Fprintf(&builder, currentDirectoryFormat, report.Root)
	}

	switch {
	case report.GitIgnore.Disabled:
		builder.WriteString(rawLineTerminator + gitIgnoreDisabled + rawLineTerminator + rawLineTerminator)
	case len(report.GitIgnore.Patterns) > 0:
		builder.WriteString(rawLineTerminator + gitIgnoreHeader + rawLineTerminator)
		builder.WriteString(gitIgnoreRule + rawLineTerminator)
		for _, pattern := range report.GitIgnore.Patterns {
			builder.WriteString(gitIgnorePatternIndent + pattern + rawLineTerminator)
		}
		builder.WriteString(gitIgnoreRule + rawLineTerminator + rawLineTerminator)
	default:
		builder.WriteString(rawLineTerminator + gitIgnoreNotFound + rawLineTerminator + rawLineTerminator)
	}

	rootName := ""
	if report.Tree != nil {
		rootName = report.Tree.Name
	}
	fmt.Fprintf(&builder, projectStructureFormat, rootName, report.MaxDepth)

	lineOptions := commands.LineOptions{ShowSizes: options.ShowSizes, ShowTokens: options.ShowTokens}
	if options.Color {
		lineOptions.StyleDirectory = newStyle(color.FgBlue, color.Bold)
		lineOptions.StyleTruncated = newStyle(color.FgYellow, color.Faint)
	}
	for _, line := range commands.RenderTreeLines(report.Tree, lineOptions) {
		builder.WriteString(line + rawLineTerminator)
	}

	if options.ShowSizes || options.ShowTokens {
		builder.WriteString(FormatSummaryLine(report.Summary, options.ShowSizes, report.Model) + rawLineTerminator)
	}

	if _, writeError := io.WriteString(writer, builder.String()); writeError != nil {
		return fmt.Errorf(errorWriteRawFormat, writeError)
	}
	return nil
}

// FormatSummaryLine describes the entry totals of a tree. Tokens are reported when any were counted.
func FormatSummaryLine(summary types.TreeSummary, includeSize bool, model string) string {
	line := fmt.Sprintf(summaryFormat,
		summary.Directories, pluralize(summary.Directories, directorySingularLabel, directoryPluralLabel),
		summary.Files, pluralize(summary.Files, fileSingularLabel, filePluralLabel))
	if includeSize {
		line += fmt.Sprintf(summarySizeFormat, utils.FormatFileSize(summary.Bytes))
	}
	if summary.Tokens > 0 {
		line += fmt.Sprintf(summaryTokensFormat, summary.Tokens)
		if model != "" {
			line += fmt.Sprintf(summaryModelFormat, model)
		}
	}
	return line
}

func pluralize(count int, singular string, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// newStyle returns a colouring function that ignores color.NoColor, which the caller has already decided.
func newStyle(attributes ...color.Attribute) func(string) string {
	style := color.New(attributes...)
	style.EnableColor()
	return func(label string) string {
		return style.Sprint(label)
	}
}

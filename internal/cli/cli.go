// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tyemirov/projtree/internal/commands"
	"github.com/tyemirov/projtree/internal/config"
	"github.com/tyemirov/projtree/internal/output"
	"github.com/tyemirov/projtree/internal/services/clipboard"
	"github.com/tyemirov/projtree/internal/tokenizer"
	"github.com/tyemirov/projtree/internal/types"
	"github.com/tyemirov/projtree/internal/utils"
)

const (
	maxDepthFlagName    = "max-depth"
	exclusionFlagName   = "exclude"
	exclusionShorthand  = "e"
	noGitignoreFlagName = "no-gitignore"
	noIgnoreFlagName    = "no-ignore"
	includeGitFlagName  = "git"
	nestedFlagName      = "nested"
	formatFlagName      = "format"
	sizesFlagName       = "sizes"
	tokensFlagName      = "tokens"
	modelFlagName       = "model"
	colorFlagName       = "color"
	clipboardFlagName   = "clipboard"
	strictFlagName      = "strict"
	configFlagName      = "config"
	versionFlagName     = "version"
	globalFlagName      = "global"
	forceFlagName       = "force"

	defaultTokenizerModelName = "gpt-4o"

	rootUse              = "projtree [path]"
	rootShortDescription = "visualize a project's directory tree"
	rootLongDescription  = `projtree prints the directory tree of a project, honouring .gitignore and .ignore files.
The .git directory is always skipped unless --git is given. Directories deeper than --max-depth
are shown with a depth limit marker instead of their contents.
When no path is given the current directory is used.`
	rootUsageExample = `  # Show the current project three levels deep
  projtree

  # Show only the top level of ./services as JSON
  projtree --max-depth 0 --format json ./services

  # Exclude generated code and annotate files with sizes and token counts
  projtree -e 'gen/' --sizes --tokens`
	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to ./config.yaml, or to ~/.projtree/config.yaml with --global.
Existing files are only replaced with --force.`

	maxDepthFlagDescription         = "maximum directory depth to expand"
	exclusionFlagDescription        = "exclude path pattern (repeatable, ! negates)"
	disableGitignoreFlagDescription = "do not use .gitignore"
	disableIgnoreFlagDescription    = "do not use .ignore"
	includeGitFlagDescription       = "include git directory"
	nestedFlagDescription           = "honour ignore files found in subdirectories"
	formatFlagDescription           = "output format"
	sizesFlagDescription            = "annotate files with their size"
	tokensFlagDescription           = "annotate files with token counts"
	modelFlagDescription            = "tokenizer model to use for token counting"
	colorFlagDescription            = "colorize raw output"
	clipboardFlagDescription        = "also copy the output to the clipboard"
	strictFlagDescription           = "fail when a subdirectory cannot be read"
	configFlagDescription           = "configuration file to use instead of ./config.yaml"
	versionFlagDescription          = "display application version"
	globalFlagDescription           = "write the global configuration under the home directory"
	forceFlagDescription            = "overwrite an existing configuration file"

	versionTemplate             = "projtree version: %s\n"
	configurationWrittenFormat  = "Configuration written to %s\n"
	warningClipboardFormat      = "Warning: unable to copy output to clipboard: %v"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorPathMissingFormat      = "path '%s' does not exist"
	errorStatFormat             = "stat failed for '%s': %w"
	errorNotDirectoryFormat     = "path '%s' is not a directory"
	errorNegativeDepthFormat    = "--%s must be non-negative, got %d"
	errorTokenizerFormat        = "initializing tokenizer: %w"
	errorAnnotateFormat         = "counting tokens: %w"
)

var (
	supportedFormats    = []string{types.FormatRaw, types.FormatJSON, types.FormatXML, types.FormatYAML}
	supportedColorModes = []string{types.ColorAuto, types.ColorAlways, types.ColorNever}
)

// Dependencies holds the collaborators of the command line interface. Zero values select the process
// defaults, which lets tests substitute writers, the clipboard and the tokenizer.
type Dependencies struct {
	Stdout           io.Writer
	Stderr           io.Writer
	Logger           *zap.Logger
	Copier           clipboard.Copier
	NewCounter       func(tokenizer.Config) (tokenizer.Counter, string, error)
	WorkingDirectory string
	HomeDirectory    string
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = os.Stderr
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Copier == nil {
		dependencies.Copier = clipboard.NewSystemCopier()
	}
	if dependencies.NewCounter == nil {
		dependencies.NewCounter = tokenizer.NewCounter
	}
	return dependencies
}

// Execute runs the projtree application with the process arguments.
func Execute(logger *zap.Logger) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	interruptContext, stopInterrupt := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stopInterrupt()
	return rootCommand.ExecuteContext(interruptContext)
}

// treeOptions stores the values of the tree flags.
type treeOptions struct {
	maxDepth          int
	exclusionPatterns []string
	disableGitignore  bool
	disableIgnoreFile bool
	includeGit        bool
	nested            bool
	format            string
	sizes             bool
	tokens            bool
	model             string
	color             string
	clipboard         bool
	strict            bool
	configPath        string
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = dependencies.withDefaults()
	var options treeOptions
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, printError := fmt.Fprintf(dependencies.Stdout, versionTemplate, utils.GetApplicationVersion())
				return printError
			}
			return runTree(command.Context(), command.Flags(), dependencies, options, arguments)
		},
	}
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)

	flagSet := rootCommand.Flags()
	flagSet.IntVar(&options.maxDepth, maxDepthFlagName, commands.DefaultMaxDepth, maxDepthFlagDescription)
	flagSet.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionShorthand, nil, exclusionFlagDescription)
	registerBooleanFlag(flagSet, &options.disableGitignore, noGitignoreFlagName, false, disableGitignoreFlagDescription)
	registerBooleanFlag(flagSet, &options.disableIgnoreFile, noIgnoreFlagName, false, disableIgnoreFlagDescription)
	registerBooleanFlag(flagSet, &options.includeGit, includeGitFlagName, false, includeGitFlagDescription)
	registerBooleanFlag(flagSet, &options.nested, nestedFlagName, true, nestedFlagDescription)
	registerChoiceFlag(flagSet, &options.format, formatFlagName, types.FormatRaw, supportedFormats, formatFlagDescription)
	registerBooleanFlag(flagSet, &options.sizes, sizesFlagName, false, sizesFlagDescription)
	registerBooleanFlag(flagSet, &options.tokens, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
	registerChoiceFlag(flagSet, &options.color, colorFlagName, types.ColorAuto, supportedColorModes, colorFlagDescription)
	registerBooleanFlag(flagSet, &options.clipboard, clipboardFlagName, false, clipboardFlagDescription)
	registerBooleanFlag(flagSet, &options.strict, strictFlagName, false, strictFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, utils.EmptyString, configFlagDescription)
	flagSet.BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(dependencies))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand(dependencies Dependencies) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: dependencies.WorkingDirectory,
				HomeDirectory:    dependencies.HomeDirectory,
			})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(dependencies.Stdout, configurationWrittenFormat, destinationPath)
			return printError
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// runTree renders the tree for the requested path, or the working directory when none is given.
func runTree(ctx context.Context, flagSet *pflag.FlagSet, dependencies Dependencies, flagOptions treeOptions, arguments []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	workingDirectory := dependencies.WorkingDirectory
	if workingDirectory == utils.EmptyString {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: flagOptions.configPath,
		HomeDirectory:    dependencies.HomeDirectory,
	})
	if configurationError != nil {
		return configurationError
	}
	options, optionsError := applyConfiguration(flagSet, flagOptions, applicationConfiguration.Tree)
	if optionsError != nil {
		return optionsError
	}

	announceCurrentDirectory := len(arguments) == 0
	inputPath := workingDirectory
	if !announceCurrentDirectory {
		inputPath = arguments[0]
	}
	rootPath, pathError := resolveRootDirectory(workingDirectory, inputPath)
	if pathError != nil {
		return pathError
	}

	logger := dependencies.Logger
	warn := func(message string) { logger.Warn(message) }

	ignoreRules, ignoreError := config.LoadIgnoreRules(rootPath, config.IgnoreOptions{
		ExclusionPatterns: options.exclusionPatterns,
		UseGitignore:      !options.disableGitignore,
		UseIgnoreFile:     !options.disableIgnoreFile,
		IncludeGit:        options.includeGit,
		Nested:            options.nested,
	})
	if ignoreError != nil {
		return ignoreError
	}

	treeBuilder := &commands.TreeBuilder{
		Ignorer:      ignoreRules.Ignorer,
		MaxDepth:     options.maxDepth,
		IncludeSizes: options.sizes,
		Strict:       options.strict,
		Warn:         warn,
	}
	rootNode, buildError := treeBuilder.GetTreeData(rootPath)
	if buildError != nil {
		return buildError
	}

	report := types.TreeReport{
		Root:      rootPath,
		MaxDepth:  options.maxDepth,
		GitIgnore: ignoreRules.GitIgnore,
		Tree:      rootNode,
	}
	if options.tokens {
		counter, model, counterError := dependencies.NewCounter(tokenizer.Config{Model: options.model})
		if counterError != nil {
			return fmt.Errorf(errorTokenizerFormat, counterError)
		}
		if annotateError := commands.AnnotateTokens(ctx, rootNode, os.DirFS(rootPath), counter, 0, warn); annotateError != nil {
			return fmt.Errorf(errorAnnotateFormat, annotateError)
		}
		report.Model = model
	}
	report.Summary = commands.SummarizeTree(rootNode)

	rawOptions := output.RawOptions{
		AnnounceCurrentDirectory: announceCurrentDirectory,
		ShowSizes:                options.sizes,
		ShowTokens:               options.tokens,
		Color:                    colorEnabled(options.color, dependencies.Stdout),
	}

	if !options.clipboard {
		return output.Render(dependencies.Stdout, options.format, report, rawOptions)
	}

	// The clipboard receives the uncolored rendering.
	plainOptions := rawOptions
	plainOptions.Color = false
	capture := clipboard.NewCapturingWriter(io.Discard)
	if rawOptions.Color {
		if renderError := output.Render(dependencies.Stdout, options.format, report, rawOptions); renderError != nil {
			return renderError
		}
		if renderError := output.Render(capture, options.format, report, plainOptions); renderError != nil {
			return renderError
		}
	} else {
		capture = clipboard.NewCapturingWriter(dependencies.Stdout)
		if renderError := output.Render(capture, options.format, report, plainOptions); renderError != nil {
			return renderError
		}
	}
	if copyError := capture.CopyTo(dependencies.Copier); copyError != nil {
		logger.Warn(fmt.Sprintf(warningClipboardFormat, copyError))
	}
	return nil
}

// applyConfiguration fills every option whose flag was not given on the command line from configuration.
// Exclusion patterns accumulate: configured patterns come first, then the flag values.
func applyConfiguration(flagSet *pflag.FlagSet, options treeOptions, configuration config.TreeConfiguration) (treeOptions, error) {
	useConfigured := func(flagName string) bool {
		return !flagSet.Changed(flagName)
	}
	overrideBool := func(target *bool, flagName string, configured *bool, invert bool) {
		if configured != nil && useConfigured(flagName) {
			*target = *configured != invert
		}
	}

	if configuration.MaxDepth != nil && useConfigured(maxDepthFlagName) {
		options.maxDepth = *configuration.MaxDepth
	}
	if options.maxDepth < 0 {
		return treeOptions{}, fmt.Errorf(errorNegativeDepthFormat, maxDepthFlagName, options.maxDepth)
	}
	if configuration.Format != utils.EmptyString && useConfigured(formatFlagName) {
		format, formatError := validateChoice(formatFlagName, configuration.Format, supportedFormats)
		if formatError != nil {
			return treeOptions{}, formatError
		}
		options.format = format
	}
	if configuration.Color != utils.EmptyString && useConfigured(colorFlagName) {
		colorMode, colorError := validateChoice(colorFlagName, configuration.Color, supportedColorModes)
		if colorError != nil {
			return treeOptions{}, colorError
		}
		options.color = colorMode
	}
	if configuration.Tokens.Model != utils.EmptyString && useConfigured(modelFlagName) {
		options.model = configuration.Tokens.Model
	}

	overrideBool(&options.sizes, sizesFlagName, configuration.Sizes, false)
	overrideBool(&options.clipboard, clipboardFlagName, configuration.Clipboard, false)
	overrideBool(&options.strict, strictFlagName, configuration.Strict, false)
	overrideBool(&options.tokens, tokensFlagName, configuration.Tokens.Enabled, false)
	overrideBool(&options.disableGitignore, noGitignoreFlagName, configuration.Paths.UseGitignore, true)
	overrideBool(&options.disableIgnoreFile, noIgnoreFlagName, configuration.Paths.UseIgnoreFile, true)
	overrideBool(&options.includeGit, includeGitFlagName, configuration.Paths.IncludeGit, false)
	overrideBool(&options.nested, nestedFlagName, configuration.Paths.Nested, false)

	if len(configuration.Paths.Exclude) > 0 {
		options.exclusionPatterns = utils.DeduplicatePatterns(append(append([]string{}, configuration.Paths.Exclude...), options.exclusionPatterns...))
	}
	return options, nil
}

// resolveRootDirectory converts inputPath to a clean absolute path and checks that it is a directory.
func resolveRootDirectory(workingDirectory string, inputPath string) (string, error) {
	candidatePath := inputPath
	if !filepath.IsAbs(candidatePath) {
		candidatePath = filepath.Join(workingDirectory, candidatePath)
	}
	absolutePath, absolutePathError := filepath.Abs(candidatePath)
	if absolutePathError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
	}
	fileInformation, statError := os.Stat(absolutePath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return "", fmt.Errorf(errorPathMissingFormat, inputPath)
		}
		return "", fmt.Errorf(errorStatFormat, inputPath, statError)
	}
	if !fileInformation.IsDir() {
		return "", fmt.Errorf(errorNotDirectoryFormat, inputPath)
	}
	return absolutePath, nil
}

// colorEnabled resolves a color mode for writer. Auto enables color only for terminals and respects NO_COLOR.
func colorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case types.ColorAlways:
		return true
	case types.ColorNever:
		return false
	}
	if color.NoColor {
		return false
	}
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

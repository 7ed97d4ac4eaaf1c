package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/projtree/internal/services/clipboard"
	"github.com/tyemirov/projtree/internal/tokenizer"
)

type stubCounter struct{}

func (stubCounter) Name() string { return "stub" }

func (stubCounter) CountString(input string) (int, error) {
	return len(strings.Fields(input)), nil
}

type commandHarness struct {
	root    string
	home    string
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	copied  []string
	copyErr error
	logs    *observer.ObservedLogs
}

func newCommandHarness(t *testing.T) *commandHarness {
	t.Helper()
	harness := &commandHarness{root: t.TempDir(), home: t.TempDir()}
	writeFixture(t, harness.root, "a.txt", "alpha beta")
	writeFixture(t, harness.root, filepath.Join("b", "inner.txt"), "inner")
	writeFixture(t, harness.root, filepath.Join("src", "pkg", "deep", "code.go"), "package deep")
	writeFixture(t, harness.root, ".gitignore", "# build output\nb/\n\n")
	writeFixture(t, harness.root, filepath.Join(".git", "HEAD"), "ref: refs/heads/main")
	return harness
}

func writeFixture(t *testing.T, root string, relativePath string, content string) {
	t.Helper()
	fullPath := filepath.Join(root, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
}

func (harness *commandHarness) run(arguments ...string) error {
	core, logs := observer.New(zapcore.WarnLevel)
	harness.logs = logs
	harness.stdout.Reset()
	harness.stderr.Reset()
	rootCommand := NewRootCommand(Dependencies{
		Stdout: &harness.stdout,
		Stderr: &harness.stderr,
		Logger: zap.New(core),
		Copier: clipboard.CopierFunc(func(text string) error {
			if harness.copyErr != nil {
				return harness.copyErr
			}
			harness.copied = append(harness.copied, text)
			return nil
		}),
		NewCounter: func(config tokenizer.Config) (tokenizer.Counter, string, error) {
			return stubCounter{}, config.Model, nil
		},
		WorkingDirectory: harness.root,
		HomeDirectory:    harness.home,
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	return rootCommand.Execute()
}

func TestTreeCommandRawOutput(t *testing.T) {
	harness := newCommandHarness(t)
	require.NoError(t, harness.run(harness.root))

	expected := strings.Join([]string{
		"",
		".gitignore contents:",
		"---------------------",
		"  b/",
		"---------------------",
		"",
		"Project structure (" + filepath.Base(harness.root) + ") with max depth 3:",
		"├── .gitignore",
		"├── a.txt",
		"└── src/",
		"    └── pkg/",
		"        └── deep/",
		"            └── code.go",
		"",
	}, "\n")
	assert.Equal(t, expected, harness.stdout.String())
}

func TestTreeCommandAnnouncesCurrentDirectory(t *testing.T) {
	harness := newCommandHarness(t)
	require.NoError(t, harness.run("--max-depth", "1"))

	output := harness.stdout.String()
	assert.True(t, strings.HasPrefix(output, "Using current directory: "+harness.root+"\n\n.gitignore contents:"))
	assert.Contains(t, output, "with max depth 1:\n")
	assert.Contains(t, output, "└── src/\n    └── pkg/... (depth limit reached)\n")
}

func TestTreeCommandFlags(t *testing.T) {
	testCases := []struct {
		name       string
		arguments  []string
		contains   []string
		notContain []string
	}{
		{
			name:       "depth zero",
			arguments:  []string{"--max-depth", "0"},
			contains:   []string{"└── src/... (depth limit reached)"},
			notContain: []string{"pkg"},
		},
		{
			name:       "gitignore disabled",
			arguments:  []string{"--no-gitignore"},
			contains:   []string{"├── b/", "inner.txt", ".gitignore rules disabled."},
			notContain: []string{".gitignore contents:"},
		},
		{
			name:      "git included",
			arguments: []string{"--git", "--max-depth=0"},
			contains:  []string{"├── .git/... (depth limit reached)"},
		},
		{
			name:       "exclusion pattern",
			arguments:  []string{"-e", "deep/", "-e", "*.txt"},
			contains:   []string{"└── src/\n    └── pkg/\n"},
			notContain: []string{"deep", "a.txt"},
		},
		{
			name:      "sizes and tokens",
			arguments: []string{"--sizes", "--tokens", "--model", "gpt-4o"},
			contains:  []string{"├── a.txt (10 B, 2 tokens)", "Summary: 3 directories, 3 files, ", "8 tokens (model: gpt-4o)"},
		},
		{
			name:       "color never",
			arguments:  []string{"--color", "never"},
			notContain: []string{"\x1b["},
		},
		{
			name:      "color always",
			arguments: []string{"--color=always"},
			contains:  []string{"\x1b["},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newCommandHarness(t)
			require.NoError(t, harness.run(append(testCase.arguments, harness.root)...))
			output := harness.stdout.String()
			for _, expected := range testCase.contains {
				assert.Contains(t, output, expected)
			}
			for _, unexpected := range testCase.notContain {
				assert.NotContains(t, strings.SplitN(output, "Project structure", 2)[1], unexpected)
			}
		})
	}
}

func TestTreeCommandJSONReport(t *testing.T) {
	harness := newCommandHarness(t)
	require.NoError(t, harness.run("--format", "json", "--tokens", "--max-depth", "1", harness.root))

	var report struct {
		Root      string `json:"root"`
		MaxDepth  int    `json:"maxDepth"`
		Model     string `json:"model"`
		GitIgnore struct {
			Found    bool     `json:"found"`
			Patterns []string `json:"patterns"`
		} `json:"gitignore"`
		Summary struct {
			Directories int `json:"directories"`
			Files       int `json:"files"`
			Tokens      int `json:"tokens"`
		} `json:"summary"`
		Tree struct {
			Children []struct {
				Name   string `json:"name"`
				Tokens int    `json:"tokens"`
			} `json:"children"`
		} `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(harness.stdout.Bytes(), &report))
	assert.Equal(t, harness.root, report.Root)
	assert.Equal(t, 1, report.MaxDepth)
	assert.Equal(t, "gpt-4o", report.Model)
	assert.True(t, report.GitIgnore.Found)
	assert.Equal(t, []string{"b/"}, report.GitIgnore.Patterns)
	assert.Equal(t, 2, report.Summary.Directories)
	assert.Equal(t, 2, report.Summary.Files)
	require.Len(t, report.Tree.Children, 3)
	assert.Equal(t, "a.txt", report.Tree.Children[1].Name)
	assert.Equal(t, 2, report.Tree.Children[1].Tokens)
}

func TestTreeCommandUsesConfiguration(t *testing.T) {
	harness := newCommandHarness(t)
	writeFixture(t, harness.root, "config.yaml", "tree:\n  max_depth: 0\n  format: yaml\n  paths:\n    exclude:\n      - a.txt\n")

	require.NoError(t, harness.run())
	assert.Contains(t, harness.stdout.String(), "maxDepth: 0")
	assert.NotContains(t, harness.stdout.String(), "a.txt")

	require.NoError(t, harness.run("--format", "raw", "--max-depth", "1"))
	assert.Contains(t, harness.stdout.String(), "with max depth 1:")
	assert.Contains(t, harness.stdout.String(), "config.yaml")
}

func TestTreeCommandGlobalConfigurationIsOverriddenLocally(t *testing.T) {
	harness := newCommandHarness(t)
	writeFixture(t, harness.home, filepath.Join(".projtree", "config.yaml"), "tree:\n  max_depth: 0\n  sizes: true\n")
	writeFixture(t, harness.root, "custom.yaml", "tree:\n  max_depth: 2\n")

	require.NoError(t, harness.run("--config", "custom.yaml", harness.root))
	output := harness.stdout.String()
	assert.Contains(t, output, "with max depth 2:")
	assert.Contains(t, output, "├── a.txt (10 B)")
}

func TestTreeCommandClipboard(t *testing.T) {
	harness := newCommandHarness(t)
	require.NoError(t, harness.run("--clipboard", harness.root))
	require.Len(t, harness.copied, 1)
	assert.Equal(t, harness.stdout.String(), harness.copied[0])

	harness.copied = nil
	require.NoError(t, harness.run("--clipboard", "--color", "always", harness.root))
	require.Len(t, harness.copied, 1)
	assert.NotContains(t, harness.copied[0], "\x1b[")
	assert.Contains(t, harness.stdout.String(), "\x1b[")

	harness.copyErr = errors.New("no clipboard")
	require.NoError(t, harness.run("--clipboard", harness.root))
	assert.Equal(t, 1, harness.logs.FilterMessageSnippet("clipboard").Len())
}

func TestTreeCommandErrors(t *testing.T) {
	harness := newCommandHarness(t)

	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "missing path", arguments: []string{filepath.Join(harness.root, "missing")}},
		{name: "file path", arguments: []string{filepath.Join(harness.root, "a.txt")}},
		{name: "negative depth", arguments: []string{"--max-depth", "-1", harness.root}},
		{name: "unknown format", arguments: []string{"--format", "toml", harness.root}},
		{name: "two paths", arguments: []string{harness.root, harness.root}},
		{name: "invalid exclusion", arguments: []string{"-e", "!", harness.root}},
		{name: "missing config", arguments: []string{"--config", "absent.yaml", harness.root}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Error(t, harness.run(testCase.arguments...))
		})
	}
}

func TestInitCommand(t *testing.T) {
	harness := newCommandHarness(t)

	require.NoError(t, harness.run("init"))
	localPath := filepath.Join(harness.root, "config.yaml")
	assert.Contains(t, harness.stdout.String(), localPath)
	assert.FileExists(t, localPath)

	assert.Error(t, harness.run("init"))
	require.NoError(t, harness.run("init", "--force"))

	require.NoError(t, harness.run("init", "--global"))
	assert.FileExists(t, filepath.Join(harness.home, ".projtree", "config.yaml"))

	require.NoError(t, harness.run(harness.root))
	assert.Contains(t, harness.stdout.String(), "with max depth 3:")
}

func TestVersionFlag(t *testing.T) {
	harness := newCommandHarness(t)
	require.NoError(t, harness.run("--version"))
	assert.True(t, strings.HasPrefix(harness.stdout.String(), "projtree version: "))
}

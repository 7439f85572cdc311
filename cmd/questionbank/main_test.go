package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/questionbank"
	"github.com/poiesic/questionbank/ai/mock"
	"github.com/poiesic/questionbank/core"
)

// useMockProvider swaps the AI provider for a local mock for the duration of a test.
func useMockProvider(t *testing.T) {
	t.Helper()
	original := openDatabase
	openDatabase = func(ctx context.Context, c *cli.Context, opts ...questionbank.DatabaseOption) (*questionbank.Database, error) {
		cfg, err := loadConfig(c)
		if err != nil {
			return nil, err
		}
		return questionbank.NewDatabase(ctx, cfg, append(opts, questionbank.WithAIProvider(mock.NewMockProvider()))...)
	}
	t.Cleanup(func() { openDatabase = original })
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"questionbank", "--log-level", "error", "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	return stdout.String(), stderr.String(), err
}

func findCommand(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"serve", "enrich", "search", "import", "export"} {
		assert.NotNil(t, findCommand(app, name), name)
	}

	t.Run("import requires csv", func(t *testing.T) {
		_, _, err := runApp(t, "import")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "csv")
	})

	t.Run("semantic-only defaults to true", func(t *testing.T) {
		cmd := findCommand(app, "search")
		require.NotNil(t, cmd)
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.BoolFlag); ok && f.Name == "semantic-only" {
				assert.True(t, f.Value)
				return
			}
		}
		t.Fatal("semantic-only flag not found")
	})
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		_, _, err := runApp(t, "--log-level", level, "export", "--help")
		assert.NoError(t, err, level)
	}

	_, _, err := runApp(t, "--log-level", "verbose", "export", "--help")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "questionbank.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
storage:
  type: sqlite
  path: ./file.db
enrichment:
  batch_size: 9
`), 0600))

	app := newApp()
	cmd := findCommand(app, "enrich")
	require.NotNil(t, cmd)
	cmd.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Storage.Type)
		assert.Equal(t, filepath.Join(dir, "other.db"), cfg.Storage.Path)
		assert.Equal(t, 3, cfg.Enrichment.BatchSize)
		assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
		return nil
	}
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"questionbank", "--log-level", "error", "--env-file", filepath.Join(dir, "none.env"),
		"--config", cfgPath, "--db", filepath.Join(dir, "other.db"), "--embedding-model", "nomic-embed-text",
		"enrich", "--batch-size", "3"})
	require.NoError(t, err)
}

func TestImportEnrichSearchExport(t *testing.T) {
	useMockProvider(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bank")
	csvPath := filepath.Join(dir, "questions.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Question ID,Question Text,Company,Role\n"+
			"q1,Tell me about caching,Google,Software Engineer\n"+
			"q2,https://leetcode.com/problems/lru-cache,Google,Software Engineer\n"+
			"q3,Prioritize a roadmap,Meta,Product Manager\n"), 0600))

	out, _, err := runApp(t, "--db", dbPath, "import", "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 questions")

	_, progress, err := runApp(t, "--db", dbPath, "enrich", "--batch-delay", "0s")
	require.NoError(t, err)
	assert.Contains(t, progress, "Found 3 questions to process")
	assert.Contains(t, progress, "All questions processed successfully!")

	out, _, err = runApp(t, "--db", dbPath, "search", "--company", "google", "--role", "engineer", "--query", "caching")
	require.NoError(t, err)
	var results []*core.SearchCandidate
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, core.ID("q2"), r.Id)
	}

	out, verbose, err := runApp(t, "--db", dbPath, "search", "--company", "meta", "--role", "product", "--verbose")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, core.MatchTypeExact, results[0].MatchType)
	assert.Contains(t, verbose, "loaded 3 questions")

	exportPath := filepath.Join(dir, "export.csv")
	_, _, err = runApp(t, "--db", dbPath, "export", "--csv", exportPath)
	require.NoError(t, err)
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, string(data), "Tell me about caching?")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/api/fake"
)

type cli struct {
	t       *testing.T
	baseURL string
	dataDir string
}

func newCLI(t *testing.T) *cli {
	srv, err := fake.NewServer(fake.ServerConfig{StepsToComplete: 1})
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	return &cli{t: t, baseURL: hs.URL, dataDir: t.TempDir()}
}

func (c *cli) run(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	all := append([]string{"legalflow", "--no-log", "--data-dir", c.dataDir, "--base-url", c.baseURL, "--poll-interval", "10ms"}, args...)
	err := Run(context.Background(), all, strings.NewReader(""), &stdout, &stderr)
	return stdout.String(), err
}

func TestAnalyzeAndVault(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	c := newCLI(t)

	out, err := c.run("analyze", "--kind", "audit", "--text", "This agreement may be terminated with thirty days notice.", "--name", "nda", "--save", "--format", "json")
	require.NoError(err)

	var state map[string]any
	require.NoError(json.Unmarshal([]byte(out), &state))
	assert.Equal("completed", state["phase"])
	assert.Equal("completed", state["task"].(map[string]any)["status"])

	out, err = c.run("vault", "list", "--format", "json")
	require.NoError(err)
	var docs []map[string]any
	require.NoError(json.Unmarshal([]byte(out), &docs))
	require.Len(docs, 1)
	assert.Equal("nda", docs[0]["name"])
	assert.Equal("inline", docs[0]["source"])
	id := docs[0]["id"].(string)

	out, err = c.run("vault", "show", id, "--format", "json")
	require.NoError(err)
	var doc map[string]any
	require.NoError(json.Unmarshal([]byte(out), &doc))
	analyses := doc["analyses"].([]any)
	require.Len(analyses, 1)
	assert.Equal("audit", analyses[0].(map[string]any)["kind"])

	out, err = c.run("vault", "rm", id)
	require.NoError(err)
	assert.Contains(out, "Removed document: nda")

	_, err = c.run("vault", "show", id)
	assert.Error(err)
}

func TestAnalyzeInvalidInput(t *testing.T) {
	tests := map[string]struct {
		args []string
	}{
		"Missing the document should fail.": {
			args: []string{"analyze"},
		},
		"More than one document input should fail.": {
			args: []string{"analyze", "--text", "This agreement is binding.", "--doc", "01HX"},
		},
		"A short text should fail before reaching the backend.": {
			args: []string{"analyze", "--text", "short"},
		},
		"An unknown job kind should fail.": {
			args: []string{"analyze", "--kind", "billing", "--text", "This agreement is binding."},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newCLI(t)
			_, err := c.run(test.args...)
			assert.Error(t, err)
		})
	}
}

func TestRedline(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	c := newCLI(t)

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(os.WriteFile(path, []byte(content), 0644))
		return path
	}
	original := write("v0.txt", "The Employer will pay the salary.")
	rev1 := write("v1.txt", "The Employer will pay the monthly salary.")
	rev2 := write("v2.txt", "The Employer will pay the monthly salary")

	out, err := c.run("redline", "--original", original, "--revised", rev1, "--revised", rev2, "--reject", "1", "--format", "json")
	require.NoError(err)

	var res map[string]any
	require.NoError(json.Unmarshal([]byte(out), &res))
	assert.Equal("The Employer will pay the monthly salary.", res["content"])
	assert.Len(res["changes"], 1)
	assert.Len(res["rejected"], 1)

	exportFile := filepath.Join(dir, "review.pdf")
	_, err = c.run("redline", "--original", original, "--revised", rev1, "--export", exportFile)
	require.NoError(err)
	data, err := os.ReadFile(exportFile)
	require.NoError(err)
	assert.True(bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestTaskStatus(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("task", "status", "missing-task")
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/purelink/internal/identity"
	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func seedCapture(t *testing.T, dir, name, domain string) string {
	t.Helper()
	log, err := store.NewFileLog(afero.NewOsFs(), dir, nil)
	require.NoError(t, err)

	tool := types.ToolCandidate{
		CandidateID:   identity.CandidateID(name, domain),
		ToolName:      name,
		WebsiteDomain: domain,
		Confidence:    1,
	}
	env, err := types.NewCaptureEnvelope(store.NewRecordID(), time.Now(), strings.ToLower(name), &types.CapturePayload{
		Candidates:   []types.ToolCandidate{tool},
		SelectedTool: tool,
	}, nil)
	require.NoError(t, err)
	_, err = log.Append(t.Context(), env)
	require.NoError(t, err)
	return tool.CandidateID
}

func clearCredentials(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
}

func TestHistoryStats_EmptyDataDir(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := execute(t, "history", "stats", "--data-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "HISTORY")
	assert.Contains(t, stdout, "Captures:")
	assert.Contains(t, stdout, "jsonl:")
}

func TestHistoryRecent_JSON(t *testing.T) {
	dir := t.TempDir()
	seedCapture(t, dir, "HiBob", "hibob.com")

	stdout, _, err := execute(t, "history", "recent", "--data-dir", dir, "--json")
	require.NoError(t, err)

	var captures []types.CaptureDisplay
	require.NoError(t, json.Unmarshal([]byte(stdout), &captures))
	require.Len(t, captures, 1)
	assert.Equal(t, "HiBob", captures[0].ToolName)
	assert.Equal(t, "hibob.com", captures[0].Domain)
}

func TestHistoryShow(t *testing.T) {
	dir := t.TempDir()
	id := seedCapture(t, dir, "Notion", "notion.so")

	stdout, _, err := execute(t, "history", "show", id, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "SELECTED TOOL")
	assert.Contains(t, stdout, id)

	_, _, err = execute(t, "history", "show", "ghost-000000000000", "--data-dir", dir)
	assert.ErrorContains(t, err, "no captured tool")
}

func TestCapture_MissingAPIKey(t *testing.T) {
	clearCredentials(t)
	_, _, err := execute(t, "capture", "--input", "hibob", "--data-dir", t.TempDir())
	assert.ErrorContains(t, err, "api_key")
}

func TestDiscover_RequiresCandidateID(t *testing.T) {
	_, _, err := execute(t, "discover", "--data-dir", t.TempDir())
	assert.ErrorContains(t, err, "candidate-id")
}

func TestCaptureBinary_MissingAPIKey(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "capture", "--input", "hibob", "--data-dir", t.TempDir())
	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "GEMINI_API_KEY=") && !strings.HasPrefix(e, "GOOGLE_API_KEY=") {
			env = append(env, e)
		}
	}
	cmd.Env = env
	// Keep a local .env from supplying a key
	cmd.Dir = t.TempDir()

	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "api_key")
}

func TestHistoryBinary_Stats(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "history", "stats", "--json", "--data-dir", t.TempDir())
	output, err := cmd.Output()
	require.NoError(t, err)

	var stats types.HistoryStats
	require.NoError(t, json.Unmarshal(output, &stats))
	assert.Zero(t, stats.Captures)
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeGraph stores a three-node graph document R -> {A, B} and returns its path.
func writeGraph(t *testing.T, dir, name string, a, b float64) string {
	t.Helper()
	doc := "name: " + name + "\n" +
		"nodes:\n" +
		"  - {id: R, attrs: [0]}\n" +
		"  - {id: A, attrs: [" + ftoa(a) + "]}\n" +
		"  - {id: B, attrs: [" + ftoa(b) + "]}\n" +
		"edges:\n" +
		"  - {from: R, to: A}\n" +
		"  - {from: R, to: B}\n"
	p := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o600))
	return p
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func fixture(t *testing.T) (dir, query, model, cfg string) {
	t.Helper()
	dir = t.TempDir()
	query = writeGraph(t, dir, "query", 1, 5)
	model = writeGraph(t, dir, "model", 1.5, 5)
	cfg = filepath.Join(dir, "match.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("tsv_weight = 0\nedge_weight = 0\n"), 0o600))
	return dir, query, model, cfg
}

func TestVersion(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2026-01-01")
	defer SetVersion("dev", "", "")

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dagmatch v1.2.3\ncommit: abc123\nbuilt: 2026-01-01\n", out)
}

func TestMatchCommand(t *testing.T) {
	_, query, model, cfg := fixture(t)

	out, logs, err := run(t, "match", query, model, "--config", cfg, "--models", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "0.8889")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "Similarity")
	assert.Contains(t, logs, "Matched query against model")
}

func TestMatchCommand_JSON(t *testing.T) {
	_, query, model, cfg := fixture(t)

	out, _, err := run(t, "match", query, model, "-c", cfg, "--models", "1", "--json")
	require.NoError(t, err)

	var res struct {
		Similarity float64 `json:"similarity"`
		Status     string  `json:"status"`
		NodeMap    []struct {
			Query string `json:"query"`
			Model string `json:"model"`
		} `json:"node_map"`
		Stats struct {
			RunID string `json:"run_id"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 0.8889, res.Similarity, 1e-4)
	assert.Equal(t, "complete", res.Status)
	assert.Len(t, res.NodeMap, 3)
	for _, c := range res.NodeMap {
		assert.Equal(t, c.Query, c.Model)
	}
	assert.NotEmpty(t, res.Stats.RunID)
}

func TestMatchCommand_Metrics(t *testing.T) {
	_, query, model, _ := fixture(t)

	out, _, err := run(t, "match", query, model, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `dagmatch_runs_total{status="complete"} 1`)
	assert.Contains(t, out, "dagmatch_run_duration_seconds_count 1")
}

func TestMatchCommand_Verbose(t *testing.T) {
	_, query, model, _ := fixture(t)

	_, logs, err := run(t, "match", query, model, "-v")
	require.NoError(t, err)
	assert.Contains(t, logs, "match started")
	assert.Contains(t, logs, "run=")
}

func TestRankCommand(t *testing.T) {
	dir, query, model, cfg := fixture(t)
	twin := writeGraph(t, dir, "twin", 1, 5)
	far := writeGraph(t, dir, "far", 9, 20)

	out, _, err := run(t, "rank", query, far, model, twin, "-c", cfg, "--models", "1", "-j", "2")
	require.NoError(t, err)
	iTwin, iModel, iFar := strings.Index(out, "twin"), strings.Index(out, "model"), strings.Index(out, "far")
	require.True(t, iTwin >= 0 && iModel >= 0 && iFar >= 0, out)
	assert.Less(t, iTwin, iModel)
	assert.Less(t, iModel, iFar)
	assert.Contains(t, out, "1.0000")

	out, _, err = run(t, "rank", query, far, model, twin, "-c", cfg, "--models", "1", "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "twin")
	assert.NotContains(t, out, "far")
}

func TestCommandErrors(t *testing.T) {
	dir, query, model, _ := fixture(t)
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("max_children = 0\n"), 0o600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"arity", []string{"match", query}, "accepts 2 arg(s)"},
		{"missing graph", []string{"match", query, filepath.Join(dir, "nope.yaml")}, "no such file"},
		{"invalid config", []string{"match", query, model, "-c", bad}, "max_children"},
		{"jobs", []string{"rank", query, model, "-j", "0"}, "--jobs"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioDir copies the harness lifecycle scenario into a fresh directory.
func scenarioDir(t *testing.T) string {
	t.Helper()

	data, err := os.ReadFile("../harness/testdata/scenarios/upload_lifecycle.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upload_lifecycle.yaml"), data, 0o644))
	return dir
}

func TestScenarioRun_UpdateThenCompare(t *testing.T) {
	dir := scenarioDir(t)

	out, err := execute(t, "scenario", "run", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ upload_lifecycle")
	assert.FileExists(t, filepath.Join(dir, "golden", "upload_lifecycle.golden"))

	out, err = execute(t, "scenario", "run", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestScenarioRun_GoldenMismatch(t *testing.T) {
	dir := scenarioDir(t)
	golden := filepath.Join(dir, "golden", "upload_lifecycle.golden")
	require.NoError(t, os.MkdirAll(filepath.Dir(golden), 0o755))
	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"stale"}`), 0o644))

	out, err := execute(t, "scenario", "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "✗ upload_lifecycle")
	assert.Contains(t, out, "does not match golden file")
}

func TestScenarioRun_JSON(t *testing.T) {
	dir := scenarioDir(t)

	out, err := execute(t, "scenario", "run", dir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   ScenarioRunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "upload_lifecycle", resp.Data.Scenarios[0].Name)
}

func TestScenarioRun_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nbogus: true\n"), 0o644))

	out, err := execute(t, "scenario", "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to load scenario")
}

func TestScenarioRun_Filter(t *testing.T) {
	dir := scenarioDir(t)

	out, err := execute(t, "scenario", "run", dir, "--filter", "download-*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestScenarioRun_MissingDir(t *testing.T) {
	_, err := execute(t, "scenario", "run", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles_SkipsGolden(t *testing.T) {
	dir := scenarioDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "x.yaml"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "upload_lifecycle.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

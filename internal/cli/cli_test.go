package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"joetracker-engine/internal/domain"
	"joetracker-engine/internal/sitegen"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// seedDataDir writes one csv export with listings from the 2023-24 year.
func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "jp_id,jp_title,jp_section,Date_Active\n" +
		"11,Two Assistant Professors,US: Full-Time Academic,2023-09-20\n" +
		"12,Economist,Nonacademic,2023-10-02\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "joe_2023.csv"), []byte(body), 0o644))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "joetracker dev\n", out)
}

func TestIngest(t *testing.T) {
	dir := seedDataDir(t)

	out, err := run(t, "--data-dir", dir, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Read 1 file(s), 2 row(s), 2 listing(s)")
	assert.Contains(t, out, "Added 2 new listing(s)")
	assert.FileExists(t, filepath.Join(dir, "config.yml"))
	assert.FileExists(t, filepath.Join(dir, "joetracker.db"))

	out, err = run(t, "--data-dir", dir, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 0 new listing(s)")
}

func TestAggregate(t *testing.T) {
	dir := seedDataDir(t)
	_, err := run(t, "--data-dir", dir, "ingest")
	require.NoError(t, err)

	out, err := run(t, "--data-dir", dir, "aggregate", "--section", "us_academic")
	require.NoError(t, err)
	assert.Contains(t, out, "US: Full-Time Academic")
	assert.Contains(t, out, "2023-24")

	out, err = run(t, "--data-dir", dir, "aggregate", "--section", "all_sections", "--json")
	require.NoError(t, err)
	var series map[string]domain.WeeklySeries
	require.NoError(t, json.Unmarshal([]byte(out), &series))
	assert.Equal(t, 3, series["2023"].Total)
	assert.Equal(t, 2, series["2023"].Postings)

	_, err = run(t, "--data-dir", dir, "aggregate", "--section", "bogus")
	assert.ErrorContains(t, err, "unknown section")
}

func TestSite(t *testing.T) {
	dir := seedDataDir(t)
	_, err := run(t, "--data-dir", dir, "ingest")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "site")
	_, err = run(t, "--data-dir", dir, "site", "--out", out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, sitegen.IndexFile))

	ds, ok, err := sitegen.LoadDataset(out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, ds.Metadata.TotalPostings)
	assert.Equal(t, 2, ds.Sections["us_academic"]["2023"].Total)

	_, err = run(t, "--data-dir", dir, "site", "--out", out, "--current-year-only")
	require.NoError(t, err)
	ds, _, err = sitegen.LoadDataset(out)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Metadata.TotalPostings)
	assert.Equal(t, 2, ds.Sections["us_academic"]["2023"].Total)
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")

	out, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(t, "--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	out, err = run(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, ": ok")

	t.Setenv("JOETRACKER_PORT", "40001")
	t.Setenv("JOETRACKER_DATA_DIR", dir)
	out, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 40001")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 0\n"), 0o644))

	out, err := run(t, "--config", path, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "app.port must be 1..65535")
}

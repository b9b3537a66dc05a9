package sitegen

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"joetracker-engine/internal/domain"
)

func sampleDataset() domain.Dataset {
	start, end := "2024-09-15", "2024-09-20"
	return domain.Dataset{
		Metadata: domain.Metadata{
			LastUpdate:    time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC),
			TotalPostings: 2,
			DateRange:     domain.DateRange{Start: &start, End: &end},
		},
		SectionLabels: map[string]string{"us_academic": "US: Full-Time Academic"},
		Sections: map[string]map[string]domain.WeeklySeries{
			"us_academic": {
				"2024": {Weeks: []int{30, 31}, Cumulative: []int{1, 4}, Total: 4, Postings: 2},
			},
		},
	}
}

var opts = Options{
	Title: "Openings <Tracker>",
	Sections: []domain.Section{
		{Key: "us_academic", Label: "US: Full-Time Academic"},
		{Key: "all_sections", Label: "All Sections"},
	},
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	ds := sampleDataset()
	require.NoError(t, Generate(dir, ds, opts))

	raw, err := os.ReadFile(filepath.Join(dir, DataFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"metadata": {"last_update": "2024-10-01T12:00:00Z", "total_postings": 2,
		             "date_range": {"start": "2024-09-15", "end": "2024-09-20"}},
		"section_labels": {"us_academic": "US: Full-Time Academic"},
		"sections": {"us_academic": {"2024": {"weeks": [30, 31], "cumulative": [1, 4], "total": 4, "postings": 2}}}
	}`, string(raw))

	html, err := os.ReadFile(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Openings &lt;Tracker&gt;")
	assert.Contains(t, page, `<option value="all_sections" selected>All Sections</option>`)
	assert.Contains(t, page, `"joe_data.json"`)

	info, err := os.Stat(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	got, ok, err := LoadDataset(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ds.Sections, got.Sections)
	assert.True(t, ds.Metadata.LastUpdate.Equal(got.Metadata.LastUpdate))
}

func TestLoadDataset_Missing(t *testing.T) {
	_, ok, err := LoadDataset(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadDataset_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DataFile), []byte("{"), 0o644))
	_, _, err := LoadDataset(dir)
	assert.Error(t, err)
}

func TestRenderIndex_Defaults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderIndex(&buf, PageFor(Options{Sections: opts.Sections[:1]}, "/api/data")))
	assert.Contains(t, buf.String(), "JOE Market Tracker")
	assert.Contains(t, buf.String(), `"/api/data"`)
	assert.Contains(t, buf.String(), `<option value="us_academic" selected>`)
}

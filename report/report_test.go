package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteCreatesParentDirectoriesAndValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "results.json")

	doc := NewDocument(ExperimentConfig{Name: "demo", Repetitions: 1}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	doc.Results = append(doc.Results, RepetitionResult{
		RepetitionID: 0,
		Checkpoints: []Checkpoint{
			{SketchName: "a", ItemsProcessed: 100, ARE: 0.1},
		},
	})

	require.NoError(t, Write(path, doc))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Document
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, "dag", got.Metadata.ExperimentType)
	require.Equal(t, "2026-01-02T03:04:05Z", got.Metadata.Timestamp)
	require.Equal(t, "demo", got.Config.Name)
	require.Len(t, got.Results, 1)
	require.Equal(t, "a", got.Results[0].Checkpoints[0].SketchName)
}

func TestWriteOmitsBaselineWhenAbsentAndIncludesItWhenSet(t *testing.T) {
	dir := t.TempDir()

	doc := NewDocument(ExperimentConfig{Name: "demo"}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	doc.Results = append(doc.Results, RepetitionResult{
		Checkpoints: []Checkpoint{
			{SketchName: "no-baseline", ARE: 0.1},
			{SketchName: "with-baseline", ARE: 0.1, Baseline: &BaselineResult{Name: "count-min", ARE: 0.2}},
		},
	})

	path := filepath.Join(dir, "results.json")
	require.NoError(t, Write(path, doc))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(b), `"baseline": null`)

	var got Document
	require.NoError(t, json.Unmarshal(b, &got))
	require.Nil(t, got.Results[0].Checkpoints[0].Baseline)
	require.NotNil(t, got.Results[0].Checkpoints[1].Baseline)
	require.Equal(t, "count-min", got.Results[0].Checkpoints[1].Baseline.Name)
	require.Equal(t, 0.2, got.Results[0].Checkpoints[1].Baseline.ARE)
}

func TestTimestampedPathInsertsBeforeExtension(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := TimestampedPath("results.json", now)
	require.Equal(t, "results_20260102_030405.json", got)
}

func TestTimestampedPathHandlesNoExtension(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := TimestampedPath("results", now)
	require.Equal(t, "results_20260102_030405", got)
}

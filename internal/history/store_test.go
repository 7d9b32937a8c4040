package history_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"createmovie/internal/allocation"
	"createmovie/internal/history"
	"createmovie/internal/services"
	"createmovie/internal/testsupport"
	"createmovie/internal/usage"
)

func sampleResult(id string, started time.Time) *allocation.Result {
	return &allocation.Result{
		RunID:       id,
		Strategy:    "tourism",
		ProjectType: "tourism",
		StartedAt:   started,
		FinishedAt:  started.Add(150 * time.Millisecond),
		Cuts: []allocation.CutResult{
			{
				CutID:            1,
				SceneDescription: "Waves at sunset",
				Source: &allocation.SourceMaterial{
					MaterialID: "beach_001",
					Filename:   "beach_001.jpg",
					Category:   "beach",
					Confidence: 0.42,
				},
			},
			{
				CutID:              2,
				SceneDescription:   "Observation deck",
				GenerationRequired: true,
				GenerationPrompt:   "Generate an image for this scene:\n",
			},
		},
		Usage: usage.UsageRate{Used: 1, Total: 4, Rate: 0.25, Percentage: "25.0%"},
	}
}

func sampleEntry(id string, started time.Time) history.Entry {
	return history.Entry{
		Result:      sampleResult(id, started),
		ProjectPath: "/projects/shirahama/project_config.yaml",
		Report: usage.Report{
			Summary:         usage.UsageRate{Used: 1, Total: 4, Rate: 0.25, Percentage: "25.0%"},
			ByCategory:      map[string]usage.CategoryStats{"beach": {Total: 2, Used: 1, Rate: 0.5, Percentage: "50.0%"}},
			UsedMaterials:   []usage.UsedMaterial{{CutID: 1, MaterialID: "beach_001", Filename: "beach_001.jpg", Category: "beach", MatchScore: 0.42}},
			UnusedMaterials: []usage.UnusedMaterial{},
		},
		Validation: usage.Validation{
			Valid:    false,
			Errors:   []string{"Usage rate 25.0% below requirement 50.0%"},
			Warnings: []string{"No materials used from category: town"},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, sampleEntry("run-1", started)))

	run, err := store.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "tourism", run.Strategy)
	assert.Equal(t, "/projects/shirahama/project_config.yaml", run.ProjectPath)
	assert.True(t, run.StartedAt.Equal(started))
	assert.Equal(t, 1, run.Usage.Used)
	assert.Equal(t, 4, run.Usage.Total)
	assert.Equal(t, "25.0%", run.Usage.Percentage)
	assert.Equal(t, 1, run.GenerationCount)
	assert.False(t, run.Validation.Valid)
	assert.Equal(t, []string{"Usage rate 25.0% below requirement 50.0%"}, run.Validation.Errors)
	assert.Equal(t, []string{"No materials used from category: town"}, run.Validation.Warnings)

	require.NotNil(t, run.Report)
	assert.Equal(t, "50.0%", run.Report.ByCategory["beach"].Percentage)
	require.Len(t, run.Report.UsedMaterials, 1)
	assert.Equal(t, "beach_001", run.Report.UsedMaterials[0].MaterialID)

	require.Len(t, run.Cuts, 2)
	assert.Equal(t, "beach_001", run.Cuts[0].MaterialID)
	assert.InDelta(t, 0.42, run.Cuts[0].Confidence, 1e-9)
	assert.False(t, run.Cuts[0].GenerationRequired)
	assert.True(t, run.Cuts[1].GenerationRequired)
	assert.Empty(t, run.Cuts[1].MaterialID)
	assert.NotEmpty(t, run.Cuts[1].GenerationPrompt)
}

func TestGetMissingRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestRecordRejectsDuplicateRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, sampleEntry("dup", started)))
	assert.Error(t, store.Record(ctx, sampleEntry("dup", started)))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRequiresRunID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	err := store.Record(context.Background(), history.Entry{Result: &allocation.Result{}})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Record(ctx, sampleEntry(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].RunID)
	assert.Equal(t, "run-2", runs[1].RunID)
	assert.Nil(t, runs[0].Report)
	assert.Empty(t, runs[0].Cuts)
}

func TestPruneKeepsNewest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, sampleEntry(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	removed, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-4", runs[0].RunID)

	_, err = store.Get(ctx, "run-0")
	assert.True(t, errors.Is(err, services.ErrNotFound))

	_, err = store.Prune(ctx, -1)
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestReopenKeepsRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, sampleEntry("persisted", time.Now().UTC())))
	require.NoError(t, store.Close())

	reopened := testsupport.MustOpenHistory(t, cfg)
	run, err := reopened.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", run.RunID)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := history.Open("")
	assert.True(t, errors.Is(err, services.ErrConfiguration))
}

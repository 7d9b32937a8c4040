package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"createmovie/internal/allocation"
	"createmovie/internal/config"
	"createmovie/internal/services"
	"createmovie/internal/usage"
)

func setupPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	pub, err := New(&redis.Options{Addr: mr.Addr()}, "cm-test")
	require.NoError(t, err)
	t.Cleanup(func() { pub.Close() })
	pub.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return pub, mr
}

func testResult(id string, started time.Time) *allocation.Result {
	return &allocation.Result{
		RunID:       id,
		Strategy:    "marketing",
		ProjectType: "marketing",
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
		Cuts: []allocation.CutResult{
			{CutID: 1, SceneDescription: "hero shot", Source: &allocation.SourceMaterial{MaterialID: "m1", Filename: "m1.jpg", Category: "product", Confidence: 0.8}},
			{CutID: 2, SceneDescription: "unmatched", GenerationRequired: true, GenerationPrompt: "Generate an image for this scene:\n"},
		},
		Usage: usage.UsageRate{Used: 1, Total: 3, Rate: 1.0 / 3.0, Percentage: "33.3%"},
	}
}

func TestNewRejectsEmptyNamespace(t *testing.T) {
	_, err := New(&redis.Options{Addr: "localhost:6379"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrConfiguration))
}

func TestNewFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default().Publish
	cfg.RedisAddr = mr.Addr()

	pub, err := NewFromConfig(cfg)
	require.NoError(t, err)
	defer pub.Close()

	assert.Equal(t, "createmovie", pub.Namespace())
	assert.NoError(t, pub.Ping(context.Background()))
}

func TestPublishRunStoresSummary(t *testing.T) {
	pub, mr := setupPublisher(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	require.NoError(t, pub.PublishRun(ctx, testResult("r1", started), usage.Validation{Valid: true}))

	assert.True(t, mr.Exists("cm-test:run:r1"))
	assert.Equal(t, "marketing", mr.HGet("cm-test:run:r1", "strategy"))
	assert.Equal(t, "1", mr.HGet("cm-test:run:r1", "generation_count"))

	summary, err := pub.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", summary.RunID)
	assert.Equal(t, 1, summary.Used)
	assert.Equal(t, 3, summary.Total)
	assert.InDelta(t, 1.0/3.0, summary.Rate, 1e-12)
	assert.True(t, summary.Valid)
	assert.True(t, summary.StartedAt.Equal(started))

	cuts, err := pub.Cuts(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, cuts, 2)
	require.NotNil(t, cuts[0].Source)
	assert.Equal(t, "m1", cuts[0].Source.MaterialID)
	assert.True(t, cuts[1].GenerationRequired)
}

func TestPublishRunIsIdempotent(t *testing.T) {
	pub, _ := setupPublisher(t)
	ctx := context.Background()
	res := testResult("r1", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))

	require.NoError(t, pub.PublishRun(ctx, res, usage.Validation{Valid: true}))
	require.NoError(t, pub.PublishRun(ctx, res, usage.Validation{Valid: false}))

	cuts, err := pub.Cuts(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, cuts, 2)

	summary, err := pub.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, summary.Valid)

	ids, err := pub.RecentRuns(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	pub, _ := setupPublisher(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, pub.PublishRun(ctx, testResult(id, base.Add(time.Duration(i)*time.Minute)), usage.Validation{Valid: true}))
	}

	ids, err := pub.RecentRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid"}, ids)
}

func TestGetRunMissing(t *testing.T) {
	pub, _ := setupPublisher(t)

	_, err := pub.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestPublishRunRequiresID(t *testing.T) {
	pub, _ := setupPublisher(t)

	err := pub.PublishRun(context.Background(), &allocation.Result{}, usage.Validation{})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestSubscribeReceivesRunEvents(t *testing.T) {
	pub, _ := setupPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, pub.PublishRun(ctx, testResult("r9", time.Now().UTC()), usage.Validation{Valid: true}))

	select {
	case event := <-sub.Events():
		assert.Equal(t, EventRunCompleted, event.Type)
		assert.Equal(t, "r9", event.RunID)
		assert.Equal(t, 1, event.GenerationCount)
		assert.True(t, event.Valid)
		assert.Equal(t, "33.3%", event.Usage.Percentage)
	case <-ctx.Done():
		t.Fatal("timed out waiting for run event")
	}
}

func TestSubscribeReportsBadPayloads(t *testing.T) {
	pub, mr := setupPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(EventsChannel("cm-test"), "not json")

	select {
	case err := <-sub.Errors():
		assert.Contains(t, err.Error(), "decode run event")
	case <-ctx.Done():
		t.Fatal("timed out waiting for decode error")
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ns:run:abc", RunKey("ns", "abc"))
	assert.Equal(t, "ns:run:abc:cuts", CutsKey("ns", "abc"))
	assert.Equal(t, "ns:runs", RunsIndexKey("ns"))
	assert.Equal(t, "ns:events", EventsChannel("ns"))
}

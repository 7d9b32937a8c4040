package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"createmovie/internal/allocation"
	"createmovie/internal/config"
	"createmovie/internal/services"
	"createmovie/internal/usage"
)

// EventRunCompleted is the event type emitted after a run is stored.
const EventRunCompleted = "run_completed"

// Event is the JSON payload published on the events channel.
type Event struct {
	Type            string          `json:"type"`
	RunID           string          `json:"run_id"`
	Strategy        string          `json:"strategy"`
	ProjectType     string          `json:"project_type"`
	Usage           usage.UsageRate `json:"material_usage"`
	GenerationCount int             `json:"generation_count"`
	Valid           bool            `json:"valid"`
	Timestamp       time.Time       `json:"timestamp"`
}

// RunSummary is the hash stored for a published run.
type RunSummary struct {
	RunID           string
	Strategy        string
	ProjectType     string
	StartedAt       time.Time
	FinishedAt      time.Time
	Used            int
	Total           int
	Rate            float64
	GenerationCount int
	Valid           bool
}

// Publisher writes run summaries to Redis and announces them on a channel.
// All keys are prefixed with the namespace. Safe for concurrent use.
type Publisher struct {
	rdb       *redis.Client
	namespace string
	now       func() time.Time
}

// New creates a publisher for the given connection options and namespace.
func New(opts *redis.Options, namespace string) (*Publisher, error) {
	if namespace == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "new", "namespace cannot be empty", nil)
	}
	return &Publisher{
		rdb:       redis.NewClient(opts),
		namespace: namespace,
		now:       time.Now,
	}, nil
}

// NewFromConfig builds a publisher from the publish config section.
func NewFromConfig(cfg config.Publish) (*Publisher, error) {
	return New(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.Namespace)
}

// Namespace returns the key prefix.
func (p *Publisher) Namespace() string { return p.namespace }

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// Ping verifies Redis connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "ping", "redis unreachable", err)
	}
	return nil
}

// PublishRun stores the run summary hash, its cut list, and its index entry
// in one transaction, then publishes a run_completed event.
func (p *Publisher) PublishRun(ctx context.Context, res *allocation.Result, validation usage.Validation) error {
	if res == nil || res.RunID == "" {
		return services.Wrap(services.ErrValidation, "publish", "run", "run has no id", nil)
	}

	cuts := make([]any, 0, len(res.Cuts))
	for _, cut := range res.Cuts {
		data, err := json.Marshal(cut)
		if err != nil {
			return fmt.Errorf("marshal cut %d: %w", cut.CutID, err)
		}
		cuts = append(cuts, data)
	}

	runKey := RunKey(p.namespace, res.RunID)
	cutsKey := CutsKey(p.namespace, res.RunID)
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, runKey, summaryHash(res, validation))
		pipe.Del(ctx, cutsKey)
		if len(cuts) > 0 {
			pipe.RPush(ctx, cutsKey, cuts...)
		}
		pipe.ZAdd(ctx, RunsIndexKey(p.namespace), redis.Z{
			Score:  float64(res.StartedAt.UnixMilli()),
			Member: res.RunID,
		})
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "publish", "run", "write run to redis", err)
	}

	event := Event{
		Type:            EventRunCompleted,
		RunID:           res.RunID,
		Strategy:        res.Strategy,
		ProjectType:     res.ProjectType,
		Usage:           res.Usage,
		GenerationCount: res.GenerationCount(),
		Valid:           validation.Valid,
		Timestamp:       p.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	if err := p.rdb.Publish(ctx, EventsChannel(p.namespace), payload).Err(); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "event", "publish run event", err)
	}
	return nil
}

// GetRun reads a published run summary.
func (p *Publisher) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	hash, err := p.rdb.HGetAll(ctx, RunKey(p.namespace, runID)).Result()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publish", "get run", "read redis hash", err)
	}
	if len(hash) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "publish", "get run", "run "+runID, nil)
	}
	return summaryFromHash(hash)
}

// RecentRuns returns up to limit run ids, newest first.
func (p *Publisher) RecentRuns(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := p.rdb.ZRevRange(ctx, RunsIndexKey(p.namespace), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publish", "recent runs", "read run index", err)
	}
	return ids, nil
}

// Cuts returns the per-cut records published for a run.
func (p *Publisher) Cuts(ctx context.Context, runID string) ([]allocation.CutResult, error) {
	raw, err := p.rdb.LRange(ctx, CutsKey(p.namespace, runID), 0, -1).Result()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "publish", "cuts", "read cut list", err)
	}
	out := make([]allocation.CutResult, 0, len(raw))
	for _, item := range raw {
		var cut allocation.CutResult
		if err := json.Unmarshal([]byte(item), &cut); err != nil {
			return nil, fmt.Errorf("decode cut record: %w", err)
		}
		out = append(out, cut)
	}
	return out, nil
}

func summaryHash(res *allocation.Result, validation usage.Validation) map[string]any {
	return map[string]any{
		"run_id":           res.RunID,
		"strategy":         res.Strategy,
		"project_type":     res.ProjectType,
		"started_at":       res.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at":      res.FinishedAt.UTC().Format(time.RFC3339Nano),
		"used":             res.Usage.Used,
		"total":            res.Usage.Total,
		"rate":             strconv.FormatFloat(res.Usage.Rate, 'f', -1, 64),
		"generation_count": res.GenerationCount(),
		"valid":            strconv.FormatBool(validation.Valid),
	}
}

func summaryFromHash(hash map[string]string) (*RunSummary, error) {
	s := &RunSummary{
		RunID:       hash["run_id"],
		Strategy:    hash["strategy"],
		ProjectType: hash["project_type"],
	}
	var err error
	if s.StartedAt, err = time.Parse(time.RFC3339Nano, hash["started_at"]); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if s.FinishedAt, err = time.Parse(time.RFC3339Nano, hash["finished_at"]); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	if s.Used, err = strconv.Atoi(hash["used"]); err != nil {
		return nil, fmt.Errorf("parse used: %w", err)
	}
	if s.Total, err = strconv.Atoi(hash["total"]); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if s.Rate, err = strconv.ParseFloat(hash["rate"], 64); err != nil {
		return nil, fmt.Errorf("parse rate: %w", err)
	}
	if s.GenerationCount, err = strconv.Atoi(hash["generation_count"]); err != nil {
		return nil, fmt.Errorf("parse generation_count: %w", err)
	}
	if s.Valid, err = strconv.ParseBool(hash["valid"]); err != nil {
		return nil, fmt.Errorf("parse valid: %w", err)
	}
	return s, nil
}

// Subscription delivers run events until closed or its context ends.
type Subscription struct {
	events <-chan Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the event channel. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.events }

// Errors carries decode failures. The subscription keeps running after them.
func (s *Subscription) Errors() <-chan error { return s.errors }

// Close stops the subscription. Safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens for run events. The subscription is confirmed before
// Subscribe returns, so events published afterwards are not missed.
func (p *Publisher) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := p.rdb.Subscribe(ctx, EventsChannel(p.namespace))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, services.Wrap(services.ErrTransient, "publish", "subscribe", "confirm subscription", err)
	}

	events := make(chan Event, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(events)
		defer close(errs)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errs <- fmt.Errorf("decode run event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				select {
				case events <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: events, errors: errs, cancel: cancel}, nil
}

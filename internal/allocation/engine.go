package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"createmovie/internal/logging"
	"createmovie/internal/material"
	"createmovie/internal/matcher"
	"createmovie/internal/services"
	"createmovie/internal/strategy"
	"createmovie/internal/usage"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-cut decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAllowGeneration controls the no-candidate outcome. When true (the
// default) the cut is flagged generation_required; when false Run stops with
// a *NoCandidateError.
func WithAllowGeneration(allow bool) Option {
	return func(e *Engine) { e.allowGeneration = allow }
}

// WithAlternatives records up to n runner-up candidates per cut.
func WithAlternatives(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.alternatives = n
		}
	}
}

// WithClock overrides the time source for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine assigns materials to cuts greedily, one cut at a time in storyboard
// order. An Engine is not safe for concurrent use.
type Engine struct {
	cfg             material.ProjectConfig
	strategy        strategy.Strategy
	matcher         *matcher.Matcher
	logger          *slog.Logger
	allowGeneration bool
	alternatives    int
	now             func() time.Time
}

// New constructs an engine for a project and strategy.
func New(cfg material.ProjectConfig, strat strategy.Strategy, opts ...Option) *Engine {
	if strat == nil {
		strat = strategy.New(strategy.Default, nil)
	}
	e := &Engine{
		cfg:             cfg,
		strategy:        strat,
		matcher:         matcher.New(cfg),
		logger:          logging.NewNop(),
		allowGeneration: true,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "allocation")
	return e
}

// Run allocates pool materials to cuts. A fresh usage tracker is created for
// every run; pool materials chosen in this run get AssignedTo set.
func (e *Engine) Run(ctx context.Context, pool []*material.Material, cuts []material.Cut) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStrategy(ctx, e.strategy.Kind().String())
	logger := logging.WithContext(ctx, e.logger)

	cutIDs, err := resolveCutIDs(cuts)
	if err != nil {
		return nil, err
	}

	tracker := usage.NewTracker(e.cfg)
	e.matcher.Index(pool)

	result := &Result{
		RunID:       runID,
		Strategy:    e.strategy.Kind().String(),
		ProjectType: e.cfg.ProjectType,
		StartedAt:   e.now().UTC(),
		Cuts:        make([]CutResult, 0, len(cuts)),
		Tracker:     tracker,
	}
	logger.Info("allocation started",
		logging.Int("pool_size", len(pool)),
		logging.Int("cut_count", len(cuts)),
		logging.Bool("allow_reuse", e.cfg.Usage.AllowReuse),
	)

	for i, cut := range cuts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cutID := cutIDs[i]
		cutLogger := logging.WithContext(services.WithCutID(ctx, cutID), e.logger)

		cr, err := e.allocateCut(cut, cutID, pool, tracker, cutLogger)
		if err != nil {
			return nil, err
		}
		result.Cuts = append(result.Cuts, cr)
	}

	result.Usage = tracker.CalculateUsageRate(pool)
	result.FinishedAt = e.now().UTC()
	logger.Info("allocation finished",
		logging.Int("used", result.Usage.Used),
		logging.Int("total", result.Usage.Total),
		logging.String("usage_rate", result.Usage.Percentage),
		logging.Int("generation_required", result.GenerationCount()),
	)
	return result, nil
}

// resolveCutIDs returns the effective id of every cut: its own number, or its
// 1-based position when unset. Effective ids must be unique within a run.
func resolveCutIDs(cuts []material.Cut) ([]int, error) {
	ids := make([]int, len(cuts))
	seen := make(map[int]int, len(cuts))
	for i, cut := range cuts {
		id := cut.ID
		if id < 0 {
			return nil, &material.ConfigError{Field: "cuts", Message: fmt.Sprintf("cut %d has negative cut_number %d", i+1, id)}
		}
		if id == 0 {
			id = i + 1
		}
		if prev, ok := seen[id]; ok {
			return nil, &material.ConfigError{Field: "cuts", Message: fmt.Sprintf("cuts %d and %d share cut id %d", prev+1, i+1, id)}
		}
		seen[id] = i
		ids[i] = id
	}
	return ids, nil
}

func (e *Engine) style() string {
	if e.cfg.ProjectType != "" {
		return e.cfg.ProjectType
	}
	return e.strategy.Kind().String()
}

func (e *Engine) allocateCut(cut material.Cut, cutID int, pool []*material.Material, tracker *usage.Tracker, logger *slog.Logger) (CutResult, error) {
	cr := CutResult{CutID: cutID, SceneDescription: cut.SceneDescription}

	ranked := strategy.Rank(cut, pool, e.matcher, e.strategy)
	if len(ranked) == 0 {
		if !e.allowGeneration {
			logger.Warn("no candidate material",
				logging.Args(logging.DecisionAttrs("material_allocation", "failed", "no candidate and generation disabled")...)...)
			return CutResult{}, &NoCandidateError{CutID: cutID, Categories: cut.Categories}
		}
		cr.GenerationRequired = true
		cr.GenerationPrompt = GenerationPrompt(cut, e.style())
		cr.UsedAfter = tracker.CalculateUsageRate(pool).Used
		logger.Info("generation required",
			logging.Args(logging.DecisionAttrs("material_allocation", "generation_required", "no candidate matched the cut")...)...)
		return cr, nil
	}

	best := ranked[0]
	if err := tracker.MarkUsed(best.Material, cutID, best.Score); err != nil {
		return CutResult{}, err
	}
	cr.Source = &SourceMaterial{
		MaterialID: best.Material.ID,
		Filename:   best.Material.Filename,
		Path:       best.Material.Path,
		Category:   best.Material.Category,
		Confidence: best.Score,
	}
	for _, alt := range ranked[1:min(len(ranked), e.alternatives+1)] {
		cr.Alternatives = append(cr.Alternatives, Alternative{
			MaterialID: alt.Material.ID,
			Score:      alt.Score,
			Base:       alt.Base,
			Bonus:      alt.Bonus,
		})
	}
	cr.UsedAfter = tracker.CalculateUsageRate(pool).Used

	attrs := logging.DecisionAttrs("material_allocation", "assigned",
		fmt.Sprintf("highest score among %d candidates", len(ranked)))
	attrs = append(attrs,
		logging.String(logging.FieldMaterialID, best.Material.ID),
		logging.Float64("score", best.Score),
		logging.Float64("base_score", best.Base),
		logging.Float64("bonus", best.Bonus),
		logging.Int("candidates", len(ranked)),
	)
	logger.Info("material assigned", logging.Args(attrs...)...)
	return cr, nil
}

package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	cutIDKey    contextKey = "cut_id"
	strategyKey contextKey = "strategy"
)

// WithRunID annotates context with the allocation run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the allocation run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCutID annotates context with the storyboard cut being allocated.
func WithCutID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, cutIDKey, id)
}

// CutIDFromContext extracts the cut identifier if present.
func CutIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(cutIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithStrategy annotates context with the active matching strategy name.
func WithStrategy(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, strategyKey, name)
}

// StrategyFromContext returns the strategy name if present.
func StrategyFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(strategyKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

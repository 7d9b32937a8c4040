package logging

import (
	"context"
	"log/slog"

	"createmovie/internal/services"
)

const (
	FieldComponent    = "component"
	FieldRunID        = "run_id"
	FieldCutID        = "cut_id"
	FieldStrategy     = "strategy"
	FieldMaterialID   = "material_id"
	FieldEventType    = "event_type"
	FieldDecisionType = "decision_type"
	FieldErrorHint    = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.CutIDFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldCutID, id))
	}
	if name, ok := services.StrategyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStrategy, name))
	}
	return fields
}

// WithContext returns a logger augmented with fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

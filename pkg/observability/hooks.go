package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// Combine merges hook sets. Each callback runs in the order the sets are given.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnStateChange = chain1(out.OnStateChange, h.OnStateChange)
		out.OnCascade = chain1(out.OnCascade, h.OnCascade)
		out.OnTurnStart = chain2(out.OnTurnStart, h.OnTurnStart)
		out.OnTurnEnd = chain2(out.OnTurnEnd, h.OnTurnEnd)
		out.OnTimeout = chain2(out.OnTimeout, h.OnTimeout)
	}
	return out
}

func chain1[E any](a, b func(E)) func(E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}

func chain2[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks writes every lifecycle event to the logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(e *domain.StateEvent) {
			logger.Debug("state_change",
				"dialogue", e.Dialogue,
				"resource", e.Resource,
				"from", e.From.String(),
				"to", e.To.String(),
			)
		},
		OnCascade: func(e *domain.CascadeEvent) {
			logger.Debug("cascade", "dialogue", e.Dialogue, "origin", e.Origin, "ancestors", e.Ancestors)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			attrs := []any{
				"dialogue", e.Dialogue,
				"client_id", e.ClientID,
				"focus", e.Focus,
				"outcome", e.Outcome(),
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.ErrorContext(ctx, "turn_end", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "turn_end", attrs...)
		},
		OnTimeout: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "dialogue timed out", "dialogue", e.Dialogue, "client_id", e.ClientID)
		},
	}
}

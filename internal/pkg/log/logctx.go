// log хранит *slog.Logger в context.Context, чтобы обогащённый
// логгер (run_id, day) был доступен глубже по стеку без явной передачи.
package log

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// With дополняет логгер из контекста атрибутами и кладёт результат обратно.
func With(ctx context.Context, args ...any) context.Context {
	return Into(ctx, From(ctx).With(args...))
}

// WithRunID помечает все записи одного прогона общим run_id.
// Пустой id заменяется сгенерированным UUID.
func WithRunID(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = uuid.NewString()
	}

	return With(ctx, slog.String("run_id", id)), id
}

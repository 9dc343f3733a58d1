// batch запускает независимые задачи пачками фиксированной ширины.
//
// Задачи режутся на последовательные чанки по width штук. Все задачи чанка
// стартуют одновременно, следующий чанк начинается только после завершения
// всех задач текущего. Ошибка или паника одной задачи не отменяет соседей.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/hn-digest/internal/pkg/log"
)

// DefaultWidth — ширина пачки по умолчанию.
const DefaultWidth = 10

// ErrPanic — задача завершилась паникой.
var ErrPanic = errors.New("task panicked")

// Task — единица работы.
type Task[T any] func(ctx context.Context) (T, error)

// Result — исход задачи с тем же индексом, что и во входном срезе.
type Result[T any] struct {
	Value T
	Err   error
}

// Run выполняет tasks пачками по width и возвращает результаты в порядке подачи.
// width <= 0 означает DefaultWidth.
//
// Если ctx отменён до старта очередного чанка, оставшиеся задачи не
// запускаются и получают ctx.Err() в качестве ошибки.
func Run[T any](ctx context.Context, tasks []Task[T], width int) []Result[T] {
	const op = "batch.Run"

	if width <= 0 {
		width = DefaultWidth
	}

	results := make([]Result[T], len(tasks))

	for start := 0; start < len(tasks); start += width {
		end := min(start+width, len(tasks))

		if err := ctx.Err(); err != nil {
			for i := start; i < len(tasks); i++ {
				results[i].Err = err
			}
			log.From(ctx).Warn("batch_aborted",
				slog.String("op", op),
				slog.Int("skipped", len(tasks)-start),
				slog.String("err", err.Error()),
			)
			break
		}

		// Группа без WithContext: ошибка задачи не отменяет соседей,
		// Wait лишь отдаёт первую из них для сводки по чанку.
		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				results[i] = runOne(ctx, tasks[i])
				return results[i].Err
			})
		}

		attrs := []any{
			slog.String("op", op),
			slog.Int("from", start),
			slog.Int("to", end-1),
		}
		if err := g.Wait(); err != nil {
			log.From(ctx).Warn("batch_chunk_done",
				append(attrs, slog.Int("failed", failed(results[start:end])), slog.String("first_err", err.Error()))...)
		} else {
			log.From(ctx).Debug("batch_chunk_done", attrs...)
		}
	}

	return results
}

func failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}

	return n
}

// runOne изолирует панику задачи в её собственный результат.
func runOne[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	v, err := task(ctx)

	return Result[T]{Value: v, Err: err}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pribylovaa/hn-digest/internal/batch"
	"github.com/pribylovaa/hn-digest/internal/extract"
	"github.com/pribylovaa/hn-digest/internal/models"
	"github.com/pribylovaa/hn-digest/internal/pkg/log"
	"github.com/pribylovaa/hn-digest/internal/storage"
)

// dayResult — итог обработки одного дня.
type dayResult struct {
	summary models.DaySummary
	stories []models.Story
}

// Report собирает выдачу за последние days дней и сводит её в отчёт.
//
// Особенности:
//   - дни обрабатываются пачками ширины cfg.Pipeline.Workers;
//   - сбой одного дня не прерывает остальные: день попадает в отчёт с нулём записей;
//   - отмена ctx в любой момент прогона возвращает ошибку и не даёт частичного отчёта;
//   - записи отсортированы по Score по убыванию, записи без Score — в конце,
//     при равенстве сохраняется порядок дней и рангов.
func (s *Service) Report(ctx context.Context, days int) (*models.Report, error) {
	const op = "service.Report"

	keys, err := s.Days(days)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg := log.From(ctx)
	lg.Info("report_start",
		slog.String("op", op),
		slog.Int("days", days),
		slog.Int("workers", s.cfg.Pipeline.Workers),
		slog.Bool("refresh", s.refresh),
		slog.Bool("store", s.storage != nil),
	)

	tasks := make([]batch.Task[dayResult], len(keys))
	for i, day := range keys {
		day := day
		tasks[i] = func(ctx context.Context) (dayResult, error) {
			return s.processDay(ctx, day), nil
		}
	}

	results := batch.Run(ctx, tasks, s.cfg.Pipeline.Workers)

	// Прерванный прогон не даёт отчёта: недообработанные дни не считаются сбоем загрузки.
	if err := ctx.Err(); err != nil {
		lg.Warn("report_interrupted", slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &models.Report{Generated: s.now().UTC()}
	for i, r := range results {
		res := r.Value
		if r.Err != nil {
			// Паника или отмена до старта: день без записей.
			lg.Warn("day_task_failed",
				slog.String("op", op),
				slog.String("day", keys[i].String()),
				slog.String("err", r.Err.Error()),
			)
			res = dayResult{summary: models.DaySummary{Day: keys[i], Outcome: models.OutcomeFailed}}
			s.metrics.Day(models.OutcomeFailed)
		}

		report.Days = append(report.Days, res.summary)
		report.Stories = append(report.Stories, res.stories...)
	}

	sortByScore(report.Stories)

	lg.Info("report_done",
		slog.String("op", op),
		slog.Int("days", len(report.Days)),
		slog.Int("stories", len(report.Stories)),
	)

	return report, nil
}

// processDay — конечный автомат одного дня:
// CacheCheck → (hit: Done) | (miss: Fetching → Extracting → Persisting → Done).
func (s *Service) processDay(ctx context.Context, day models.Day) dayResult {
	const op = "service.processDay"

	ctx = log.With(ctx, slog.String("day", day.String()))
	lg := log.From(ctx)

	done := func(outcome models.DayOutcome, stories []models.Story) dayResult {
		s.metrics.Day(outcome)
		return dayResult{
			summary: models.DaySummary{Day: day, Outcome: outcome, Records: len(stories)},
			stories: stories,
		}
	}

	if s.storage != nil && !s.refresh {
		if stories, outcome, ok := s.cached(ctx, day); ok {
			return done(outcome, stories)
		}
	}

	target, err := DayURL(s.cfg.Fetcher.BaseURL, day)
	if err != nil {
		lg.Warn("day_bad_url", slog.String("op", op), slog.String("err", err.Error()))
		s.recordAttempt(ctx, day, models.AttemptFailed, 0)
		return done(models.OutcomeFailed, nil)
	}

	raw, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		lg.Warn("day_fetch_failed",
			slog.String("op", op),
			slog.String("url", target),
			slog.String("err", err.Error()),
		)
		s.recordAttempt(ctx, day, models.AttemptFailed, 0)
		return done(models.OutcomeFailed, nil)
	}

	stories, err := extract.Stories(raw, s.cfg.Fetcher.PageLimit)
	if err != nil {
		lg.Warn("day_extract_failed", slog.String("op", op), slog.String("err", err.Error()))
		stories = nil
	}

	for i := range stories {
		stories[i].Day = day
	}
	stories = storage.Dedup(stories)

	if len(stories) == 0 {
		lg.Info("day_empty", slog.String("op", op), slog.String("url", target))
		s.recordAttempt(ctx, day, models.AttemptEmpty, 0)
		return done(models.OutcomeEmpty, nil)
	}

	if s.storage != nil {
		if err := s.storage.Upsert(ctx, day, stories); err != nil {
			lg.Error("day_persist_failed",
				slog.String("op", op),
				slog.Int("records", len(stories)),
				slog.String("err", err.Error()),
			)
		} else {
			s.metrics.Stored(len(stories))
			s.recordAttempt(ctx, day, models.AttemptOK, len(stories))
			lg.Debug("upsert_ok", slog.String("op", op), slog.Int("records", len(stories)))
		}
	}

	lg.Info("day_fetched", slog.String("op", op), slog.Int("records", len(stories)))

	return done(models.OutcomeFetched, stories)
}

// cached проверяет хранилище. ok == true означает, что загружать день не нужно:
//   - есть сохранённые записи → hit;
//   - последняя попытка была пустой и моложе cfg.Cache.EmptyTTL → пустой день без загрузки.
//
// Неудачная попытка и отсутствие отметки ведут к загрузке.
func (s *Service) cached(ctx context.Context, day models.Day) ([]models.Story, models.DayOutcome, bool) {
	const op = "service.cached"

	lg := log.From(ctx)

	stories, found, err := s.storage.Lookup(ctx, day)
	switch {
	case err != nil:
		lg.Warn("day_lookup_failed", slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", false
	case found:
		lg.Info("day_cache_hit", slog.String("op", op), slog.Int("records", len(stories)))
		return stories, models.OutcomeCacheHit, true
	}

	attempt, err := s.storage.LastAttempt(ctx, day)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			lg.Warn("day_attempt_lookup_failed", slog.String("op", op), slog.String("err", err.Error()))
		}
		return nil, "", false
	}

	if attempt.Status == models.AttemptEmpty && s.now().Sub(attempt.AttemptedAt) < s.cfg.Cache.EmptyTTL {
		lg.Info("day_cached_empty",
			slog.String("op", op),
			slog.Time("attempted_at", attempt.AttemptedAt),
		)
		return nil, models.OutcomeEmpty, true
	}

	return nil, "", false
}

// recordAttempt сохраняет отметку о попытке; ошибка только логируется.
func (s *Service) recordAttempt(ctx context.Context, day models.Day, status models.AttemptStatus, records int) {
	const op = "service.recordAttempt"

	if s.storage == nil {
		return
	}

	err := s.storage.RecordAttempt(ctx, models.Attempt{
		Day:         day,
		Status:      status,
		Records:     records,
		AttemptedAt: s.now().UTC(),
	})
	if err != nil {
		log.From(ctx).Warn("attempt_record_failed",
			slog.String("op", op),
			slog.String("status", string(status)),
			slog.String("err", err.Error()),
		)
	}
}

// sortByScore — устойчивая сортировка по Score по убыванию, без Score — в конце.
func sortByScore(stories []models.Story) {
	slices.SortStableFunc(stories, func(a, b models.Story) int {
		switch {
		case a.Score.Valid && !b.Score.Valid:
			return -1
		case !a.Score.Valid && b.Score.Valid:
			return 1
		case !a.Score.Valid && !b.Score.Valid:
			return 0
		}

		return b.Score.Value - a.Score.Value
	})
}

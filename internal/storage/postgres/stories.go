package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pribylovaa/hn-digest/internal/models"
	"github.com/pribylovaa/hn-digest/internal/storage"
)

// maxTxRetries — сколько раз повторяем транзакцию при serialization_failure/deadlock.
const maxTxRetries = 3

// Lookup возвращает записи дня в порядке ранга (без ранга — в конце).
// found == false, если за день нет ни одной записи.
func (s *Storage) Lookup(ctx context.Context, day models.Day) ([]models.Story, bool, error) {
	const op = "storage.postgres.Lookup"

	if day.IsZero() {
		return nil, false, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	rows, err := s.db.Query(ctx, `
	SELECT title, url, rank, score, comments, site, author
	FROM stories
	WHERE day = $1
	ORDER BY rank ASC NULLS LAST, title ASC
	`, day.Time())
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var (
			st                    models.Story
			rank, score, comments pgtype.Int4
		)

		if err := rows.Scan(&st.Title, &st.URL, &rank, &score, &comments, &st.Site, &st.Author); err != nil {
			return nil, false, fmt.Errorf("%s: scan row: %w", op, err)
		}

		st.Rank = fromInt4(rank)
		st.Score = fromInt4(score)
		st.Comments = fromInt4(comments)
		st.Day = day

		stories = append(stories, st)
	}

	if rows.Err() != nil {
		return nil, false, fmt.Errorf("%s: rows: %w", op, rows.Err())
	}

	return stories, len(stories) > 0, nil
}

// Upsert сохраняет записи дня одной транзакцией.
//
// Особенности:
//   - дубликаты по title внутри пачки схлопываются, побеждает последний;
//   - конфликт (day, title) перезаписывает все неключевые поля;
//   - транзакции одного дня сериализуются через pg_advisory_xact_lock;
//   - serialization_failure и deadlock_detected повторяются до maxTxRetries раз.
func (s *Storage) Upsert(ctx context.Context, day models.Day, stories []models.Story) error {
	const op = "storage.postgres.Upsert"

	if day.IsZero() {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	items := storage.Dedup(stories)
	if len(items) == 0 {
		return nil
	}

	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = s.upsertTx(ctx, day, items)
		if err == nil || !retryable(err) {
			break
		}
	}

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) upsertTx(ctx context.Context, day models.Day, items []models.Story) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, day.String()); err != nil {
		return fmt.Errorf("lock day: %w", err)
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
		INSERT INTO stories (day, title, url, rank, score, comments, site, author, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (day, title) DO UPDATE
		SET
		url = EXCLUDED.url,
		rank = EXCLUDED.rank,
		score = EXCLUDED.score,
		comments = EXCLUDED.comments,
		site = EXCLUDED.site,
		author = EXCLUDED.author,
		fetched_at = EXCLUDED.fetched_at
		`, day.Time(), it.Title, it.URL, toInt4(it.Rank), toInt4(it.Score), toInt4(it.Comments),
			it.Site, it.Author, now)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// LastAttempt возвращает отметку о последней загрузке дня.
// Если день ни разу не загружали — storage.ErrNotFound.
func (s *Storage) LastAttempt(ctx context.Context, day models.Day) (*models.Attempt, error) {
	const op = "storage.postgres.LastAttempt"

	var (
		status string
		a      = models.Attempt{Day: day}
	)

	err := s.db.QueryRow(ctx, `
	SELECT status, records, attempted_at
	FROM fetch_attempts
	WHERE day = $1
	`, day.Time()).Scan(&status, &a.Records, &a.AttemptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.Status = models.AttemptStatus(status)
	a.AttemptedAt = a.AttemptedAt.UTC()

	return &a, nil
}

// RecordAttempt сохраняет отметку о загрузке дня, заменяя предыдущую.
func (s *Storage) RecordAttempt(ctx context.Context, attempt models.Attempt) error {
	const op = "storage.postgres.RecordAttempt"

	if attempt.Day.IsZero() || attempt.Status == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	at := attempt.AttemptedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.Exec(ctx, `
	INSERT INTO fetch_attempts (day, status, records, attempted_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (day) DO UPDATE
	SET
	status = EXCLUDED.status,
	records = EXCLUDED.records,
	attempted_at = EXCLUDED.attempted_at
	`, attempt.Day.Time(), string(attempt.Status), attempt.Records, at.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// retryable — ошибки, после которых транзакцию имеет смысл повторить целиком.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

func toInt4(c models.Count) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(c.Value), Valid: c.Valid}
}

func fromInt4(v pgtype.Int4) models.Count {
	if !v.Valid {
		return models.None
	}

	return models.Some(int(v.Int32))
}

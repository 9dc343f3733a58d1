// sqlite — встраиваемая реализация storage.Storage для локальных запусков.
//
// Особенности:
//   - схема совпадает с миграциями PostgreSQL, день хранится строкой YYYY-MM-DD;
//   - одно соединение на запись и чтение: SQLite допускает одного писателя,
//     поэтому Upsert разных горутин выполняются строго по очереди.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pribylovaa/hn-digest/internal/models"
	"github.com/pribylovaa/hn-digest/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS stories (
	day        TEXT    NOT NULL,
	title      TEXT    NOT NULL,
	url        TEXT    NOT NULL,
	rank       INTEGER NULL,
	score      INTEGER NULL,
	comments   INTEGER NULL,
	site       TEXT    NOT NULL DEFAULT '',
	author     TEXT    NOT NULL DEFAULT '',
	fetched_at TEXT    NOT NULL,
	PRIMARY KEY (day, title)
);
CREATE INDEX IF NOT EXISTS stories_day_rank_idx ON stories (day, rank);

CREATE TABLE IF NOT EXISTS fetch_attempts (
	day          TEXT    PRIMARY KEY,
	status       TEXT    NOT NULL CHECK (status IN ('ok', 'empty', 'failed')),
	records      INTEGER NOT NULL DEFAULT 0,
	attempted_at TEXT    NOT NULL
);
`

// Storage — хранилище поверх файла SQLite.
type Storage struct {
	db *sql.DB
}

// New открывает (или создаёт) файл базы и применяет схему.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: mkdir: %w", op, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: schema: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// Close закрывает базу.
func (s *Storage) Close() {
	_ = s.db.Close()
}

// Lookup возвращает записи дня в порядке ранга; found == false для пустого дня.
func (s *Storage) Lookup(ctx context.Context, day models.Day) ([]models.Story, bool, error) {
	const op = "storage.sqlite.Lookup"

	if day.IsZero() {
		return nil, false, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT title, url, rank, score, comments, site, author
	FROM stories
	WHERE day = ?
	ORDER BY rank IS NULL, rank ASC, title ASC
	`, day.String())
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var (
			st                    models.Story
			rank, score, comments sql.NullInt64
		)

		if err := rows.Scan(&st.Title, &st.URL, &rank, &score, &comments, &st.Site, &st.Author); err != nil {
			return nil, false, fmt.Errorf("%s: scan row: %w", op, err)
		}

		st.Rank = fromNull(rank)
		st.Score = fromNull(score)
		st.Comments = fromNull(comments)
		st.Day = day

		stories = append(stories, st)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("%s: rows: %w", op, err)
	}

	return stories, len(stories) > 0, nil
}

// Upsert сохраняет записи дня одной транзакцией, перезаписывая (day, title).
func (s *Storage) Upsert(ctx context.Context, day models.Day, stories []models.Story) error {
	const op = "storage.sqlite.Upsert"

	if day.IsZero() {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	items := storage.Dedup(stories)
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO stories (day, title, url, rank, score, comments, site, author, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (day, title) DO UPDATE SET
		url = excluded.url,
		rank = excluded.rank,
		score = excluded.score,
		comments = excluded.comments,
		site = excluded.site,
		author = excluded.author,
		fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, day.String(), it.Title, it.URL,
			toNull(it.Rank), toNull(it.Score), toNull(it.Comments), it.Site, it.Author, now); err != nil {
			return fmt.Errorf("%s: item %d: %w", op, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// LastAttempt возвращает отметку о последней загрузке дня или storage.ErrNotFound.
func (s *Storage) LastAttempt(ctx context.Context, day models.Day) (*models.Attempt, error) {
	const op = "storage.sqlite.LastAttempt"

	var (
		status, at string
		a          = models.Attempt{Day: day}
	)

	err := s.db.QueryRowContext(ctx, `
	SELECT status, records, attempted_at FROM fetch_attempts WHERE day = ?
	`, day.String()).Scan(&status, &a.Records, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.Status = models.AttemptStatus(status)
	if a.AttemptedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return nil, fmt.Errorf("%s: attempted_at: %w", op, err)
	}

	return &a, nil
}

// RecordAttempt сохраняет отметку о загрузке дня, заменяя предыдущую.
func (s *Storage) RecordAttempt(ctx context.Context, attempt models.Attempt) error {
	const op = "storage.sqlite.RecordAttempt"

	switch attempt.Status {
	case models.AttemptOK, models.AttemptEmpty, models.AttemptFailed:
	default:
		return fmt.Errorf("%s: status %q: %w", op, attempt.Status, storage.ErrInvalidArgument)
	}
	if attempt.Day.IsZero() {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	at := attempt.AttemptedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO fetch_attempts (day, status, records, attempted_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (day) DO UPDATE SET
		status = excluded.status,
		records = excluded.records,
		attempted_at = excluded.attempted_at
	`, attempt.Day.String(), string(attempt.Status), attempt.Records, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func toNull(c models.Count) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(c.Value), Valid: c.Valid}
}

func fromNull(v sql.NullInt64) models.Count {
	if !v.Valid {
		return models.None
	}

	return models.Some(int(v.Int64))
}

// Проверка на соответствие интерфейсу Storage.
var _ storage.Storage = (*Storage)(nil)

// storage определяет контракты доступа к хранилищу выдачи hn-digest.
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/hn-digest/internal/models"
)

var (
	// ErrNotFound — запись отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — некорректные входные данные (пустой день, пустой заголовок).
	ErrInvalidArgument = errors.New("invalid argument")
)

// StoryStorage описывает операции над записями выдачи за день.
type StoryStorage interface {
	// Lookup возвращает сохранённые записи дня.
	// found == true только если записей больше нуля: пустой день кэш-хитом не считается.
	Lookup(ctx context.Context, day models.Day) (stories []models.Story, found bool, err error)
	// Upsert сохраняет записи дня одной транзакцией.
	// Дубликаты по заголовку внутри пачки схлопываются (побеждает последний),
	// существующая запись (day, title) перезаписывается целиком.
	// Конкурентные Upsert одного дня сериализуются.
	Upsert(ctx context.Context, day models.Day, stories []models.Story) error
}

// AttemptStorage хранит отметки о попытках загрузки дня.
// Отличает «загружали, но пусто» от «не загружали вовсе».
type AttemptStorage interface {
	// LastAttempt возвращает последнюю отметку дня или ErrNotFound.
	LastAttempt(ctx context.Context, day models.Day) (*models.Attempt, error)
	// RecordAttempt сохраняет отметку, заменяя предыдущую для того же дня.
	RecordAttempt(ctx context.Context, attempt models.Attempt) error
}

// Storage задаёт полный контракт хранилища.
type Storage interface {
	StoryStorage
	AttemptStorage
	Close()
}

// Dedup схлопывает записи с одинаковым заголовком: сохраняется позиция первого
// вхождения, значения берутся из последнего. Записи без заголовка отбрасываются.
func Dedup(stories []models.Story) []models.Story {
	if len(stories) == 0 {
		return nil
	}

	index := make(map[string]int, len(stories))
	out := make([]models.Story, 0, len(stories))

	for _, s := range stories {
		if s.Title == "" {
			continue
		}

		if i, ok := index[s.Title]; ok {
			out[i] = s
			continue
		}

		index[s.Title] = len(out)
		out = append(out, s)
	}

	return out
}

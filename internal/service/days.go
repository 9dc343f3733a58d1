package service

import (
	"fmt"
	"net/url"

	"github.com/pribylovaa/hn-digest/internal/models"
)

// Days возвращает n дней, начиная с сегодняшнего и назад: сегодня, вчера, ...
// «Сегодня» берётся в часовом поясе часов сервиса (для time.Now это time.Local),
// а не по UTC: вечером западнее UTC --days 1 означает текущий день пользователя.
func (s *Service) Days(n int) ([]models.Day, error) {
	const op = "service.Days"

	if n < 1 {
		return nil, fmt.Errorf("%s: days must be >= 1, got %d: %w", op, n, ErrInvalidArgument)
	}

	return daysBack(models.LocalDay(s.now()), n), nil
}

func daysBack(today models.Day, n int) []models.Day {
	out := make([]models.Day, n)
	for i := range out {
		out[i] = today.AddDays(-i)
	}

	return out
}

// DayURL строит адрес страницы дня: <base>?day=YYYY-MM-DD.
// Прочие параметры запроса base сохраняются.
func DayURL(base string, day models.Day) (string, error) {
	const op = "service.DayURL"

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	q := u.Query()
	q.Set("day", day.String())
	u.RawQuery = q.Encode()

	return u.String(), nil
}

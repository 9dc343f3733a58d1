package models

import "time"

// AttemptStatus — итог последней попытки загрузки дня.
type AttemptStatus string

const (
	// AttemptOK — страница загружена, записи извлечены и сохранены.
	AttemptOK AttemptStatus = "ok"
	// AttemptEmpty — страница загружена, но записей на ней нет.
	AttemptEmpty AttemptStatus = "empty"
	// AttemptFailed — загрузка не удалась (ретраи исчерпаны или терминальная ошибка).
	AttemptFailed AttemptStatus = "failed"
)

// Attempt — маркер «день уже пытались загрузить».
// Отличает «никогда не загружали» (маркера нет) от «загрузили, но пусто».
type Attempt struct {
	Day         Day
	Status      AttemptStatus
	Records     int
	AttemptedAt time.Time
}

// DayOutcome — как день попал в отчёт.
type DayOutcome string

const (
	OutcomeCacheHit DayOutcome = "hit"
	OutcomeFetched  DayOutcome = "fetched"
	OutcomeEmpty    DayOutcome = "empty"
	OutcomeFailed   DayOutcome = "failed"
)

// DaySummary — итог обработки одного дня.
type DaySummary struct {
	Day     Day        `json:"day"`
	Outcome DayOutcome `json:"outcome"`
	Records int        `json:"records"`
}

// Report — агрегированная выдача за диапазон дней.
//
// Особенности:
//   - Stories отсортированы по Score по убыванию, записи без Score — в конце;
//   - Days упорядочены как запрошенные (сегодня, вчера, ...).
type Report struct {
	Days      []DaySummary `json:"days"`
	Stories   []Story      `json:"stories"`
	Generated time.Time    `json:"generated"`
}

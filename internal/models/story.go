// models содержит доменные сущности hn-digest.
// Эти типы используются слоями извлечения, хранилища, оркестрации и отчётов.
package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// DayLayout — формат RetrievalKey в URL и в хранилище.
const DayLayout = "2006-01-02"

// Day — календарный день, под которым хранится выдача одной страницы.
// Всегда нормализован к полуночи UTC.
type Day struct {
	t time.Time
}

// NewDay нормализует время к календарному дню (по UTC).
func NewDay(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// LocalDay берёт календарный день t в его собственном часовом поясе.
func LocalDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay разбирает строку формата YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, err
	}

	return NewDay(t), nil
}

// Time возвращает полночь дня в UTC.
func (d Day) Time() time.Time { return d.t }

// String — YYYY-MM-DD.
func (d Day) String() string { return d.t.Format(DayLayout) }

// Equal сравнивает два дня.
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

// IsZero сообщает, что день не задан.
func (d Day) IsZero() bool { return d.t.IsZero() }

// AddDays сдвигает день на n календарных дней (отрицательные — в прошлое).
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// MarshalJSON кодирует день строкой YYYY-MM-DD.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Count — неотрицательное целое с явным состоянием «нет значения».
//
// Особенности:
//   - Valid == false означает отсутствие значения на странице и не равно нулю;
//   - в JSON невалидное значение кодируется как null.
type Count struct {
	Value int
	Valid bool
}

// Some возвращает валидный Count.
func Some(n int) Count { return Count{Value: n, Valid: true} }

// None — отсутствующее значение.
var None = Count{}

// Int возвращает значение и признак его наличия.
func (c Count) Int() (int, bool) { return c.Value, c.Valid }

// String — число или "-" при отсутствии значения.
func (c Count) String() string {
	if !c.Valid {
		return "-"
	}

	return strconv.Itoa(c.Value)
}

// MarshalJSON кодирует значение числом или null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}

	return []byte(strconv.Itoa(c.Value)), nil
}

// UnmarshalJSON — обратное преобразование к MarshalJSON.
func (c *Count) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = None
		return nil
	}

	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	*c = Some(n)
	return nil
}

// Story — одна запись выдачи (StoryRecord).
//
// Особенности:
//   - Title — естественный ключ в пределах Day;
//   - Rank берётся только из явной метки страницы, позиция в документе не используется;
//   - Score/Comments различают «нет значения» и ноль.
type Story struct {
	// Rank - позиция на странице (1-based) или неизвестна.
	Rank Count `json:"rank"`
	// Title - заголовок истории.
	Title string `json:"title"`
	// URL - ссылка истории (абсолютная или относительная).
	URL string `json:"url"`
	// Score - количество очков.
	Score Count `json:"score"`
	// Comments - количество комментариев.
	Comments Count `json:"comments"`
	// Site - домен источника, если страница его показывает.
	Site string `json:"site,omitempty"`
	// Author - автор публикации.
	Author string `json:"author,omitempty"`
	// Day - день выдачи, к которому относится запись.
	Day Day `json:"day"`
}

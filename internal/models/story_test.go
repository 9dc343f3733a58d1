package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDay_NormalizesToUTCMidnight(t *testing.T) {
	t.Parallel()

	msk := time.FixedZone("MSK", 3*3600)
	d := NewDay(time.Date(2024, 3, 1, 1, 30, 0, 0, msk))

	// 01:30 MSK — это ещё 29 февраля по UTC.
	require.Equal(t, "2024-02-29", d.String())
	require.Equal(t, time.UTC, d.Time().Location())
	require.Zero(t, d.Time().Hour())
}

func TestLocalDay_KeepsWallClockDate(t *testing.T) {
	t.Parallel()

	est := time.FixedZone("EST", -5*3600)
	d := LocalDay(time.Date(2024, 2, 29, 22, 0, 0, 0, est))

	// 22:00 EST — уже 1 марта по UTC, но календарный день остаётся 29 февраля.
	require.Equal(t, "2024-02-29", d.String())
	require.Equal(t, time.UTC, d.Time().Location())
	require.True(t, d.Equal(NewDay(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC))))
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	d, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	require.Equal(t, "2024-02-29", d.String())

	_, err = ParseDay("2023-02-29")
	require.Error(t, err)

	_, err = ParseDay("29.02.2024")
	require.Error(t, err)
}

func TestDay_AddDaysAndEqual(t *testing.T) {
	t.Parallel()

	d, err := ParseDay("2024-03-01")
	require.NoError(t, err)

	prev := d.AddDays(-1)
	require.Equal(t, "2024-02-29", prev.String())
	require.Equal(t, "2023-12-31", d.AddDays(-61).String())
	require.True(t, prev.AddDays(1).Equal(d))
	require.False(t, prev.Equal(d))

	require.True(t, Day{}.IsZero())
	require.False(t, d.IsZero())
}

func TestCount(t *testing.T) {
	t.Parallel()

	n, ok := Some(0).Int()
	require.True(t, ok)
	require.Zero(t, n)

	_, ok = None.Int()
	require.False(t, ok)

	require.NotEqual(t, None, Some(0))
	require.Equal(t, "0", Some(0).String())
	require.Equal(t, "-", None.String())
}

func TestStory_JSON(t *testing.T) {
	t.Parallel()

	d, err := ParseDay("2024-02-29")
	require.NoError(t, err)

	b, err := json.Marshal(Story{
		Rank:     Some(3),
		Title:    "T",
		URL:      "item?id=1",
		Score:    None,
		Comments: Some(0),
		Day:      d,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"rank":3,"title":"T","url":"item?id=1","score":null,"comments":0,"day":"2024-02-29"}`, string(b))
}

func TestCount_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var v struct {
		A Count `json:"a"`
		B Count `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":7}`), &v))
	require.Equal(t, None, v.A)
	require.Equal(t, Some(7), v.B)

	require.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &v))
}

package service

// Тесты оркестратора (internal/service/pipeline.go, days.go).
//
//  Проверяем:
//  - cache-first: при сохранённых записях загрузок нет;
//  - сквозной сценарий 5 (кэш) + 20 (загрузка) + 0 (сбой) = 25, сортировка по очкам;
//  - политику повторной загрузки: empty моложе TTL не грузится, failed — грузится;
//  - режим refresh и работу без хранилища;
//  - разрешение дат через границы месяца и високосный год.
//
// Моки хранилища и загрузчика лежат в /mocks:
//   mockgen -source=./internal/storage/storage.go -destination=./mocks/storage.go -package=mocks
//   mockgen -source=./internal/service/service.go -destination=./mocks/fetcher.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/hn-digest/internal/config"
	"github.com/pribylovaa/hn-digest/internal/fetcher"
	"github.com/pribylovaa/hn-digest/internal/metrics"
	"github.com/pribylovaa/hn-digest/internal/models"
	"github.com/pribylovaa/hn-digest/internal/storage"
	"github.com/pribylovaa/hn-digest/mocks"
)

const baseURL = "https://hn.example/front"

// fixedNow — 2024-03-01 12:00 UTC: вчера — 29 февраля високосного года.
var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		Fetcher:  config.FetcherConfig{BaseURL: baseURL, PageLimit: 30},
		Pipeline: config.PipelineConfig{Workers: 10},
		Cache:    config.CacheConfig{EmptyTTL: 6 * time.Hour},
	}
}

func newTestService(st storage.Storage, f Fetcher, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(st, f, testConfig(), opts...)
}

// page — страница выдачи с записями "<prefix> i" и заданными очками.
func page(prefix string, scores ...int) []byte {
	var b strings.Builder
	b.WriteString("<html><body><table>")
	for i, s := range scores {
		fmt.Fprintf(&b, `<tr class="athing"><td><span class="rank">%d.</span></td>`+
			`<td><span class="titleline"><a href="https://example.com/%s/%d">%s %d</a></span></td></tr>`+
			`<tr><td class="subtext"><span class="score">%d points</span> by <a class="hnuser">u%d</a> | <a href="item?id=%d">%d&nbsp;comments</a></td></tr>`,
			i+1, prefix, i, prefix, i, s, i, i, i)
	}
	b.WriteString("</table></body></html>")
	return []byte(b.String())
}

func storedStories(day models.Day, scores ...int) []models.Story {
	out := make([]models.Story, len(scores))
	for i, s := range scores {
		out[i] = models.Story{
			Rank:     models.Some(i + 1),
			Title:    fmt.Sprintf("cached %d", i),
			URL:      fmt.Sprintf("https://cached/%d", i),
			Score:    models.Some(s),
			Comments: models.Some(0),
			Day:      day,
		}
	}
	return out
}

func mustDay(t *testing.T, s string) models.Day {
	t.Helper()
	d, err := models.ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestReport_CacheFirst_NoFetch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	today := models.NewDay(fixedNow)
	stored := storedStories(today, 10, 30, 20)

	st.EXPECT().Lookup(gomock.Any(), today).Return(stored, true, nil)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Times(0)

	rep, err := newTestService(st, f).Report(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, rep.Days, 1)
	require.Equal(t, models.OutcomeCacheHit, rep.Days[0].Outcome)
	require.Equal(t, 3, rep.Days[0].Records)

	require.ElementsMatch(t, stored, rep.Stories)
	require.Equal(t, []int{30, 20, 10}, scores(rep.Stories))
}

func TestReport_EndToEnd_CachedFetchedFailed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	dCached := mustDay(t, "2024-03-01")
	dFetched := mustDay(t, "2024-02-29")
	dFailed := mustDay(t, "2024-02-28")

	fetchedScores := make([]int, 20)
	for i := range fetchedScores {
		fetchedScores[i] = (i * 37) % 101
	}

	st.EXPECT().Lookup(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, d models.Day) ([]models.Story, bool, error) {
			if d.Equal(dCached) {
				return storedStories(d, 50, 40, 30, 20, 10), true, nil
			}
			return nil, false, nil
		}).Times(3)

	st.EXPECT().LastAttempt(gomock.Any(), gomock.Any()).
		Return(nil, storage.ErrNotFound).Times(2)

	f.EXPECT().Fetch(gomock.Any(), baseURL+"?day=2024-02-29").Return(page("fresh", fetchedScores...), nil)
	f.EXPECT().Fetch(gomock.Any(), baseURL+"?day=2024-02-28").
		Return(nil, &fetcher.Error{URL: "x", Attempts: 8, Status: 503})

	var upserted []models.Story
	st.EXPECT().Upsert(gomock.Any(), dFetched, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ models.Day, items []models.Story) error {
			upserted = append([]models.Story(nil), items...)
			return nil
		})

	var (
		mu       sync.Mutex
		attempts = map[string]models.Attempt{}
	)
	st.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a models.Attempt) error {
			mu.Lock()
			attempts[a.Day.String()] = a
			mu.Unlock()
			return nil
		}).Times(2)

	m := metrics.New()
	rep, err := newTestService(st, f, WithMetrics(m)).Report(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, rep.Stories, 25)
	require.Len(t, upserted, 20)
	for _, s := range upserted {
		require.True(t, s.Day.Equal(dFetched))
	}

	got := scores(rep.Stories)
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i-1], got[i], "not sorted at %d: %v", i, got)
	}

	require.Equal(t, []models.DaySummary{
		{Day: dCached, Outcome: models.OutcomeCacheHit, Records: 5},
		{Day: dFetched, Outcome: models.OutcomeFetched, Records: 20},
		{Day: dFailed, Outcome: models.OutcomeFailed, Records: 0},
	}, rep.Days)

	require.Equal(t, models.AttemptOK, attempts["2024-02-29"].Status)
	require.Equal(t, 20, attempts["2024-02-29"].Records)
	require.Equal(t, models.AttemptFailed, attempts["2024-02-28"].Status)
	require.True(t, rep.Generated.Equal(fixedNow))
}

func TestReport_EmptyWithinTTL_NotRefetched(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	today := models.NewDay(fixedNow)
	st.EXPECT().Lookup(gomock.Any(), today).Return(nil, false, nil)
	st.EXPECT().LastAttempt(gomock.Any(), today).Return(&models.Attempt{
		Day: today, Status: models.AttemptEmpty, AttemptedAt: fixedNow.Add(-time.Hour),
	}, nil)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Times(0)

	rep, err := newTestService(st, f).Report(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, rep.Stories)
	require.Equal(t, models.OutcomeEmpty, rep.Days[0].Outcome)
}

func TestReport_EmptyPastTTL_Refetched(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	today := models.NewDay(fixedNow)
	st.EXPECT().Lookup(gomock.Any(), today).Return(nil, false, nil)
	st.EXPECT().LastAttempt(gomock.Any(), today).Return(&models.Attempt{
		Day: today, Status: models.AttemptEmpty, AttemptedAt: fixedNow.Add(-7 * time.Hour),
	}, nil)
	f.EXPECT().Fetch(gomock.Any(), baseURL+"?day=2024-03-01").Return(page("late", 3, 1), nil)
	st.EXPECT().Upsert(gomock.Any(), today, gomock.Len(2)).Return(nil)
	st.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Return(nil)

	rep, err := newTestService(st, f).Report(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rep.Stories, 2)
	require.Equal(t, models.OutcomeFetched, rep.Days[0].Outcome)
}

func TestReport_FailedAttempt_Refetched(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	today := models.NewDay(fixedNow)
	st.EXPECT().Lookup(gomock.Any(), today).Return(nil, false, nil)
	st.EXPECT().LastAttempt(gomock.Any(), today).Return(&models.Attempt{
		Day: today, Status: models.AttemptFailed, AttemptedAt: fixedNow.Add(-time.Minute),
	}, nil)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(page("retry", 7), nil)
	st.EXPECT().Upsert(gomock.Any(), today, gomock.Any()).Return(nil)
	st.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Return(nil)

	rep, err := newTestService(st, f).Report(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rep.Stories, 1)
	require.Equal(t, "retry 0", rep.Stories[0].Title)
}

func TestReport_EmptyPage_RecordedAsEmpty(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	today := models.NewDay(fixedNow)
	st.EXPECT().Lookup(gomock.Any(), today).Return(nil, false, nil)
	st.EXPECT().LastAttempt(gomock.Any(), today).Return(nil, storage.ErrNotFound)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte("<html><body>nothing</body></html>"), nil)
	st.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	var recorded models.Attempt
	st.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a models.Attempt) error {
			recorded = a
			return nil
		})

	rep, err := newTestService(st, f).Report(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, rep.Stories)
	require.Equal(t, models.AttemptEmpty, recorded.Status)
	require.True(t, recorded.AttemptedAt.Equal(fixedNow))
	require.Equal(t, models.OutcomeEmpty, rep.Days[0].Outcome)
}

func TestReport_Refresh_SkipsCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	st.EXPECT().Lookup(gomock.Any(), gomock.Any()).Times(0)
	st.EXPECT().LastAttempt(gomock.Any(), gomock.Any()).Times(0)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(page("new", 5), nil)
	st.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Return(nil)

	rep, err := newTestService(st, f, WithRefresh(true)).Report(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rep.Stories, 1)
}

func TestReport_WithoutStorage(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := mocks.NewMockFetcher(ctrl)

	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(page("solo", 1, 2), nil).Times(2)

	rep, err := newTestService(nil, f).Report(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rep.Stories, 4)
	require.Equal(t, []int{2, 2, 1, 1}, scores(rep.Stories))
}

func TestReport_PersistFailure_StillReturnsRecords(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	st.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	st.EXPECT().LastAttempt(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(page("p", 9, 8), nil)
	st.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	st.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Times(0)

	rep, err := newTestService(st, f).Report(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rep.Stories, 2)
	require.Equal(t, models.OutcomeFetched, rep.Days[0].Outcome)
}

func TestReport_LookupError_FallsBackToFetch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mocks.NewMockStorage(ctrl)
	f := mocks.NewMockFetcher(ctrl)

	st.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("conn reset"))
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(page("p", 1), nil)
	st.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Return(nil)

	rep, err := newTestService(st, f).Report(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rep.Stories, 1)
}

func TestReport_InvalidDays(t *testing.T) {
	t.Parallel()

	_, err := newTestService(nil, nil).Report(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReport_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(nil, nil).Report(ctx, 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReport_CancelledMidRun_NoReport(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := mocks.NewMockFetcher(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(page("first", 5), nil),
		f.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string) ([]byte, error) {
			cancel()
			return nil, context.Canceled
		}),
	)

	cfg := testConfig()
	cfg.Pipeline.Workers = 1
	s := New(nil, f, cfg, WithClock(func() time.Time { return fixedNow }))

	rep, err := s.Report(ctx, 3)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, rep)
}

func TestDays_MonthAndLeapYear(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		now  time.Time
		n    int
		want []string
	}{
		{"leap_february", time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC), 3, []string{"2024-03-01", "2024-02-29", "2024-02-28"}},
		{"non_leap_february", time.Date(2023, 3, 1, 23, 0, 0, 0, time.UTC), 2, []string{"2023-03-01", "2023-02-28"}},
		{"year_rollover", time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), 2, []string{"2025-01-01", "2024-12-31"}},
		{"single_day", time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC), 1, []string{"2024-07-15"}},
		// Вечер западнее UTC: по UTC уже 2 марта, но для пользователя сегодня 1 марта.
		{"west_evening", time.Date(2024, 3, 1, 21, 0, 0, 0, time.FixedZone("EST", -5*3600)), 1, []string{"2024-03-01"}},
		// Раннее утро восточнее UTC: по UTC ещё 29 февраля.
		{"east_early_morning", time.Date(2024, 3, 1, 1, 30, 0, 0, time.FixedZone("MSK", 3*3600)), 2, []string{"2024-03-01", "2024-02-29"}},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := New(nil, nil, testConfig(), WithClock(func() time.Time { return tt.now }))
			days, err := s.Days(tt.n)
			require.NoError(t, err)

			got := make([]string, len(days))
			for i, d := range days {
				got[i] = d.String()
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDayURL(t *testing.T) {
	t.Parallel()

	d := mustDay(t, "2024-02-29")

	u, err := DayURL("https://news.ycombinator.com/front", d)
	require.NoError(t, err)
	require.Equal(t, "https://news.ycombinator.com/front?day=2024-02-29", u)

	u, err = DayURL("https://hn.example/front?lang=en&day=old", d)
	require.NoError(t, err)
	require.Equal(t, "https://hn.example/front?day=2024-02-29&lang=en", u)

	_, err = DayURL("://bad", d)
	require.Error(t, err)
}

func TestSortByScore(t *testing.T) {
	t.Parallel()

	in := []models.Story{
		{Title: "none-1", Score: models.None},
		{Title: "five-a", Score: models.Some(5)},
		{Title: "zero", Score: models.Some(0)},
		{Title: "none-2", Score: models.None},
		{Title: "five-b", Score: models.Some(5)},
		{Title: "ten", Score: models.Some(10)},
	}

	sortByScore(in)

	titles := make([]string, len(in))
	for i, s := range in {
		titles[i] = s.Title
	}
	require.Equal(t, []string{"ten", "five-a", "five-b", "zero", "none-1", "none-2"}, titles)
}

func scores(stories []models.Story) []int {
	out := make([]int, len(stories))
	for i, s := range stories {
		out[i] = s.Score.Value
	}
	return out
}

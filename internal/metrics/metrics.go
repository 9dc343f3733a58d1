// metrics — счётчики одного прогона пайплайна на prometheus/client_golang.
//
// Прогон короткоживущий, поэтому метрики собираются в собственный реестр и
// выгружаются в textfile для node_exporter, а не отдаются по HTTP.
// Все методы безопасны для nil-получателя: компоненты можно собирать без метрик.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pribylovaa/hn-digest/internal/models"
)

// Результаты одной HTTP-попытки.
const (
	AttemptOK        = "ok"
	AttemptTransient = "transient"
	AttemptTerminal  = "terminal"
)

// Metrics — набор метрик прогона.
type Metrics struct {
	registry *prometheus.Registry

	fetchAttempts *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	days          *prometheus.CounterVec
	stored        prometheus.Counter
	lastRun       prometheus.Gauge
}

// New регистрирует метрики в новом реестре.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		fetchAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hn_digest_fetch_attempts_total",
			Help: "HTTP attempts against the listing page by result",
		}, []string{"result"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hn_digest_fetch_attempt_duration_seconds",
			Help:    "Duration of a single HTTP attempt",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		days: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hn_digest_days_total",
			Help: "Processed days by outcome",
		}, []string{"outcome"}),
		stored: f.NewCounter(prometheus.CounterOpts{
			Name: "hn_digest_stored_records_total",
			Help: "Records written through the store",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "hn_digest_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		}),
	}
}

// FetchAttempt учитывает одну HTTP-попытку.
func (m *Metrics) FetchAttempt(result string, d time.Duration) {
	if m == nil {
		return
	}

	m.fetchAttempts.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// Day учитывает итог обработки дня.
func (m *Metrics) Day(outcome models.DayOutcome) {
	if m == nil {
		return
	}

	m.days.WithLabelValues(string(outcome)).Inc()
}

// Stored учитывает записанные в хранилище записи.
func (m *Metrics) Stored(n int) {
	if m == nil || n <= 0 {
		return
	}

	m.stored.Add(float64(n))
}

// Finished отмечает время завершения прогона.
func (m *Metrics) Finished(at time.Time) {
	if m == nil {
		return
	}

	m.lastRun.Set(float64(at.Unix()))
}

// Registry возвращает реестр (для тестов и внешней выгрузки).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile атомарно записывает метрики в файл формата text exposition.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	return prometheus.WriteToTextfile(path, m.registry)
}

// fetcher выполняет одну логическую загрузку страницы выдачи с ретраями.
//
// Транзиентные сбои (ошибки соединения, таймауты, 5xx, 429) повторяются с
// экспоненциальной задержкой и джиттером. Терминальные (битый URL, прочие 4xx)
// завершают загрузку сразу. Любая неудача возвращается как *Error, который
// также соответствует ErrNoContent: вызывающий трактует её как «ноль записей».
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pribylovaa/hn-digest/internal/metrics"
	"github.com/pribylovaa/hn-digest/internal/pkg/log"
)

// ErrNoContent — загрузка не дала содержимого (ретраи исчерпаны или сбой терминальный).
var ErrNoContent = errors.New("no content")

// Error описывает неудачную загрузку.
//
// Terminal == true — сбой не подлежал повтору (битый URL, 4xx, отмена ctx);
// Terminal == false — транзиентные сбои исчерпали все попытки.
type Error struct {
	URL      string
	Attempts int
	Status   int
	Terminal bool
	Err      error
}

func (e *Error) Error() string {
	kind := "retries exhausted"
	if e.Terminal {
		kind = "terminal"
	}

	msg := fmt.Sprintf("fetch %s: %s after %d attempt(s)", e.URL, kind, e.Attempts)
	if e.Status != 0 {
		msg += fmt.Sprintf(", status=%d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap позволяет errors.Is(err, ErrNoContent) и доступ к причине.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNoContent}
	}

	return []error{ErrNoContent, e.Err}
}

// Options — параметры ретраев и HTTP.
type Options struct {
	// UserAgent — заголовок User-Agent каждого запроса.
	UserAgent string
	// MaxAttempts — общее число попыток, включая первую.
	MaxAttempts int
	// Factor — основание экспоненты задержки.
	Factor float64
	// MaxDelay — верхняя граница одной задержки.
	MaxDelay time.Duration
	// AttemptTimeout — таймаут одной HTTP-попытки, независимый от ретраев.
	AttemptTimeout time.Duration
	// Unit — единица задержки: delay = Factor^(k-1) * jitter * Unit.
	Unit time.Duration
}

// Значения по умолчанию.
const (
	DefaultMaxAttempts    = 8
	DefaultFactor         = 2.0
	DefaultMaxDelay       = 60 * time.Second
	DefaultAttemptTimeout = 30 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Factor < 1 {
		o.Factor = DefaultFactor
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = DefaultAttemptTimeout
	}
	if o.Unit <= 0 {
		o.Unit = time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}

	return o
}

// Option — функциональная опция Fetcher.
type Option func(*Fetcher)

// WithHTTPClient подменяет HTTP-клиент (прокси, транспорт, httptest).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = resty.NewWithClient(c)
		}
	}
}

// WithMetrics подключает учёт попыток.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// Fetcher — загрузчик с ретраями. Безопасен для конкурентного использования.
type Fetcher struct {
	opts    Options
	client  *resty.Client
	metrics *metrics.Metrics

	// jitter возвращает множитель из [0.5, 1.5).
	jitter func() float64
	// sleep ждёт d или отмены ctx.
	sleep func(ctx context.Context, d time.Duration) error
}

// New создаёт Fetcher.
func New(opts Options, options ...Option) *Fetcher {
	f := &Fetcher{
		opts:   opts.withDefaults(),
		client: resty.New(),
		jitter: func() float64 { return 0.5 + rand.Float64() },
		sleep:  sleepCtx,
	}

	for _, o := range options {
		o(f)
	}

	f.client.
		SetHeader("User-Agent", f.opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRetryCount(0)

	return f
}

// Backoff возвращает задержку перед попыткой k (k >= 2):
// Factor^(k-1) * U(0.5, 1.5) * Unit, но не больше MaxDelay.
// Для k < 2 задержки нет.
func (f *Fetcher) Backoff(k int) time.Duration {
	if k < 2 {
		return 0
	}

	d := math.Pow(f.opts.Factor, float64(k-1)) * f.jitter() * float64(f.opts.Unit)
	if d >= float64(f.opts.MaxDelay) || math.IsInf(d, 1) {
		return f.opts.MaxDelay
	}

	return time.Duration(d)
}

// Fetch загружает rawURL и возвращает тело ответа.
//
// Ошибки:
//   - *Error{Terminal: true} — битый URL, ответ 4xx (кроме 429), отмена ctx;
//   - *Error{Terminal: false} — все MaxAttempts попыток завершились транзиентно.
//
// Оба варианта соответствуют errors.Is(err, ErrNoContent).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "fetcher.Fetch"

	lg := log.From(ctx)

	if err := validateURL(rawURL); err != nil {
		return nil, &Error{URL: rawURL, Terminal: true, Err: err}
	}

	var (
		lastStatus int
		lastErr    error
	)

	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.Backoff(attempt)
			lg.Warn("fetch_retry",
				slog.String("op", op),
				slog.String("url", rawURL),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Int("status", lastStatus),
				slog.Any("err", lastErr),
			)

			if err := f.sleep(ctx, delay); err != nil {
				return nil, &Error{URL: rawURL, Attempts: attempt - 1, Status: lastStatus, Terminal: true, Err: err}
			}
		}

		body, status, err := f.attempt(ctx, rawURL)
		switch {
		case err == nil && status >= 200 && status < 300:
			lg.Debug("fetch_ok",
				slog.String("op", op),
				slog.String("url", rawURL),
				slog.Int("attempt", attempt),
				slog.Int("bytes", len(body)),
			)
			return body, nil

		case err != nil && ctx.Err() != nil:
			return nil, &Error{URL: rawURL, Attempts: attempt, Terminal: true, Err: ctx.Err()}

		case err == nil && !transientStatus(status):
			lg.Warn("fetch_terminal",
				slog.String("op", op),
				slog.String("url", rawURL),
				slog.Int("status", status),
			)
			return nil, &Error{URL: rawURL, Attempts: attempt, Status: status, Terminal: true}
		}

		lastStatus, lastErr = status, err
	}

	lg.Warn("fetch_exhausted",
		slog.String("op", op),
		slog.String("url", rawURL),
		slog.Int("attempts", f.opts.MaxAttempts),
		slog.Int("status", lastStatus),
		slog.Any("err", lastErr),
	)

	return nil, &Error{URL: rawURL, Attempts: f.opts.MaxAttempts, Status: lastStatus, Err: lastErr}
}

// attempt — одна HTTP-попытка с собственным таймаутом.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) ([]byte, int, error) {
	actx, cancel := context.WithTimeout(ctx, f.opts.AttemptTimeout)
	defer cancel()

	start := time.Now()
	resp, err := f.client.R().SetContext(actx).Get(rawURL)
	elapsed := time.Since(start)

	if err != nil {
		f.metrics.FetchAttempt(metrics.AttemptTransient, elapsed)
		return nil, 0, err
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		f.metrics.FetchAttempt(metrics.AttemptOK, elapsed)
	case transientStatus(status):
		f.metrics.FetchAttempt(metrics.AttemptTransient, elapsed)
	default:
		f.metrics.FetchAttempt(metrics.AttemptTerminal, elapsed)
	}

	return resp.Body(), status, nil
}

// transientStatus — статусы, которые имеет смысл повторить.
func transientStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout
}

// validateURL отсекает то, что заведомо не загрузится.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("missing host")
	}

	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// service содержит бизнес-логику hn-digest: по диапазону дней собирает
// выдачу из хранилища или со страницы источника и сводит её в отчёт.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/hn-digest/internal/config"
	"github.com/pribylovaa/hn-digest/internal/metrics"
	"github.com/pribylovaa/hn-digest/internal/storage"
)

var (
	// ErrInvalidArgument — некорректные входные аргументы (например, days < 1).
	ErrInvalidArgument = errors.New("invalid argument")
)

// Fetcher загружает страницу по URL.
// Любая ошибка означает «содержимого нет»: день получает ноль записей.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Service — оркестратор конвейера.
//
// Особенности:
//   - storage может быть nil: тогда каждый день загружается заново и ничего не сохраняется;
//   - единственное общее изменяемое состояние между днями — хранилище.
type Service struct {
	storage storage.Storage
	fetcher Fetcher
	cfg     config.Config
	metrics *metrics.Metrics
	now     func() time.Time
	refresh bool
}

// Option — функциональная опция Service.
type Option func(*Service)

// WithMetrics подключает метрики прогона.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRefresh отключает чтение из кэша; запись в хранилище сохраняется.
func WithRefresh(refresh bool) Option {
	return func(s *Service) { s.refresh = refresh }
}

// New создает новый экземпляр Service.
func New(storage storage.Storage, fetcher Fetcher, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// service содержит оркестрацию загрузки ленты market-insights:
// основной источник, однократный повтор на запасном, объединение параллельных вызовов.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pribylovaa/market-insights/internal/config"
	"github.com/pribylovaa/market-insights/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ErrFeedUnavailable — ни основной, ни запасной источник не дали ленту.
// Транспорт: 503 feed_unavailable.
var ErrFeedUnavailable = errors.New("feed unavailable")

// UnavailableError несёт причины отказа обеих попыток.
// errors.Is(err, ErrFeedUnavailable) == true; причины доступны через errors.As.
type UnavailableError struct {
	Primary  error
	Fallback error
}

func (e *UnavailableError) Error() string {
	var b strings.Builder
	b.WriteString(ErrFeedUnavailable.Error())

	if e.Primary != nil {
		b.WriteString(": primary: ")
		b.WriteString(e.Primary.Error())
	}

	if e.Fallback != nil {
		b.WriteString("; fallback: ")
		b.WriteString(e.Fallback.Error())
	}

	return b.String()
}

// Is сопоставляет ошибку с ErrFeedUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrFeedUnavailable
}

// Unwrap отдаёт ненулевые причины.
func (e *UnavailableError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Primary, e.Fallback} {
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Parser — источник собранной ленты по URL (реализация: rss.Parser).
//
// Требования к реализации:
//  1. Любая ошибка (сеть, не-2xx, разбор, структура) возвращается целиком, без частичных данных;
//  2. Реализация обязана уважать ctx (отмена/таймауты).
type Parser interface {
	Parse(ctx context.Context, url string) (*models.FeedResult, error)
}

// Service — описывает загрузку ленты.
type Service struct {
	parser Parser
	cfg    config.FeedConfig
	group  singleflight.Group
	tracer trace.Tracer
}

// New создает новый экземпляр Service.
func New(parser Parser, cfg config.FeedConfig) *Service {
	return &Service{
		parser: parser,
		cfg:    cfg,
		tracer: otel.Tracer("market-insights/service"),
	}
}

// flightKey — ключ объединения: один и тот же набор источников.
func (s *Service) flightKey() string {
	return s.cfg.PrimaryURL + "|" + s.cfg.FallbackURL
}

// FetchFeed загружает ленту: primary, при любой ошибке — один повтор на fallback.
//
// Особенности:
//   - при включённом объединении параллельные вызовы ждут одну загрузку
//     и получают один и тот же *FeedResult (только для чтения);
//   - результат не запоминается: следующий вызов снова идёт в апстрим;
//   - отмена ctx одного вызывающего не прерывает общую загрузку.
func (s *Service) FetchFeed(ctx context.Context) (*models.FeedResult, error) {
	const op = "service.FetchFeed"

	if s.cfg.DisableCoalescing {
		return s.fetchWithFallback(ctx)
	}

	ch := s.group.DoChan(s.flightKey(), func() (any, error) {
		return s.fetchWithFallback(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}

		return r.Val.(*models.FeedResult), nil
	}
}

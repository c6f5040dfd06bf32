package rss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pribylovaa/market-insights/internal/pkg/log"
	"github.com/pribylovaa/market-insights/internal/pkg/redact"
)

// maxBodySize — верхняя граница тела ленты.
const maxBodySize = 10 << 20

// DefaultUserAgent отправляется, если в конфиге UA не задан.
const DefaultUserAgent = "market-insights/1.0 (+https://www.simplifyingthemarket.com)"

// Fetcher абстрагирует HTTP-загрузку ленты, чтобы парсер не зависел
// от конкретного клиента и подменялся в тестах.
type Fetcher interface {
	// Fetch возвращает тело ответа; не-2xx — ошибка *StatusError.
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// StatusError — апстрим ответил не-2xx.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, redact.URL(e.URL))
}

// HTTPFetcher реализует Fetcher поверх *http.Client.
// Таймауты, прокси и т.д. настраиваются на клиенте извне.
type HTTPFetcher struct {
	client     *http.Client
	userAgent  string
	revalidate time.Duration
}

// NewHTTPFetcher создаёт загрузчик. revalidate > 0 добавляет к запросу
// подсказку Cache-Control: max-age для промежуточных кэшей.
func NewHTTPFetcher(client *http.Client, userAgent string, revalidate time.Duration) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPFetcher{client: client, userAgent: userAgent, revalidate: revalidate}
}

// Fetch выполняет GET и читает тело не больше maxBodySize.
func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	const op = "rss.Fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new_request: %w", op, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")
	if f.revalidate > 0 {
		req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(int(f.revalidate.Seconds())))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// *url.Error печатает адрес целиком, токен из query туда не пускаем.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redact.URL(ue.URL)
		}

		log.From(ctx).Warn("http_error",
			slog.String("op", op),
			slog.String("url", redact.URL(src)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: do: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("%s: %w", op, &StatusError{URL: src, Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read_body: %w", op, err)
	}

	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%s: body exceeds %d bytes", op, maxBodySize)
	}

	return body, nil
}

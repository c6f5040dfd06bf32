package rss

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/market-insights/internal/models"
	"github.com/pribylovaa/market-insights/internal/pkg/log"
	"github.com/pribylovaa/market-insights/internal/pkg/redact"
	"github.com/pribylovaa/market-insights/internal/sanitize"
)

// Parser загружает ленту через Fetcher и собирает models.FeedResult.
//
// Parser не кэширует результаты и не объединяет параллельные вызовы:
// это задача вызывающего слоя (см. service).
type Parser struct {
	fetcher    Fetcher
	now        func() time.Time
	excerptLen int
}

// Option настраивает Parser.
type Option func(*Parser)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithExcerptLength задаёт бюджет символов превью.
func WithExcerptLength(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.excerptLen = n
		}
	}
}

// New создаёт новый парсер лент.
func New(fetcher Fetcher, opts ...Option) *Parser {
	p := &Parser{
		fetcher:    fetcher,
		now:        time.Now,
		excerptLen: sanitize.ExcerptLength,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse загружает ленту по src и нормализует её.
// Любая ошибка загрузки, разбора или структуры возвращается целиком:
// частичных результатов нет.
func (p *Parser) Parse(ctx context.Context, src string) (*models.FeedResult, error) {
	const op = "rss.Parse"

	body, err := p.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := p.Build(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, redact.URL(src), err)
	}

	return res, nil
}

// Build разбирает уже загруженный документ.
func (p *Parser) Build(ctx context.Context, body []byte) (*models.FeedResult, error) {
	shape, err := Detect(body)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	h, items := flatten(shape)

	articles := make([]models.Article, 0, len(items))
	for i, raw := range items {
		article, ok := p.normalize(ctx, raw, i, now)
		if !ok {
			continue
		}

		articles = append(articles, article)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	return &models.FeedResult{
		Title:       orDefault(h.title, DefaultFeedTitle),
		Description: orDefault(sanitize.StripHTML(h.description), DefaultFeedDescription),
		Link:        orDefault(h.link, DefaultFeedLink),
		Articles:    articles,
		LastUpdated: now,
	}, nil
}

// normalize доводит запись до инвариантов models.Article.
// Возвращает ok=false, если запись без заголовка и должна быть отброшена.
func (p *Parser) normalize(ctx context.Context, raw rawItem, index int, now time.Time) (models.Article, bool) {
	// StripHTML декодирует сущности после trim, поэтому &nbsp; обрезается отдельно.
	title := strings.TrimSpace(sanitize.StripHTML(raw.title))
	if title == "" {
		return models.Article{}, false
	}

	body := raw.content
	if body == "" {
		body = raw.description
	}
	content := sanitize.StripHTML(body)

	id := raw.guid
	if id == "" {
		id = "article-" + strconv.Itoa(index)
	}

	published := now
	if raw.published != nil && !raw.published.IsZero() {
		published = raw.published.UTC()
	} else if raw.rawDate != "" {
		log.From(ctx).Debug("date_parse_failed",
			slog.String("op", "rss.normalize"),
			slog.String("id", id),
			slog.String("value", raw.rawDate),
		)
	}

	image := sanitize.FirstImageSrc(raw.content)
	if image == "" {
		image = sanitize.FirstImageSrc(raw.description)
	}

	return models.Article{
		ID:          id,
		Title:       title,
		Description: sanitize.StripHTML(raw.description),
		Content:     content,
		Link:        canonicalLink(raw.link),
		PublishedAt: published,
		Author:      orDefault(raw.author, DefaultAuthor),
		Category:    orDefault(raw.category, DefaultCategory),
		ImageURL:    image,
		ReadTime:    sanitize.ReadTime(content),
		Excerpt:     sanitize.Excerpt(content, p.excerptLen),
	}, true
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}

	return value
}

// rss загружает ленты рынка недвижимости (RSS 2.0 / RSS 1.0 / Atom 1.0)
// и нормализует их записи в models.Article.
package rss

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

// Значения по умолчанию для полей, которых нет в источнике.
const (
	DefaultFeedTitle       = "Market Insights"
	DefaultFeedDescription = "Latest real estate market insights"
	DefaultFeedLink        = "https://www.simplifyingthemarket.com"
	DefaultAuthor          = "Keeping Current Matters"
	DefaultCategory        = "Market Insights"
)

// ErrUnrecognizedFeed — документ разобран, но в нём нет ни rss.channel.item,
// ни feed.entry. Отличается от «ленты без валидных статей».
var ErrUnrecognizedFeed = errors.New("unrecognized feed structure")

// ParsedFeedShape — результат определения формата: RSSShape или AtomShape.
type ParsedFeedShape interface {
	isShape()
}

// RSSShape — лента вида rss.channel.item (RSS 2.0 и RDF).
type RSSShape struct {
	Channel *rss.Feed
}

// AtomShape — лента вида feed.entry.
type AtomShape struct {
	Feed *atom.Feed
}

func (RSSShape) isShape()  {}
func (AtomShape) isShape() {}

// Detect один раз определяет формат документа и разбирает его
// соответствующим парсером.
func Detect(body []byte) (ParsedFeedShape, error) {
	const op = "rss.Detect"

	switch gofeed.DetectFeedType(bytes.NewReader(body)) {
	case gofeed.FeedTypeRSS:
		feed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%s: decode rss: %w", op, err)
		}

		if len(feed.Items) == 0 {
			return nil, fmt.Errorf("%s: rss.channel.item: %w", op, ErrUnrecognizedFeed)
		}

		return RSSShape{Channel: feed}, nil
	case gofeed.FeedTypeAtom:
		feed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%s: decode atom: %w", op, err)
		}

		if len(feed.Entries) == 0 {
			return nil, fmt.Errorf("%s: feed.entry: %w", op, ErrUnrecognizedFeed)
		}

		return AtomShape{Feed: feed}, nil
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrUnrecognizedFeed)
	}
}

// header — метаданные ленты до применения дефолтов.
type header struct {
	title       string
	description string
	link        string
}

// rawItem — запись ленты в общем для RSS и Atom виде, до нормализации.
type rawItem struct {
	// guid — guid (RSS) или id (Atom).
	guid  string
	title string
	link  string
	// description — тизер (description / summary), сырой HTML.
	description string
	// content — полное тело (content:encoded / atom content), сырой HTML.
	content   string
	published *time.Time
	// rawDate — исходная строка даты, только для логов.
	rawDate  string
	author   string
	category string
}

package rss

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

// flatten приводит обе формы к общему виду header + []rawItem.
func flatten(shape ParsedFeedShape) (header, []rawItem) {
	switch s := shape.(type) {
	case RSSShape:
		return flattenRSS(s.Channel)
	case AtomShape:
		return flattenAtom(s.Feed)
	default:
		return header{}, nil
	}
}

func flattenRSS(feed *rss.Feed) (header, []rawItem) {
	h := header{
		title:       strings.TrimSpace(feed.Title),
		description: strings.TrimSpace(feed.Description),
		link:        strings.TrimSpace(feed.Link),
	}

	items := make([]rawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			items = append(items, rawItem{})
			continue
		}

		raw := rawItem{
			title:       strings.TrimSpace(it.Title),
			link:        strings.TrimSpace(it.Link),
			description: it.Description,
			content:     it.Content,
			published:   it.PubDateParsed,
			rawDate:     it.PubDate,
			author:      strings.TrimSpace(it.Author),
		}

		if it.GUID != nil {
			raw.guid = strings.TrimSpace(it.GUID.Value)
		}

		// RDF-ленты несут дату только в dc:date.
		if raw.published == nil && it.DublinCoreExt != nil {
			if dc := firstNonEmpty(it.DublinCoreExt.Date); dc != "" {
				raw.published, raw.rawDate = dcDate(it), dc
			}
		}

		// dc:creator — типичный источник автора у WordPress-лент.
		if raw.author == "" && it.DublinCoreExt != nil {
			raw.author = firstNonEmpty(it.DublinCoreExt.Creator)
		}

		for _, c := range it.Categories {
			if c != nil && strings.TrimSpace(c.Value) != "" {
				raw.category = strings.TrimSpace(c.Value)
				break
			}
		}

		items = append(items, raw)
	}

	return h, items
}

func flattenAtom(feed *atom.Feed) (header, []rawItem) {
	h := header{
		title:       strings.TrimSpace(feed.Title),
		description: strings.TrimSpace(feed.Subtitle),
		link:        alternateLink(feed.Links),
	}

	items := make([]rawItem, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if e == nil {
			items = append(items, rawItem{})
			continue
		}

		raw := rawItem{
			guid:        strings.TrimSpace(e.ID),
			title:       strings.TrimSpace(e.Title),
			link:        alternateLink(e.Links),
			description: e.Summary,
			published:   e.PublishedParsed,
			rawDate:     e.Published,
		}

		if e.Content != nil {
			raw.content = e.Content.Value
		}

		if raw.published == nil {
			raw.published, raw.rawDate = e.UpdatedParsed, e.Updated
		}

		for _, p := range e.Authors {
			if p != nil && strings.TrimSpace(p.Name) != "" {
				raw.author = strings.TrimSpace(p.Name)
				break
			}
		}

		for _, c := range e.Categories {
			if c == nil {
				continue
			}

			if v := firstNonEmpty([]string{c.Label, c.Term}); v != "" {
				raw.category = v
				break
			}
		}

		items = append(items, raw)
	}

	return h, items
}

var rssTranslator = &gofeed.DefaultRSSTranslator{}

// dcDate разбирает dc:date тем же парсером дат, что и gofeed.
// Транслятор работает с лентой целиком, поэтому запись оборачивается в ленту из одного элемента.
func dcDate(it *rss.Item) *time.Time {
	feed, err := rssTranslator.Translate(&rss.Feed{Items: []*rss.Item{it}})
	if err != nil || len(feed.Items) == 0 {
		return nil
	}

	return feed.Items[0].PublishedParsed
}

// alternateLink выбирает rel="alternate" (или ссылку без rel), иначе первую непустую.
func alternateLink(links []*atom.Link) string {
	var first string

	for _, l := range links {
		if l == nil || strings.TrimSpace(l.Href) == "" {
			continue
		}

		href := strings.TrimSpace(l.Href)
		if l.Rel == "" || l.Rel == "alternate" {
			return href
		}

		if first == "" {
			first = href
		}
	}

	return first
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}

package rss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// stubFetcher — Fetcher, отдающий заранее заданное тело или ошибку.
type stubFetcher struct {
	body  string
	err   error
	calls atomic.Int32
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}

	return []byte(s.body), nil
}

func build(t *testing.T, doc string) ([]byte, *Parser) {
	t.Helper()
	return []byte(doc), New(&stubFetcher{}, WithClock(fixedClock))
}

// TestDetect_Shapes — rss.channel.item и feed.entry разбираются в разные варианты.
func TestDetect_Shapes(t *testing.T) {
	t.Parallel()

	shape, err := Detect([]byte(mkRSS("Feed", item{title: "A"}.String())))
	require.NoError(t, err)
	rs, ok := shape.(RSSShape)
	require.True(t, ok)
	require.Len(t, rs.Channel.Items, 1)

	shape, err = Detect([]byte(mkAtom(`<entry><id>e1</id><title>E</title></entry>`)))
	require.NoError(t, err)
	as, ok := shape.(AtomShape)
	require.True(t, ok)
	require.Len(t, as.Feed.Entries, 1)
}

// TestDetect_Unrecognized — неизвестный корень и пустые коллекции дают структурную ошибку.
func TestDetect_Unrecognized(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"html root":       "<html><body>not a feed</body></html>",
		"not xml":         "definitely not xml",
		"empty body":      "",
		"rss no items":    mkRSS("Feed"),
		"atom no entries": mkAtom(),
	}

	for name, doc := range cases {
		_, err := Detect([]byte(doc))
		require.Error(t, err, name)
		require.ErrorIs(t, err, ErrUnrecognizedFeed, name)
	}
}

// TestBuild_RSS_FieldsAndOrder — нормализация полей, фильтр по title, сортировка.
func TestBuild_RSS_FieldsAndOrder(t *testing.T) {
	t.Parallel()

	doc := mkRSS("KCM Feed",
		item{
			title:       "Older",
			link:        "https://example.org/older?utm_source=rss#top",
			guid:        "kcm-older",
			pubDate:     "Mon, 01 Sep 2025 10:00:00 GMT",
			description: "<p>Teaser &amp; more</p>",
			content:     `<script>track()</script><p>Full <b>body</b> text</p><img src="https://cdn.example.org/older.jpg">`,
			author:      "jane@example.org (Jane)",
			category:    "Buying",
		}.String(),
		item{title: "", guid: "untitled", pubDate: "Tue, 02 Sep 2025 10:00:00 GMT"}.String(),
		item{
			title:       "Newer",
			guid:        "kcm-newer",
			pubDate:     "Wed, 10 Sep 2025 10:00:00 +0300",
			description: `<p>Only description <img src="https://cdn.example.org/desc.jpg"></p>`,
			creator:     "KCM Crew",
		}.String(),
		item{title: "Undated", description: "no date here"}.String(),
	)

	body, p := build(t, doc)
	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)

	require.Equal(t, "KCM Feed", res.Title)
	require.Equal(t, "Weekly market news", res.Description)
	require.Equal(t, "https://www.example.org", res.Link)
	require.Equal(t, fixedNow, res.LastUpdated)

	// Запись без title отброшена.
	require.Len(t, res.Articles, 3)

	// Undated получает now и оказывается первой.
	require.Equal(t, "Undated", res.Articles[0].Title)
	require.Equal(t, "Newer", res.Articles[1].Title)
	require.Equal(t, "Older", res.Articles[2].Title)

	for i := 1; i < len(res.Articles); i++ {
		require.False(t, res.Articles[i].PublishedAt.After(res.Articles[i-1].PublishedAt))
	}

	undated := res.Articles[0]
	require.Equal(t, "article-3", undated.ID, "позиция в исходной коллекции, а не в отфильтрованной")
	require.Equal(t, fixedNow, undated.PublishedAt)

	newer := res.Articles[1]
	require.Equal(t, "kcm-newer", newer.ID)
	require.Equal(t, "KCM Crew", newer.Author)
	require.Equal(t, DefaultCategory, newer.Category)
	require.Equal(t, "Only description", newer.Content)
	require.Equal(t, "https://cdn.example.org/desc.jpg", newer.ImageURL)
	require.Equal(t, time.Date(2025, 9, 10, 7, 0, 0, 0, time.UTC), newer.PublishedAt)
	require.Equal(t, "", newer.Link)

	older := res.Articles[2]
	require.Equal(t, "kcm-older", older.ID)
	require.Equal(t, "Full body text", older.Content)
	require.Equal(t, "Teaser & more", older.Description)
	require.Equal(t, "https://example.org/older", older.Link)
	require.Equal(t, "https://cdn.example.org/older.jpg", older.ImageURL)
	require.Equal(t, "jane@example.org (Jane)", older.Author)
	require.Equal(t, "Buying", older.Category)
	require.Equal(t, 1, older.ReadTime)
	require.Equal(t, "Full body text", older.Excerpt)
}

// TestBuild_DefaultsForBareItem — все необязательные поля отсутствуют.
func TestBuild_DefaultsForBareItem(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?><rss version="2.0"><channel><item><title>Bare</title></item></channel></rss>`

	// Реальные часы: проверяем «примерно сейчас».
	p := New(&stubFetcher{})
	before := time.Now().UTC()
	res, err := p.Build(context.Background(), []byte(doc))
	require.NoError(t, err)

	require.Equal(t, DefaultFeedTitle, res.Title)
	require.Equal(t, DefaultFeedDescription, res.Description)
	require.Equal(t, DefaultFeedLink, res.Link)
	require.Len(t, res.Articles, 1)

	a := res.Articles[0]
	require.Equal(t, "article-0", a.ID)
	require.Equal(t, DefaultAuthor, a.Author)
	require.Equal(t, DefaultCategory, a.Category)
	require.Equal(t, "", a.Link)
	require.Equal(t, "", a.ImageURL)
	require.Equal(t, "", a.Content)
	require.Equal(t, 1, a.ReadTime)
	require.WithinDuration(t, before, a.PublishedAt, 5*time.Second)

	parsed, err := time.Parse(time.RFC3339Nano, a.PublishedAt.Format(time.RFC3339Nano))
	require.NoError(t, err)
	require.True(t, parsed.Equal(a.PublishedAt))
}

// TestBuild_MalformedDate_FallsBackToNow — битая дата не роняет ленту.
func TestBuild_MalformedDate_FallsBackToNow(t *testing.T) {
	t.Parallel()

	body, p := build(t, mkRSS("F", item{title: "Bad date", pubDate: "someday soon"}.String()))
	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)
	require.Len(t, res.Articles, 1)
	require.Equal(t, fixedNow, res.Articles[0].PublishedAt)
}

// TestBuild_RDF_DublinCoreDate — записи RSS 1.0 датируются по dc:date и сортируются по нему.
func TestBuild_RDF_DublinCoreDate(t *testing.T) {
	t.Parallel()

	body, p := build(t, mkRDF(
		item{title: "Old RDF", guid: "rdf-old", dcDate: "2020-01-01T00:00:00Z"}.String(),
		item{title: "New RDF", guid: "rdf-new", dcDate: "2021-06-01T09:30:00+02:00"}.String(),
	))

	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)
	require.Equal(t, "RDF feed", res.Title)
	require.Len(t, res.Articles, 2)

	require.Equal(t, "New RDF", res.Articles[0].Title)
	require.Equal(t, time.Date(2021, 6, 1, 7, 30, 0, 0, time.UTC), res.Articles[0].PublishedAt)
	require.Equal(t, "Old RDF", res.Articles[1].Title)
	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), res.Articles[1].PublishedAt)
}

// TestBuild_RSS_DublinCoreDateFallback — dc:date используется, только если нет pubDate.
func TestBuild_RSS_DublinCoreDateFallback(t *testing.T) {
	t.Parallel()

	body, p := build(t, mkRSS("F",
		item{title: "DC only", dcDate: "2020-01-01T00:00:00Z"}.String(),
		item{title: "Both", pubDate: "Mon, 01 Sep 2025 10:00:00 GMT", dcDate: "2019-01-01T00:00:00Z"}.String(),
		item{title: "Bad DC", dcDate: "not a date"}.String(),
	))

	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)
	require.Len(t, res.Articles, 3)

	require.Equal(t, "Bad DC", res.Articles[0].Title)
	require.Equal(t, fixedNow, res.Articles[0].PublishedAt)
	require.Equal(t, "Both", res.Articles[1].Title)
	require.Equal(t, time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), res.Articles[1].PublishedAt)
	require.Equal(t, "DC only", res.Articles[2].Title)
	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), res.Articles[2].PublishedAt)
}

// TestBuild_TitleSanitized — разметка в CDATA вырезается, заголовок из одних &nbsp; отбрасывается.
func TestBuild_TitleSanitized(t *testing.T) {
	t.Parallel()

	body, p := build(t, mkRSS("F",
		`<item><guid>bold</guid><title><![CDATA[<b>Bold</b>  news ]]></title></item>`,
		`<item><guid>blank</guid><title>&amp;nbsp;</title></item>`,
		`<item><guid>cdata-blank</guid><title><![CDATA[ <br/> &nbsp; ]]></title></item>`,
	))

	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)
	require.Len(t, res.Articles, 1)
	require.Equal(t, "bold", res.Articles[0].ID)
	require.Equal(t, "Bold news", res.Articles[0].Title)
}

// TestBuild_SanitizesContent — script вырезан вместе с телом, сущность декодирована.
func TestBuild_SanitizesContent(t *testing.T) {
	t.Parallel()

	body, p := build(t, mkRSS("F", item{
		title:   "Sanitized",
		content: "<script>alert(1)</script><p>Hello &amp; welcome</p>",
	}.String()))

	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)
	require.Equal(t, "Hello & welcome", res.Articles[0].Content)
	require.Equal(t, "Hello & welcome", res.Articles[0].Excerpt)
}

// TestBuild_ReadTimeAndExcerpt — 201 слово дают 2 минуты и усечённое превью.
func TestBuild_ReadTimeAndExcerpt(t *testing.T) {
	t.Parallel()

	long := strings.TrimSpace(strings.Repeat("home ", 201))
	body, p := build(t, mkRSS("F", item{title: "Long", content: "<p>" + long + "</p>"}.String()))

	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)

	a := res.Articles[0]
	require.Equal(t, 2, a.ReadTime)
	require.True(t, strings.HasSuffix(a.Excerpt, "..."))
	require.Len(t, strings.Fields(strings.TrimSuffix(a.Excerpt, "...")), 30)
}

// TestBuild_Atom — feed.entry: id, alternate-ссылки, published/updated, автор, категория.
func TestBuild_Atom(t *testing.T) {
	t.Parallel()

	doc := mkAtom(
		`<entry>
  <id>urn:entry:1</id>
  <title>Atom first</title>
  <link rel="alternate" href="https://atom.example.org/first"/>
  <published>2025-09-01T08:00:00Z</published>
  <author><name>Atom Author</name></author>
  <category term="selling" label="Selling"/>
  <summary>Short summary</summary>
  <content type="html"><![CDATA[<p>Atom body <img src="https://cdn.example.org/atom.jpg"></p>]]></content>
</entry>`,
		`<entry>
  <title>Atom second</title>
  <link href="https://atom.example.org/second"/>
  <updated>2025-09-05T08:00:00Z</updated>
  <category term="rates"/>
</entry>`,
		`<entry><id>urn:entry:untitled</id></entry>`,
	)

	body, p := build(t, doc)
	res, err := p.Build(context.Background(), body)
	require.NoError(t, err)

	require.Equal(t, "Atom Market", res.Title)
	require.Equal(t, "Atom subtitle", res.Description)
	require.Equal(t, "https://atom.example.org/", res.Link)
	require.Len(t, res.Articles, 2)

	second, first := res.Articles[0], res.Articles[1]

	require.Equal(t, "Atom second", second.Title)
	require.Equal(t, "article-1", second.ID)
	require.Equal(t, "https://atom.example.org/second", second.Link)
	require.Equal(t, time.Date(2025, 9, 5, 8, 0, 0, 0, time.UTC), second.PublishedAt)
	require.Equal(t, DefaultAuthor, second.Author)
	require.Equal(t, "rates", second.Category)

	require.Equal(t, "urn:entry:1", first.ID)
	require.Equal(t, "Atom body", first.Content)
	require.Equal(t, "Short summary", first.Description)
	require.Equal(t, "https://cdn.example.org/atom.jpg", first.ImageURL)
	require.Equal(t, "Atom Author", first.Author)
	require.Equal(t, "Selling", first.Category)
}

// TestParse_FetchErrorPropagates — ошибка загрузки возвращается без частичных данных.
func TestParse_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := New(&stubFetcher{err: boom}, WithClock(fixedClock))

	res, err := p.Parse(context.Background(), "https://feed.example.org")
	require.Nil(t, res)
	require.ErrorIs(t, err, boom)
}

// TestParse_OverHTTP — HTTPFetcher шлёт User-Agent, а не-2xx превращается в *StatusError.
func TestParse_OverHTTP(t *testing.T) {
	t.Parallel()

	var gotUA, gotCC atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		gotCC.Store(r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(mkRSS("HTTP feed", item{title: "Over HTTP", guid: "h-1"}.String())))
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>maintenance</body></html>"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := New(NewHTTPFetcher(srv.Client(), "kcm-test/1.0", time.Hour), WithClock(fixedClock))

	res, err := p.Parse(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	require.Equal(t, "HTTP feed", res.Title)
	require.Len(t, res.Articles, 1)
	require.Equal(t, "h-1", res.Articles[0].ID)
	require.Equal(t, "kcm-test/1.0", gotUA.Load())
	require.Equal(t, "max-age=3600", gotCC.Load())

	_, err = p.Parse(context.Background(), srv.URL+"/fail")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusInternalServerError, se.Code)

	_, err = p.Parse(context.Background(), srv.URL+"/html")
	require.ErrorIs(t, err, ErrUnrecognizedFeed)
}

// TestHTTPFetcher_DefaultUserAgent — пустой UA заменяется значением по умолчанию.
func TestHTTPFetcher_DefaultUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewHTTPFetcher(srv.Client(), "", 0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
	require.Equal(t, DefaultUserAgent, gotUA.Load())
}

// TestHTTPFetcher_ContextCancel — «подвисающий» апстрим + короткий таймаут контекста.
func TestHTTPFetcher_ContextCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPFetcher(srv.Client(), "", 0).Fetch(ctx, srv.URL)
	require.Error(t, err)
}

func Test_canonicalLink(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://example.org/a", canonicalLink("https://example.org/a?utm_source=x&utm_medium=y#frag"))
	require.Equal(t, "https://example.org/a?id=7", canonicalLink(" https://example.org/a?id=7&fbclid=zz "))
	require.Equal(t, "", canonicalLink("   "))
	require.Equal(t, "not a url value", canonicalLink("not a url value"))
}

// TestHTTPFetcher_RedactsTokenInErrors — токен из query не попадает в текст ошибок.
func TestHTTPFetcher_RedactsTokenInErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(NewHTTPFetcher(srv.Client(), "", 0)).Parse(context.Background(), srv.URL+"/feed?a=partner-secret")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "partner-secret")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusForbidden, se.Code)

	// Недоступный хост: ошибка транспорта (*url.Error) тоже без токена.
	closed := httptest.NewServer(http.NotFoundHandler())
	addr := closed.URL
	closed.Close()

	_, err = NewHTTPFetcher(nil, "", 0).Fetch(context.Background(), addr+"/feed?a=partner-secret")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "partner-secret")
}

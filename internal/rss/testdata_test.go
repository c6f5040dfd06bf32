package rss

import (
	"fmt"
	"strings"
)

// mkRSS — собирает минимальный RSS 2.0 документ с нужными namespace.
func mkRSS(title string, items ...string) string {
	head := ""
	if title != "" {
		head = fmt.Sprintf("<title>%s</title>\n<link>https://www.example.org</link>\n<description>Weekly &lt;b&gt;market&lt;/b&gt; news</description>\n", title)
	}

	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
     xmlns:content="http://purl.org/rss/1.0/modules/content/"
     xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    ` + head + strings.Join(items, "\n") + `
  </channel>
</rss>`
}

// item — поля шаблона <item>; пустые поля не попадают в XML.
type item struct {
	title, link, guid, pubDate, dcDate, description, content, author, creator, category string
}

func (it item) String() string {
	var b strings.Builder
	b.WriteString("<item>\n")

	tags := []struct{ tag, val string }{
		{"title", it.title},
		{"link", it.link},
		{"guid", it.guid},
		{"pubDate", it.pubDate},
		{"dc:date", it.dcDate},
		{"author", it.author},
		{"dc:creator", it.creator},
		{"category", it.category},
	}
	for _, t := range tags {
		if t.val != "" {
			fmt.Fprintf(&b, "<%s>%s</%s>\n", t.tag, t.val, t.tag)
		}
	}

	if it.description != "" {
		fmt.Fprintf(&b, "<description><![CDATA[%s]]></description>\n", it.description)
	}

	if it.content != "" {
		fmt.Fprintf(&b, "<content:encoded><![CDATA[%s]]></content:encoded>\n", it.content)
	}

	b.WriteString("</item>")
	return b.String()
}

// mkRDF — собирает RSS 1.0 (RDF) документ: записи лежат вне channel.
func mkRDF(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel rdf:about="https://rdf.example.org/">
    <title>RDF feed</title>
    <link>https://rdf.example.org/</link>
    <description>RDF market news</description>
  </channel>
  ` + strings.Join(items, "\n") + `
</rdf:RDF>`
}

// mkAtom — минимальный Atom 1.0 документ.
func mkAtom(entries ...string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Market</title>
  <subtitle>Atom subtitle</subtitle>
  <link rel="self" href="https://atom.example.org/feed.xml"/>
  <link rel="alternate" href="https://atom.example.org/"/>
  <id>urn:feed:atom</id>
  <updated>2025-09-10T10:00:00Z</updated>
  ` + strings.Join(entries, "\n") + `
</feed>`
}

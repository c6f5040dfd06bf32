package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// words — строка из n слов "w".
func words(n int) string {
	return strings.TrimSpace(strings.Repeat("w ", n))
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text untouched", "just text", "just text"},
		{"script removed with body", "<script>alert(1)</script><p>Hello &amp; welcome</p>", "Hello & welcome"},
		{"style removed with body", "<style type=\"text/css\">p{color:red}</style>Body", "Body"},
		{"multiline uppercase script", "<SCRIPT>\nvar x = 1;\n</SCRIPT>ok", "ok"},
		{"tags become spaces", "<p>one</p><p>two</p>", "one two"},
		{"whitespace collapsed", "  a\n\n\t b  ", "a b"},
		{"img tag dropped", `<p>pic <img src="https://cdn.example.org/a.jpg"> here</p>`, "pic here"},
		{"nbsp decoded after collapse", "a&nbsp;&nbsp;b", "a  b"},
		{"nbsp survives trim", "&nbsp;<p>text</p>", "  text"},
		{"escaped markup stays text", "Weekly &lt;b&gt;market&lt;/b&gt; news", "Weekly <b>market</b> news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

func TestDecodeEntities(t *testing.T) {
	t.Parallel()

	require.Equal(t, `& < > " ' '`, DecodeEntities("&amp; &lt; &gt; &quot; &#39; &apos;"))
	require.Equal(t, "a b", DecodeEntities("a&nbsp;b"))
	require.Equal(t, "wait… — –", DecodeEntities("wait&hellip; &mdash; &ndash;"))

	// Вне таблицы — без изменений.
	require.Equal(t, "&copy; &#123; &euro;", DecodeEntities("&copy; &#123; &euro;"))

	// Один проход.
	require.Equal(t, "&lt;", DecodeEntities("&amp;lt;"))
}

func TestFirstImageSrc(t *testing.T) {
	t.Parallel()

	html := `<div><p>text</p><IMG class="x" SRC='https://cdn.example.org/a.jpg'><img src="https://cdn.example.org/b.jpg"></div>`
	require.Equal(t, "https://cdn.example.org/a.jpg", FirstImageSrc(html))
	require.Equal(t, "", FirstImageSrc("<p>no image</p>"))
	require.Equal(t, "", FirstImageSrc(""))
}

func TestReadTime(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, ReadTime(words(200)))
	require.Equal(t, 2, ReadTime(words(201)))
	require.Equal(t, 1, ReadTime(words(1)))
	require.Equal(t, 3, ReadTime(words(401)))
	require.Equal(t, 1, ReadTime(""))
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	t.Run("short text unchanged", func(t *testing.T) {
		in := "Home prices rose again this month."
		require.Equal(t, in, Excerpt(in, ExcerptLength))
	})

	t.Run("exact budget unchanged", func(t *testing.T) {
		in := strings.Repeat("a", ExcerptLength)
		require.Equal(t, in, Excerpt(in, ExcerptLength))
	})

	t.Run("long text truncated to budget/5 words", func(t *testing.T) {
		in := words(100)
		got := Excerpt(in, ExcerptLength)

		require.True(t, strings.HasSuffix(got, "..."))
		require.Len(t, strings.Fields(strings.TrimSuffix(got, "...")), ExcerptLength/5)
	})

	t.Run("non-positive budget falls back to default", func(t *testing.T) {
		in := words(100)
		require.Equal(t, Excerpt(in, ExcerptLength), Excerpt(in, 0))
	})

	t.Run("counts runes, not bytes", func(t *testing.T) {
		in := strings.Repeat("é", 10)
		require.Equal(t, in, Excerpt(in, 10))
	})
}

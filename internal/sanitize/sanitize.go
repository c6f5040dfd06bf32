// sanitize превращает HTML из лент в plain text и считает производные поля статьи:
// превью, время чтения, первую картинку.
package sanitize

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// WordsPerMinute — скорость чтения для ReadTime.
	WordsPerMinute = 200
	// ExcerptLength — бюджет символов превью по умолчанию.
	ExcerptLength = 150
	// avgWordLength — средняя длина слова, которой Excerpt переводит символы в слова.
	avgWordLength = 5
	ellipsis      = "..."
)

var (
	reBlocks = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>|<style\b[^>]*>.*?</style\s*>`)
	reTag    = regexp.MustCompile(`(?s)<[^>]*>`)
	reSpace  = regexp.MustCompile(`\s+`)
	reImg    = regexp.MustCompile(`(?is)<img\b[^>]*?\bsrc\s*=\s*["']([^"']+)["']`)
)

// entities — фиксированная таблица. Остальные сущности (включая числовые &#123;)
// остаются в тексте как есть.
var entities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
	"&hellip;", "…",
	"&mdash;", "—",
	"&ndash;", "–",
)

// StripHTML вырезает <script>/<style> вместе с содержимым, заменяет прочие теги
// пробелом, схлопывает пробельные последовательности и декодирует сущности.
// Декодирование идёт последним: &nbsp; не схлопывается с соседними пробелами,
// а экранированные &lt;b&gt; остаются текстом.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	s := reBlocks.ReplaceAllString(html, " ")
	s = reTag.ReplaceAllString(s, " ")
	s = strings.TrimSpace(reSpace.ReplaceAllString(s, " "))

	return DecodeEntities(s)
}

// DecodeEntities декодирует сущности из таблицы за один проход:
// "&amp;lt;" превращается в "&lt;", а не в "<".
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	return entities.Replace(s)
}

// FirstImageSrc возвращает src первой <img> в сыром HTML или "".
func FirstImageSrc(html string) string {
	m := reImg.FindStringSubmatch(html)
	if len(m) < 2 {
		return ""
	}

	return strings.TrimSpace(m[1])
}

// ReadTime — ceil(слов/200), но не меньше минуты.
func ReadTime(text string) int {
	words := len(strings.Fields(text))

	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}

	return minutes
}

// Excerpt усекает text примерно до maxLen символов по границе слов.
//
// Особенности:
//   - text не длиннее maxLen возвращается без изменений и без многоточия;
//   - иначе берутся первые maxLen/5 слов и добавляется "...".
func Excerpt(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = ExcerptLength
	}

	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	words := strings.Fields(text)
	if n := maxLen / avgWordLength; len(words) > n {
		words = words[:n]
	}

	return strings.Join(words, " ") + ellipsis
}

// redact маскирует секреты перед логами, трейсами и текстами ошибок.
package redact

import (
	"net/url"
	"sort"
	"strings"
)

const mask = "***"

// URL оставляет схему, хост, путь и имена query-параметров, а значения
// параметров и userinfo заменяет на "***". Партнёрский токен ленты живёт в query.
// Неразбираемая строка целиком заменяется маской.
func URL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return mask
	}

	if u.User != nil {
		u.User = url.User(mask)
	}

	if u.RawQuery != "" {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, url.QueryEscape(k)+"="+mask)
		}
		u.RawQuery = strings.Join(parts, "&")
	}

	u.Fragment = ""

	return u.String()
}

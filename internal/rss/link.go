package rss

import (
	"net/url"
	"strings"
)

// canonicalLink убирает фрагмент и трекинговые параметры (utm_*, *clid, mc_*, igshid).
// Нераспознанные и не-http(s) ссылки возвращаются как есть.
func canonicalLink(raw string) string {
	str := strings.TrimSpace(raw)
	if str == "" {
		return ""
	}

	u, err := url.Parse(str)
	if err != nil {
		return str
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return str
	}

	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || strings.HasSuffix(lk, "clid") || strings.HasPrefix(lk, "mc_") || lk == "igshid" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

package schedule

import (
	"sort"
	"strings"
)

// DefaultFileHostDomainRule maps bucket hosts to the CDN domains serving them.
func DefaultFileHostDomainRule() map[string]string {
	return map[string]string{
		"https://storage.googleapis.com/mirrormedia-files":    "https://www.mirrormedia.mg",
		"https://storage.googleapis.com/static-mnews-tw-prod": "https://statics.mnews.tw",
		"https://storage.googleapis.com/static-mnews-tw-dev":  "https://dev.mnews.tw",
		"https://storage.googleapis.com/static-mnews-tw-stag": "https://www-stag.mnews.tw",
		"https://storage.googleapis.com/mirror-tv-file":       "https://dev.mnews.tw",
	}
}

// RewriteHost replaces the first occurrence of every rule prefix in u.
// Rules are applied in key order.
func RewriteHost(rules map[string]string, u string) string {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		u = strings.Replace(u, k, rules[k], 1)
	}
	return u
}

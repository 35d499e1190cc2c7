package cms

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// String renders s as a GraphQL string literal.
func String(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// NullableString renders a GraphQL string literal or null.
func NullableString(s *string) string {
	if s == nil {
		return "null"
	}
	return String(*s)
}

// Time renders t as the ISO timestamp literal Keystone expects in filters.
func Time(t time.Time) string {
	return String(t.UTC().Format("2006-01-02T15:04:05.000000Z"))
}

// OrFilter builds {OR: [{field: "v1"}, {field: "v2"}]}.
func OrFilter(field string, values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("{%v: %v}", field, String(v)))
	}
	return "{OR: [" + strings.Join(parts, ", ") + "]}"
}

// Package pathmatch matches legacy database paths against glob patterns.
package pathmatch

import (
	"regexp"
	"strings"
)

// Matcher matches paths against a set of case-insensitive globs. "**"
// matches any path, "*" any name, "?" any single name character, and "/"
// or "\" either separator. A nil Matcher matches nothing.
type Matcher struct {
	rx *regexp.Regexp
}

// New compiles patterns. Empty patterns are ignored; if none remain, New
// returns nil.
func New(patterns ...string) *Matcher {
	var parts []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, convert(p))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &Matcher{rx: regexp.MustCompile(`(?is)^(?:` + strings.Join(parts, "|") + `)$`)}
}

// Parse compiles a ";"-separated pattern list.
func Parse(list string) *Matcher {
	return New(strings.Split(list, ";")...)
}

// Matches reports whether path matches any pattern.
func (m *Matcher) Matches(path string) bool {
	if m == nil {
		return false
	}
	return m.rx.MatchString(path)
}

func convert(glob string) string {
	var buf strings.Builder
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '/', '\\':
			buf.WriteString(`[/\\]`)
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				buf.WriteString(`.*`)
				i++
			} else {
				buf.WriteString(`[^/\\]*`)
			}
		case '?':
			buf.WriteString(`[^/\\]`)
		default:
			buf.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return buf.String()
}

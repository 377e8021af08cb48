package export

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var invalidTagChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// tagNamer derives unique tag names from label text.
type tagNamer struct {
	fold cases.Caser
	used map[string]struct{}
}

func newTagNamer() *tagNamer {
	return &tagNamer{fold: cases.Fold(), used: make(map[string]struct{})}
}

// name replaces runs of invalid characters with "_" and appends "-2",
// "-3", ... until the name is unused, ignoring case.
func (n *tagNamer) name(label string) string {
	base := invalidTagChars.ReplaceAllString(strings.TrimSpace(label), "_")
	tag := base
	for i := 2; ; i++ {
		key := n.fold.String(tag)
		if _, taken := n.used[key]; !taken {
			n.used[key] = struct{}{}
			return tag
		}
		tag = base + "-" + strconv.Itoa(i)
	}
}

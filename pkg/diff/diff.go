// Package diff renders unified diffs between two file revisions.
package diff

import (
	"bytes"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Unified returns the unified diff turning a into b, or "" when they are
// equal. A negative context uses DefaultContext.
func Unified(aName, bName string, a, b []byte, context int) (string, error) {
	if bytes.Equal(a, b) {
		return "", nil
	}
	if context < 0 {
		context = DefaultContext
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  context,
	})
}

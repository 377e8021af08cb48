package delta

import (
	"bytes"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff computes the reverse delta that rebuilds older from newer. Matching
// is line based; unmatched lines of older are recorded as WriteLog data.
func Diff(newer, older []byte) []Operation {
	a := splitLines(newer)
	b := splitLines(older)

	offsets := make([]int, len(a)+1)
	for i, line := range a {
		offsets[i+1] = offsets[i] + len(line)
	}

	ops := []Operation{}
	matcher := difflib.NewMatcher(a, b)
	for _, code := range matcher.GetOpCodes() {
		switch code.Tag {
		case 'e':
			ops = appendOp(ops, WriteSuccessor(offsets[code.I1], offsets[code.I2]-offsets[code.I1]))
		case 'r', 'i':
			var buf bytes.Buffer
			for _, line := range b[code.J1:code.J2] {
				buf.WriteString(line)
			}
			ops = appendOp(ops, WriteLog(buf.Bytes()))
		}
	}
	return ops
}

// splitLines splits data after every newline, keeping the terminators so the
// lines concatenate back to data.
func splitLines(data []byte) []string {
	var lines []string
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, string(data))
			break
		}
		lines = append(lines, string(data[:i+1]))
		data = data[i+1:]
	}
	return lines
}

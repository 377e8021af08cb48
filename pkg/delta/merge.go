package delta

import (
	"errors"
	"fmt"
)

// ErrBrokenChain is returned when an operation references bytes its
// successor does not have.
var ErrBrokenChain = errors.New("broken delta chain")

// Merge folds prior, a reverse delta against the revision newer describes,
// into a single list against newer's own base. WriteLog operations of prior
// pass through; each WriteSuccessor range is resolved against newer.
func Merge(newer, prior []Operation) ([]Operation, error) {
	result := make([]Operation, 0, len(prior))
	sim := NewSimulator(newer)
	fromLog := func(data []byte) {
		result = appendOp(result, WriteLog(data))
	}
	fromSuccessor := func(offset, length int) {
		result = appendOp(result, WriteSuccessor(offset, length))
	}

	for _, op := range prior {
		switch op.Kind {
		case OpWriteLog:
			result = appendOp(result, op)
		case OpWriteSuccessor:
			sim.Seek(op.Offset)
			if sim.Offset() != op.Offset {
				return nil, fmt.Errorf("%w: seek to %d past end %d", ErrBrokenChain, op.Offset, sim.Offset())
			}
			if n := sim.Read(op.Length, fromLog, fromSuccessor); n != op.Length {
				return nil, fmt.Errorf("%w: read %d of %d bytes at %d", ErrBrokenChain, n, op.Length, op.Offset)
			}
		}
	}
	return result, nil
}

// Apply runs ops against the content of the successor revision.
func Apply(ops []Operation, successor []byte) ([]byte, error) {
	out := make([]byte, 0, Len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpWriteLog:
			out = append(out, op.Data...)
		case OpWriteSuccessor:
			end := op.Offset + op.Length
			if op.Offset < 0 || end > len(successor) {
				return nil, fmt.Errorf("%w: range [%d,%d) outside %d bytes", ErrBrokenChain, op.Offset, end, len(successor))
			}
			out = append(out, successor[op.Offset:end]...)
		}
	}
	return out, nil
}

// appendOp coalesces contiguous successor copies.
func appendOp(ops []Operation, op Operation) []Operation {
	if op.Length == 0 {
		return ops
	}
	if n := len(ops); n > 0 && op.Kind == OpWriteSuccessor {
		last := &ops[n-1]
		if last.Kind == OpWriteSuccessor && last.Offset+last.Length == op.Offset {
			last.Length += op.Length
			return ops
		}
	}
	return append(ops, op)
}

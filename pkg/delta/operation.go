// Package delta rebuilds historical file content from reverse-delta chains.
package delta

import "fmt"

// OpKind distinguishes the two reverse-delta commands.
type OpKind int

const (
	// OpWriteLog emits bytes recorded when the delta was created.
	OpWriteLog OpKind = iota
	// OpWriteSuccessor copies a range of the next more recent revision.
	OpWriteSuccessor
)

// Operation is one reverse-delta command.
type Operation struct {
	Kind   OpKind
	Data   []byte
	Offset int
	Length int
}

func WriteLog(data []byte) Operation {
	return Operation{Kind: OpWriteLog, Data: data, Length: len(data)}
}

func WriteSuccessor(offset, length int) Operation {
	return Operation{Kind: OpWriteSuccessor, Offset: offset, Length: length}
}

func (op Operation) String() string {
	if op.Kind == OpWriteLog {
		return fmt.Sprintf("WriteLog(%d bytes)", len(op.Data))
	}
	return fmt.Sprintf("WriteSuccessor(%d, %d)", op.Offset, op.Length)
}

// Len returns the number of output bytes the operation produces.
func Len(ops []Operation) int {
	n := 0
	for _, op := range ops {
		n += op.Length
	}
	return n
}

package delta

// Simulator walks an operation list as if it were the byte stream the list
// produces, without materializing it.
type Simulator struct {
	ops        []Operation
	index      int
	opOffset   int
	fileOffset int
}

func NewSimulator(ops []Operation) *Simulator {
	return &Simulator{ops: ops}
}

func (s *Simulator) reset() {
	s.index = 0
	s.opOffset = 0
	s.fileOffset = 0
}

// EOF reports whether the simulator is past the last operation.
func (s *Simulator) EOF() bool {
	return s.index >= len(s.ops)
}

// Offset returns the current position in the simulated stream.
func (s *Simulator) Offset() int {
	return s.fileOffset
}

// Seek positions the simulator at offset. Seeking backwards rewinds to the
// start of the list first.
func (s *Simulator) Seek(offset int) {
	if offset < s.fileOffset {
		s.reset()
	}
	for s.fileOffset < offset && !s.EOF() {
		seekRemaining := offset - s.fileOffset
		opRemaining := s.ops[s.index].Length - s.opOffset
		if seekRemaining < opRemaining {
			s.opOffset += seekRemaining
			s.fileOffset += seekRemaining
			return
		}
		s.fileOffset += opRemaining
		s.index++
		s.opOffset = 0
	}
}

// Read consumes up to length bytes of the simulated stream, reporting each
// fragment to fromLog or fromSuccessor. It returns the number of bytes read,
// which is short only at the end of the list.
func (s *Simulator) Read(length int, fromLog func(data []byte), fromSuccessor func(offset, length int)) int {
	read := 0
	for length > 0 && !s.EOF() {
		op := s.ops[s.index]
		n := op.Length - s.opOffset
		if n > length {
			n = length
		}
		if n > 0 {
			switch op.Kind {
			case OpWriteLog:
				fromLog(op.Data[s.opOffset : s.opOffset+n])
			case OpWriteSuccessor:
				fromSuccessor(op.Offset+s.opOffset, n)
			}
		}
		s.opOffset += n
		s.fileOffset += n
		length -= n
		read += n
		if s.opOffset >= op.Length {
			s.index++
			s.opOffset = 0
		}
	}
	return read
}

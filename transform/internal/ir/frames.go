package ir

// Frame is the buffer and pending tail of one lexical region.
type Frame struct {
	Buffer []*Instruction
	Tail   []*Instruction
}

func (f *Frame) flush() {
	if len(f.Tail) == 0 {
		return
	}
	f.Buffer = append(f.Buffer, f.Tail...)
	f.Tail = f.Tail[:0:0]
}

// Frames is the stack of region frames for one compile invocation.
// It always holds the root frame.
type Frames struct {
	stack []*Frame
}

// NewFrames creates a stack holding only the root frame.
func NewFrames() *Frames {
	return &Frames{stack: []*Frame{{}}}
}

func (s *Frames) top() *Frame {
	return s.stack[len(s.stack)-1]
}

// Depth returns the number of frames, root included.
func (s *Frames) Depth() int {
	return len(s.stack)
}

// Push installs a fresh frame for a nested region.
func (s *Frames) Push() {
	s.stack = append(s.stack, &Frame{})
}

// Pop flushes the current frame's tail and returns its instructions,
// restoring the enclosing frame.
func (s *Frames) Pop() []*Instruction {
	if len(s.stack) == 1 {
		panic("ir: pop of root frame")
	}
	f := s.top()
	f.flush()
	s.stack = s.stack[:len(s.stack)-1]
	return f.Buffer
}

// Emit flushes the pending tail and appends ins to the buffer.
func (s *Frames) Emit(ins *Instruction) {
	f := s.top()
	f.flush()
	f.Buffer = append(f.Buffer, ins)
}

// EmitAll flushes the pending tail and appends list to the buffer.
func (s *Frames) EmitAll(list []*Instruction) {
	f := s.top()
	f.flush()
	f.Buffer = append(f.Buffer, list...)
}

// Defer queues ins on the pending tail.
func (s *Frames) Defer(ins *Instruction) {
	f := s.top()
	f.Tail = append(f.Tail, ins)
}

// Flush moves the pending tail into the buffer.
func (s *Frames) Flush() {
	s.top().flush()
}

// Mark flushes the pending tail and returns the current buffer position.
func (s *Frames) Mark() int {
	f := s.top()
	f.flush()
	return len(f.Buffer)
}

// InsertAt places ins at a position returned by Mark, ahead of anything
// emitted since. The current frame must be the one Mark was taken on.
func (s *Frames) InsertAt(mark int, ins *Instruction) {
	f := s.top()
	if mark >= len(f.Buffer) {
		f.Tail = append([]*Instruction{ins}, f.Tail...)
		return
	}
	f.Buffer = append(f.Buffer, nil)
	copy(f.Buffer[mark+1:], f.Buffer[mark:])
	f.Buffer[mark] = ins
}

// Root flushes and returns the root frame's instructions. Any frames
// still pushed indicate an unbalanced walk and are reported by ok=false.
func (s *Frames) Root() (list []*Instruction, ok bool) {
	root := s.stack[0]
	root.flush()
	return root.Buffer, len(s.stack) == 1
}

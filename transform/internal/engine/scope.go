package engine

import (
	"strconv"

	"github.com/wippyai/druta/ast"
)

// scope tracks declared locals and mints temps for one compile invocation.
type scope struct {
	declared map[string]struct{}
	locals   string
	prefix   string
	order    []string
	counter  int
}

func newScope(locals, prefix string) *scope {
	return &scope{
		declared: make(map[string]struct{}),
		locals:   locals,
		prefix:   prefix,
	}
}

// Declare adds name to the table. Repeated declarations are no-ops.
func (s *scope) Declare(name string) {
	if _, ok := s.declared[name]; ok {
		return
	}
	s.declared[name] = struct{}{}
	s.order = append(s.order, name)
}

func (s *scope) Declared(name string) bool {
	_, ok := s.declared[name]
	return ok
}

// Rewrite returns <locals>.name for declared names and the bare name
// otherwise.
func (s *scope) Rewrite(name string) ast.Node {
	if s.Declared(name) {
		return s.Local(name)
	}
	return ast.NewName(name)
}

// Local returns the locals container field for name.
func (s *scope) Local(name string) *ast.Dot {
	return ast.NewDot(ast.NewName(s.locals), name)
}

// NextTemp mints a fresh temp and advances the counter.
func (s *scope) NextTemp() *ast.Name {
	n := ast.NewName(s.prefix + strconv.Itoa(s.counter))
	s.counter++
	return n
}

// CurrentTemp returns the most recently minted temp name, or "" before
// the first one.
func (s *scope) CurrentTemp() string {
	if s.counter == 0 {
		return ""
	}
	return s.prefix + strconv.Itoa(s.counter-1)
}

// Temps returns how many temps have been minted.
func (s *scope) Temps() int {
	return s.counter
}

// Names returns declared names in declaration order.
func (s *scope) Names() []string {
	return append([]string(nil), s.order...)
}

// Package scope implements the "current project" context stack.
//
// A Stack is a LIFO of projects; the top is the current project. Scopes are
// entered with Enter (or With) and always left through a Guard, so that a
// push is matched by exactly one pop on every exit path.
//
// Stack methods are safe for concurrent use. Interleaving scopes from two
// goroutines on the same Stack is still a logic error: pops are not tied
// to the goroutine that pushed.
package scope

import (
	"errors"
	"sync"
)

// ErrUnderflow is the panic value used when popping an empty stack.
var ErrUnderflow = errors.New("scope: pop from empty project stack")

// Stack is a mutex-guarded LIFO of projects.
// The zero value is an empty stack ready for use.
type Stack[P any] struct {
	mu    sync.Mutex
	items []P
}

// NewStack returns an empty stack.
func NewStack[P any]() *Stack[P] {
	return &Stack[P]{}
}

// Push makes p the current project.
func (s *Stack[P]) Push(p P) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, p)
}

// Pop removes the current project and returns it.
// Popping an empty stack is a programming error and panics with ErrUnderflow.
func (s *Stack[P]) Pop() P {
	p, ok := s.TryPop()
	if !ok {
		panic(ErrUnderflow)
	}
	return p
}

// TryPop is Pop without the panic. It reports false on an empty stack.
func (s *Stack[P]) TryPop() (P, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero P
	n := len(s.items)
	if n == 0 {
		return zero, false
	}
	p := s.items[n-1]
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return p, true
}

// Current returns the top of the stack, or false when it is empty.
func (s *Stack[P]) Current() (P, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		var zero P
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Depth returns the number of active scopes.
func (s *Stack[P]) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Enter pushes p and returns the guard that leaves the scope.
//
//	g := stack.Enter(p)
//	defer g.Exit()
func (s *Stack[P]) Enter(p P) *Guard[P] {
	s.Push(p)
	return &Guard[P]{stack: s}
}

// Guard leaves a scope opened by Stack.Enter.
type Guard[P any] struct {
	stack *Stack[P]
	once  sync.Once
}

// Exit pops the stack. Only the first call has an effect.
func (g *Guard[P]) Exit() {
	g.once.Do(func() {
		g.stack.Pop()
	})
}

// With runs fn with p as the current project. The scope is left on every
// path out of fn, including panics, and fn's error is returned unchanged.
func With[P any](s *Stack[P], p P, fn func() error) error {
	g := s.Enter(p)
	defer g.Exit()
	return fn()
}

package scope

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type project struct{ name string }

func current(t *testing.T, s *Stack[*project]) string {
	t.Helper()
	p, ok := s.Current()
	if !ok {
		return ""
	}
	return p.name
}

func TestStack_Empty(t *testing.T) {
	var s Stack[*project]

	_, ok := s.Current()
	assert.False(t, ok, "zero stack has no current project")
	assert.Equal(t, 0, s.Depth())

	_, ok = s.TryPop()
	assert.False(t, ok)
}

func TestStack_Nesting(t *testing.T) {
	s := NewStack[*project]()
	p1, p2 := &project{"p1"}, &project{"p2"}

	g1 := s.Enter(p1)
	g2 := s.Enter(p2)
	assert.Equal(t, "p2", current(t, s))
	assert.Equal(t, 2, s.Depth())

	g2.Exit()
	assert.Equal(t, "p1", current(t, s))

	g1.Exit()
	assert.Equal(t, "", current(t, s))
	assert.Equal(t, 0, s.Depth())
}

func TestStack_PopUnderflowPanics(t *testing.T) {
	s := NewStack[*project]()

	assert.PanicsWithValue(t, ErrUnderflow, func() { s.Pop() })
}

func TestGuard_ExitOnce(t *testing.T) {
	s := NewStack[*project]()
	s.Push(&project{"outer"})

	g := s.Enter(&project{"inner"})
	g.Exit()
	g.Exit()

	assert.Equal(t, 1, s.Depth(), "second Exit must not pop the outer scope")
	assert.Equal(t, "outer", current(t, s))
}

func TestWith(t *testing.T) {
	s := NewStack[*project]()
	p := &project{"p"}

	t.Run("normal return", func(t *testing.T) {
		var seen string
		err := With(s, p, func() error {
			seen = current(t, s)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "p", seen)
		assert.Equal(t, 0, s.Depth())
	})

	t.Run("error is propagated unchanged", func(t *testing.T) {
		boom := errors.New("boom")
		err := With(s, p, func() error { return boom })
		assert.Same(t, boom, err)
		assert.Equal(t, 0, s.Depth(), "scope is left after an error")
	})

	t.Run("panic still pops", func(t *testing.T) {
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = With(s, p, func() error { panic("kaboom") })
		})
		assert.Equal(t, 0, s.Depth())
	})

	t.Run("nested restores outer", func(t *testing.T) {
		outer, inner := &project{"outer"}, &project{"inner"}
		err := With(s, outer, func() error {
			_ = With(s, inner, func() error {
				assert.Equal(t, "inner", current(t, s))
				return errors.New("ignored")
			})
			assert.Equal(t, "outer", current(t, s))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, s.Depth())
	})
}

func TestStack_ConcurrentBalanced(t *testing.T) {
	s := NewStack[*project]()
	base := &project{"base"}
	s.Push(base)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Push(&project{"tmp"})
				s.Pop()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, "base", current(t, s))
}

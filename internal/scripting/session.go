package scripting

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/drnsf/drnsf/internal/console"
	"github.com/drnsf/drnsf/internal/macro"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Session is one evaluation context with its own globals, such as a console.
// Bindings made by one chunk are visible to the next.
type Session struct {
	engine  *Engine
	name    string
	out     io.Writer
	globals starlark.StringDict
	thread  *starlark.Thread
}

// NewSession starts a session whose print() output and expression results
// go to out.
func (e *Engine) NewSession(name string, out io.Writer) (*Session, error) {
	globals, err := e.Globals()
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = e.out
	}
	return &Session{
		engine:  e,
		name:    name,
		out:     out,
		globals: globals,
		thread:  newThread(name, out),
	}, nil
}

// Names returns the names currently bound in the session.
func (s *Session) Names() []string {
	names := s.globals.Keys()
	sort.Strings(names)
	return names
}

// Global returns a binding of the session.
func (s *Session) Global(name string) (starlark.Value, bool) {
	v, ok := s.globals[name]
	return v, ok
}

// EvalChunk reads one compound statement through readline, which is asked
// for further lines while the statement is incomplete. Parsing happens
// without the host lock so waiting for input never blocks the host; the
// chunk then runs under the lock. A sole expression is evaluated and its
// value printed unless it is None. Once the engine is shut down the error
// ends the console the session belongs to.
func (s *Session) EvalChunk(readline func() ([]byte, error)) error {
	f, err := macro.FileOptions.ParseCompoundStmt(s.name, readline)
	if err != nil {
		return err
	}
	if !s.engine.IsInit() {
		return console.Stop(ErrShutdown)
	}

	s.engine.access.Lock()
	defer s.engine.access.Unlock()

	if expr := soleExpr(f); expr != nil {
		v, err := starlark.EvalExprOptions(f.Options, s.thread, expr, s.globals)
		if err != nil {
			return err
		}
		if v != starlark.None {
			_, _ = fmt.Fprintln(s.out, v)
		}
		return nil
	}
	return starlark.ExecREPLChunk(f, s.thread, s.globals)
}

// Eval runs src one chunk at a time, as if it were typed into a console.
// A compound statement followed by more code must end with a blank line;
// at the end of src one is supplied.
func (s *Session) Eval(src string) error {
	lines := bytes.SplitAfter([]byte(src), []byte("\n"))
	lines = append(lines, []byte("\n"))

	pending := func() bool {
		for _, line := range lines {
			if len(bytes.TrimSpace(line)) > 0 {
				return true
			}
		}
		return false
	}
	readline := func() ([]byte, error) {
		if len(lines) == 0 {
			return nil, io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		if !bytes.HasSuffix(line, []byte("\n")) {
			line = append(bytes.Clone(line), '\n')
		}
		return line, nil
	}

	for pending() {
		if err := s.EvalChunk(readline); err != nil {
			return err
		}
	}
	return nil
}

func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) == 1 {
		if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
			return stmt.X
		}
	}
	return nil
}

// ExecFile runs a Starlark file with a fresh copy of the globals under the
// host lock and returns the bindings it made. It must not be called by the
// host while it holds Lock.
func (e *Engine) ExecFile(path string, src any) (starlark.StringDict, error) {
	globals, err := e.Globals()
	if err != nil {
		return nil, err
	}

	e.access.Lock()
	defer e.access.Unlock()

	thread := newThread(path, e.out)
	result, err := starlark.ExecFileOptions(macro.FileOptions, thread, path, src, globals)
	if err != nil {
		return nil, &EvalError{File: path, Err: err}
	}
	return result, nil
}

// newThread creates a Starlark thread whose print() writes to out.
func newThread(name string, out io.Writer) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			_, _ = fmt.Fprintln(out, msg)
		},
	}
}

// EvalError reports a failure while running a script file.
type EvalError struct {
	File string
	Err  error
}

func (e *EvalError) Error() string {
	var evalErr *starlark.EvalError
	if errors.As(e.Err, &evalErr) {
		return fmt.Sprintf("%s: %s", e.File, evalErr.Backtrace())
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

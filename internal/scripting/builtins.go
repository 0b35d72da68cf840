package scripting

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/drnsf/drnsf/pkg/res"
	"github.com/drnsf/drnsf/pkg/walk"
	"go.starlark.net/starlark"
)

// BuiltinNames lists the globals every script sees. Startup script
// namespaces may not reuse them.
var BuiltinNames = []string{
	"P",
	"eachatom",
	"pushproject",
	"popproject",
	"with_project",
	"projects",
}

// errNoProject is returned by popproject on an empty stack.
var errNoProject = errors.New("no current project")

var errScopeChanged = errors.New("project stack changed inside scope")

// Predeclared returns the builtin globals bound to e.
func (e *Engine) Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"P":            starlark.NewBuiltin("P", e.builtinP),
		"eachatom":     starlark.NewBuiltin("eachatom", e.builtinEachAtom),
		"pushproject":  starlark.NewBuiltin("pushproject", e.builtinPushProject),
		"popproject":   starlark.NewBuiltin("popproject", e.builtinPopProject),
		"with_project": starlark.NewBuiltin("with_project", e.builtinWithProject),
		"projects":     starlark.NewBuiltin("projects", e.builtinProjects),
	}
}

// P() returns the current project or None.
func (e *Engine) builtinP(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	p, ok := e.stack.Current()
	if !ok {
		return starlark.None, nil
	}
	return NewProject(p), nil
}

// eachatom() yields every atom of the current project, or nothing.
func (e *Engine) builtinEachAtom(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	var seq iter.Seq[*res.Atom] = walk.CurrentAtoms[*res.Atom, *res.Project](e.stack)
	return &AtomSeq{name: "eachatom", seq: seq}, nil
}

func (e *Engine) builtinPushProject(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var p *Project
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &p); err != nil {
		return nil, err
	}
	e.stack.Push(p.project)
	return starlark.None, nil
}

// popproject() on an empty stack is a script error rather than a panic so
// that a mistake typed into the console does not bring the host down.
func (e *Engine) builtinPopProject(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	p, ok := e.stack.TryPop()
	if !ok {
		return nil, fmt.Errorf("%s: %w", b.Name(), errNoProject)
	}
	return NewProject(p), nil
}

// with_project(p, fn) calls fn() with p current and returns its result.
// The project is popped however fn finishes. If fn leaves the stack
// unbalanced nothing is popped and the call fails.
func (e *Engine) builtinWithProject(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		p  *Project
		fn starlark.Callable
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "project", &p, "fn", &fn); err != nil {
		return nil, err
	}

	depth := e.stack.Depth()
	e.stack.Push(p.project)
	result, err := starlark.Call(thread, fn, nil, nil)

	top, ok := e.stack.Current()
	if !ok || top != p.project || e.stack.Depth() != depth+1 {
		return nil, fmt.Errorf("%s: %w", b.Name(), errScopeChanged)
	}
	e.stack.Pop()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// projects() returns a new dict of the registered projects by name.
func (e *Engine) builtinProjects(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}

	all := e.Projects()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	dict := starlark.NewDict(len(names))
	for _, name := range names {
		if err := dict.SetKey(starlark.String(name), NewProject(all[name])); err != nil {
			return nil, fmt.Errorf("projects: %w", err)
		}
	}
	return dict, nil
}

package scripting

import (
	"fmt"
	"iter"
	"sort"

	"github.com/drnsf/drnsf/pkg/res"
	"github.com/drnsf/drnsf/pkg/walk"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Atom exposes a *res.Atom to Starlark.
// Two Atom values are equal when they wrap the same node.
type Atom struct {
	atom *res.Atom
}

var (
	_ starlark.HasAttrs   = (*Atom)(nil)
	_ starlark.Comparable = (*Atom)(nil)
)

// NewAtom wraps a for use in Starlark.
func NewAtom(a *res.Atom) *Atom { return &Atom{atom: a} }

// Unwrap returns the underlying atom.
func (v *Atom) Unwrap() *res.Atom { return v.atom }

func (v *Atom) String() string        { return fmt.Sprintf("<atom %s>", v.atom) }
func (v *Atom) Type() string          { return "Atom" }
func (v *Atom) Freeze()               {}
func (v *Atom) Truth() starlark.Bool  { return starlark.True }
func (v *Atom) Hash() (uint32, error) { return starlark.String(v.atom.String()).Hash() }

func (v *Atom) CompareSameType(op syntax.Token, y starlark.Value, _ int) (bool, error) {
	other := y.(*Atom)
	switch op {
	case syntax.EQL:
		return v.atom == other.atom, nil
	case syntax.NEQ:
		return v.atom != other.atom, nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", v.Type(), op, y.Type())
	}
}

var atomMethods = map[string]func(*Atom) *starlark.Builtin{
	"firstchild": func(v *Atom) *starlark.Builtin {
		return starlark.NewBuiltin("firstchild", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			return optAtom(v.atom.FirstChild()), nil
		})
	},
	"nextsibling": func(v *Atom) *starlark.Builtin {
		return starlark.NewBuiltin("nextsibling", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			return optAtom(v.atom.NextSibling()), nil
		})
	},
	"child": func(v *Atom) *starlark.Builtin {
		return starlark.NewBuiltin("child", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
				return nil, err
			}
			c, err := v.atom.Child(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			return NewAtom(c), nil
		})
	},
	"lookup": func(v *Atom) *starlark.Builtin {
		return starlark.NewBuiltin("lookup", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var path string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &path); err != nil {
				return nil, err
			}
			c, err := v.atom.Lookup(path)
			if err != nil {
				return starlark.None, nil //nolint:nilerr // a missing atom is None in scripts
			}
			return NewAtom(c), nil
		})
	},
	"eachchild": func(v *Atom) *starlark.Builtin {
		return seqMethod("eachchild", func() iter.Seq[*res.Atom] { return walk.Children(v.atom) })
	},
	"eachdescendant": func(v *Atom) *starlark.Builtin {
		return seqMethod("eachdescendant", func() iter.Seq[*res.Atom] { return walk.Descendants(v.atom) })
	},
	"eachatom": func(v *Atom) *starlark.Builtin {
		return seqMethod("eachatom", func() iter.Seq[*res.Atom] { return walk.Atoms(v.atom) })
	},
}

func (v *Atom) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(v.atom.Name()), nil
	case "path":
		return starlark.String(v.atom.FullPath()), nil
	case "kind":
		return starlark.String(v.atom.Kind()), nil
	case "parent":
		return optAtom(v.atom.Parent()), nil
	case "project":
		return NewProject(v.atom.Project()), nil
	}
	if m, ok := atomMethods[name]; ok {
		return m(v), nil
	}
	return nil, nil
}

func (v *Atom) AttrNames() []string {
	names := []string{"name", "path", "kind", "parent", "project"}
	for name := range atomMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func optAtom(a *res.Atom, ok bool) starlark.Value {
	if !ok {
		return starlark.None
	}
	return NewAtom(a)
}

// Project exposes a *res.Project to Starlark.
type Project struct {
	project *res.Project
}

var (
	_ starlark.HasAttrs   = (*Project)(nil)
	_ starlark.Comparable = (*Project)(nil)
)

// NewProject wraps p for use in Starlark.
func NewProject(p *res.Project) *Project { return &Project{project: p} }

// Unwrap returns the underlying project.
func (v *Project) Unwrap() *res.Project { return v.project }

func (v *Project) String() string        { return fmt.Sprintf("<project %s>", v.project.Name) }
func (v *Project) Type() string          { return "Project" }
func (v *Project) Freeze()               {}
func (v *Project) Truth() starlark.Bool  { return starlark.True }
func (v *Project) Hash() (uint32, error) { return starlark.String(v.project.Name).Hash() }

func (v *Project) CompareSameType(op syntax.Token, y starlark.Value, _ int) (bool, error) {
	other := y.(*Project)
	switch op {
	case syntax.EQL:
		return v.project == other.project, nil
	case syntax.NEQ:
		return v.project != other.project, nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", v.Type(), op, y.Type())
	}
}

func (v *Project) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(v.project.Name), nil
	case "root":
		return NewAtom(v.project.Root()), nil
	case "eachatom":
		return seqMethod("eachatom", func() iter.Seq[*res.Atom] {
			return walk.ProjectAtoms[*res.Atom](v.project)
		}), nil
	}
	return nil, nil
}

func (v *Project) AttrNames() []string {
	return []string{"eachatom", "name", "root"}
}

// AtomSeq is a lazy, re-iterable sequence of atoms. Each for loop over it
// starts a fresh traversal.
type AtomSeq struct {
	name string
	seq  iter.Seq[*res.Atom]
}

var _ starlark.Iterable = (*AtomSeq)(nil)

func (s *AtomSeq) String() string        { return fmt.Sprintf("<%s>", s.name) }
func (s *AtomSeq) Type() string          { return "atom_sequence" }
func (s *AtomSeq) Freeze()               {}
func (s *AtomSeq) Truth() starlark.Bool  { return starlark.True }
func (s *AtomSeq) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", s.Type()) }

func (s *AtomSeq) Iterate() starlark.Iterator {
	next, stop := iter.Pull(s.seq)
	return &atomIterator{next: next, stop: stop}
}

type atomIterator struct {
	next func() (*res.Atom, bool)
	stop func()
}

func (it *atomIterator) Next(p *starlark.Value) bool {
	a, ok := it.next()
	if !ok {
		return false
	}
	*p = NewAtom(a)
	return true
}

func (it *atomIterator) Done() { it.stop() }

// seqMethod builds a zero-argument builtin returning an AtomSeq.
func seqMethod(name string, seq func() iter.Seq[*res.Atom]) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
			return nil, err
		}
		return &AtomSeq{name: name, seq: seq()}, nil
	})
}

// Package res is an in-memory atom tree that satisfies the capability
// interfaces of package walk.
//
// Atoms are named nodes. Children are kept as a singly linked sibling chain
// in creation order, which is the order every traversal reports. The tree
// does no locking of its own: callers that share a project between the host
// goroutine and the scripting console must serialise mutation through the
// scripting engine's host lock.
package res

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/drnsf/drnsf/pkg/walk"
)

var (
	// ErrNotFound is returned by Lookup when a path segment does not exist.
	ErrNotFound = errors.New("atom not found")

	// ErrInvalidName is returned for empty names or names containing '/'.
	ErrInvalidName = errors.New("invalid atom name")
)

// Atom is a node of a project's tree.
type Atom struct {
	name    string
	kind    string
	project *Project
	parent  *Atom
	first   *Atom
	last    *Atom
	next    *Atom
}

// Project owns exactly one atom tree.
type Project struct {
	Name string
	root *Atom
}

// NewProject returns a project with an empty root atom.
func NewProject(name string) *Project {
	p := &Project{Name: name}
	p.root = &Atom{project: p}
	return p
}

// Root returns the project's root atom.
func (p *Project) Root() *Atom {
	return p.root
}

// Atoms yields every atom of the project in pre-order, root first.
func (p *Project) Atoms() iter.Seq[*Atom] {
	return walk.ProjectAtoms[*Atom](p)
}

// Len returns the number of atoms in the project, including the root.
func (p *Project) Len() int {
	return walk.Count(p.Atoms())
}

// Replace moves the tree of other into p. Values that refer to p stay
// valid and see the new tree; other is left with an empty root. The caller
// must hold whatever lock protects p.
func (p *Project) Replace(other *Project) {
	if other == p {
		return
	}
	p.root = other.root
	for a := range walk.ProjectAtoms[*Atom](p) {
		a.project = p
	}
	other.root = &Atom{project: other}
}

func (p *Project) String() string {
	return fmt.Sprintf("project(%s)", p.Name)
}

// Name returns the atom's name. The root atom has an empty name.
func (a *Atom) Name() string { return a.name }

// Kind returns the asset type tag, if any.
func (a *Atom) Kind() string { return a.kind }

// SetKind tags the atom with an asset type.
func (a *Atom) SetKind(kind string) { a.kind = kind }

// Project returns the owning project.
func (a *Atom) Project() *Project { return a.project }

// IsRoot reports whether a is its project's root.
func (a *Atom) IsRoot() bool { return a.parent == nil }

// Parent returns the parent atom; the root has none.
func (a *Atom) Parent() (*Atom, bool) {
	return a.parent, a.parent != nil
}

// FirstChild returns the first child in creation order.
func (a *Atom) FirstChild() (*Atom, bool) {
	return a.first, a.first != nil
}

// NextSibling returns the next atom under the same parent.
func (a *Atom) NextSibling() (*Atom, bool) {
	return a.next, a.next != nil
}

// FullPath returns the slash separated path from the root. The root's path
// is empty and a top-level atom named "x" has the path "/x".
func (a *Atom) FullPath() string {
	if a.parent == nil {
		return ""
	}
	return a.parent.FullPath() + "/" + a.name
}

func (a *Atom) String() string {
	if a.parent == nil {
		return "/"
	}
	return a.FullPath()
}

// find returns the direct child called name.
func (a *Atom) find(name string) *Atom {
	for c := range walk.Children(a) {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Child returns the direct child called name, creating it at the end of
// the sibling chain if it does not exist yet.
func (a *Atom) Child(name string) (*Atom, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if c := a.find(name); c != nil {
		return c, nil
	}

	c := &Atom{name: name, project: a.project, parent: a}
	if a.last == nil {
		a.first = c
	} else {
		a.last.next = c
	}
	a.last = c
	return c, nil
}

// Lookup resolves a slash separated path relative to a without creating
// anything. A leading slash resolves from the project root. The empty path
// is a itself.
func (a *Atom) Lookup(path string) (*Atom, error) {
	cur := a
	if strings.HasPrefix(path, "/") {
		cur = a.project.root
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		next := cur.find(seg)
		if next == nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, cur.FullPath(), seg)
		}
		cur = next
	}
	return cur, nil
}

// Children returns the direct children of a.
func (a *Atom) Children() []*Atom {
	return slices.Collect(walk.Children(a))
}

// ChildrenRecursive returns every atom below a in pre-order.
func (a *Atom) ChildrenRecursive() []*Atom {
	return slices.Collect(walk.Descendants(a))
}

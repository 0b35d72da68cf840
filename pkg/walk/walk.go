// Package walk provides lazy pre-order traversal over a first-child /
// next-sibling linked tree.
//
// The package knows nothing about how nodes are stored. A host type only has
// to expose FirstChild and NextSibling (see Node); projects expose Root. All
// sequences are iter.Seq values: nothing is visited until the caller ranges
// over them, each range restarts from scratch, and breaking out early stops
// the walk without touching the remaining nodes.
//
// No cycle detection is performed. A host graph that links back onto itself
// makes Descendants and Atoms run forever.
package walk

import "iter"

// Node is the capability set a tree node must provide.
// A false second result means there is no such node.
type Node[A any] interface {
	FirstChild() (A, bool)
	NextSibling() (A, bool)
}

// Rooted is implemented by owners of a tree, such as a project.
type Rooted[A any] interface {
	Root() A
}

// Resolver looks up the active project. A false result means that no
// project is active, which is a normal outcome.
type Resolver[P any] interface {
	Current() (P, bool)
}

// Children yields the direct children of n from left to right.
// The node itself is never yielded.
func Children[A Node[A]](n A) iter.Seq[A] {
	return func(yield func(A) bool) {
		c, ok := n.FirstChild()
		for ok {
			if !yield(c) {
				return
			}
			c, ok = c.NextSibling()
		}
	}
}

// Descendants yields every node below n in pre-order, excluding n.
func Descendants[A Node[A]](n A) iter.Seq[A] {
	return func(yield func(A) bool) {
		descend(n, yield)
	}
}

// descend reports whether the consumer still wants more nodes.
func descend[A Node[A]](n A, yield func(A) bool) bool {
	for c := range Children(n) {
		if !yield(c) {
			return false
		}
		if !descend(c, yield) {
			return false
		}
	}
	return true
}

// Atoms yields n followed by Descendants(n).
func Atoms[A Node[A]](n A) iter.Seq[A] {
	return func(yield func(A) bool) {
		if !yield(n) {
			return
		}
		descend(n, yield)
	}
}

// ProjectAtoms yields every atom of p in pre-order, root first.
func ProjectAtoms[A Node[A]](p Rooted[A]) iter.Seq[A] {
	return func(yield func(A) bool) {
		for a := range Atoms(p.Root()) {
			if !yield(a) {
				return
			}
		}
	}
}

// CurrentAtoms yields every atom of the project r reports as current.
// The lookup happens when iteration starts; with no current project the
// sequence is empty.
func CurrentAtoms[A Node[A], P Rooted[A]](r Resolver[P]) iter.Seq[A] {
	return func(yield func(A) bool) {
		p, ok := r.Current()
		if !ok {
			return
		}
		for a := range ProjectAtoms[A](p) {
			if !yield(a) {
				return
			}
		}
	}
}

// Count consumes seq and returns the number of elements it produced.
func Count[A any](seq iter.Seq[A]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

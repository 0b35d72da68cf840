package res

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/drnsf/drnsf/pkg/walk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(atoms []*Atom) []string {
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.String()
	}
	return out
}

func mustChild(t *testing.T, a *Atom, name string) *Atom {
	t.Helper()
	c, err := a.Child(name)
	require.NoError(t, err)
	return c
}

func TestAtom_ChildCreatesInOrder(t *testing.T) {
	p := NewProject("demo")
	root := p.Root()

	b := mustChild(t, root, "b")
	mustChild(t, root, "a")
	mustChild(t, root, "c")

	assert.Equal(t, []string{"/b", "/a", "/c"}, paths(root.Children()))

	again := mustChild(t, root, "b")
	assert.Same(t, b, again, "Child returns the existing atom")
	assert.Len(t, root.Children(), 3)
}

func TestAtom_ChildInvalidName(t *testing.T) {
	root := NewProject("demo").Root()

	for _, name := range []string{"", "a/b", "/"} {
		_, err := root.Child(name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestAtom_Paths(t *testing.T) {
	p := NewProject("demo")
	root := p.Root()
	zone := mustChild(t, mustChild(t, root, "levels"), "n_sanity")

	assert.Equal(t, "", root.FullPath())
	assert.Equal(t, "/", root.String())
	assert.Equal(t, "/levels/n_sanity", zone.FullPath())
	assert.Equal(t, "n_sanity", zone.Name())
	assert.True(t, root.IsRoot())
	assert.False(t, zone.IsRoot())
	assert.Same(t, p, zone.Project())

	parent, ok := zone.Parent()
	require.True(t, ok)
	assert.Equal(t, "levels", parent.Name())

	_, ok = root.Parent()
	assert.False(t, ok)
}

func TestAtom_Lookup(t *testing.T) {
	p := NewProject("demo")
	levels := mustChild(t, p.Root(), "levels")
	zone := mustChild(t, levels, "n_sanity")

	tests := []struct {
		name    string
		from    *Atom
		path    string
		want    *Atom
		wantErr bool
	}{
		{name: "empty is self", from: levels, path: "", want: levels},
		{name: "relative", from: levels, path: "n_sanity", want: zone},
		{name: "absolute from child", from: zone, path: "/levels", want: levels},
		{name: "double slash", from: p.Root(), path: "levels//n_sanity", want: zone},
		{name: "missing", from: p.Root(), path: "/levels/nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Lookup(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}

	assert.Equal(t, 3, p.Len(), "Lookup never creates atoms")
}

func TestAtom_ChildrenRecursive(t *testing.T) {
	p := NewProject("demo")
	a := p.Root()
	b := mustChild(t, a, "B")
	mustChild(t, a, "C")
	mustChild(t, b, "D")

	assert.Equal(t, []string{"/B", "/B/D", "/C"}, paths(a.ChildrenRecursive()))
	assert.Equal(t, []string{"/", "/B", "/B/D", "/C"}, paths(collect(p)))
	assert.Equal(t, 4, p.Len())
}

func collect(p *Project) []*Atom {
	var out []*Atom
	for a := range walk.ProjectAtoms[*Atom](p) {
		out = append(out, a)
	}
	return out
}

const sampleProject = `
name: crash1
atoms:
  - name: levels
    children:
      - name: n_sanity
        kind: zone
        children:
          - name: entities
      - name: turtle_woods
        kind: zone
  - name: sounds
`

func TestParseProject(t *testing.T) {
	p, err := ParseProject("crash1.yaml", []byte(sampleProject))
	require.NoError(t, err)

	assert.Equal(t, "crash1", p.Name)
	assert.Equal(t, []string{
		"/",
		"/levels",
		"/levels/n_sanity",
		"/levels/n_sanity/entities",
		"/levels/turtle_woods",
		"/sounds",
	}, paths(collect(p)))

	zone, err := p.Root().Lookup("/levels/n_sanity")
	require.NoError(t, err)
	assert.Equal(t, "zone", zone.Kind())
}

func TestParseProject_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "atoms: [\n"},
		{name: "empty atom name", content: "atoms:\n  - kind: zone\n"},
		{name: "slash in name", content: "atoms:\n  - name: a/b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProject("bad.yaml", []byte(tt.content))
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "bad.yaml", perr.File)
		})
	}
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warped.yaml")
	require.NoError(t, os.WriteFile(path, []byte("atoms:\n  - name: a\n"), 0644))

	p, err := LoadProjectFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warped", p.Name, "name defaults to the file name")
	assert.Equal(t, 2, p.Len())

	_, err = LoadProjectFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalProject_RoundTrip(t *testing.T) {
	p, err := ParseProject("crash1.yaml", []byte(sampleProject))
	require.NoError(t, err)

	data, err := MarshalProject(p)
	require.NoError(t, err)

	again, err := ParseProject("again.yaml", data)
	require.NoError(t, err)
	assert.Equal(t, paths(collect(p)), paths(collect(again)))
}

func TestProject_Replace(t *testing.T) {
	p := NewProject("demo")
	mustChild(t, p.Root(), "old")

	next := NewProject("reloaded")
	zone := mustChild(t, mustChild(t, next.Root(), "levels"), "zone1")

	p.Replace(next)

	assert.Equal(t, []string{"/", "/levels", "/levels/zone1"}, paths(slices.Collect(p.Atoms())))
	assert.Same(t, p, zone.Project(), "moved atoms belong to the receiving project")
	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, 1, next.Len(), "the source project is left with an empty root")

	p.Replace(p)
	assert.Equal(t, 3, p.Len())
}

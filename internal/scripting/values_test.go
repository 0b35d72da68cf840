package scripting

import (
	"testing"

	"github.com/drnsf/drnsf/pkg/res"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestAtom_Attributes(t *testing.T) {
	e, sess, out := newSession(t)
	defer e.Enter(demoProject(t)).Exit()

	tests := []struct {
		expr string
		want string
	}{
		{`P().root.path`, `""`},
		{`P().root.parent`, ``},
		{`P().root.lookup("/levels/n_sanity").name`, `"n_sanity"`},
		{`P().root.lookup("/levels/n_sanity").kind`, `"zone"`},
		{`P().root.lookup("/levels/n_sanity").path`, `"/levels/n_sanity"`},
		{`P().root.lookup("/levels/n_sanity").parent.path`, `"/levels"`},
		{`P().root.lookup("levels").project == P()`, `True`},
		{`P().root.firstchild().name`, `"levels"`},
		{`P().root.firstchild().nextsibling().name`, `"sounds"`},
		{`P().root.lookup("sounds").nextsibling()`, ``},
		{`P().root.lookup("sounds").firstchild()`, ``},
		{`P().root.lookup("nope")`, ``},
		{`str(P().root.lookup("levels"))`, `"<atom /levels>"`},
		{`type(P().root)`, `"Atom"`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			out.Reset()
			require.NoError(t, sess.Eval(tt.expr))
			want := tt.want
			if want != "" {
				want += "\n"
			}
			assert.Equal(t, want, out.String())
		})
	}
}

func TestAtom_Child(t *testing.T) {
	p := res.NewProject("demo")
	e, sess, out := newSession(t)
	defer e.Enter(p).Exit()

	require.NoError(t, sess.Eval(`z = P().root.child("levels").child("zone1")`))
	require.NoError(t, sess.Eval(`z.path`))
	assert.Equal(t, "\"/levels/zone1\"\n", out.String())

	a, err := p.Root().Lookup("/levels/zone1")
	require.NoError(t, err, "child creates atoms in the host tree")
	assert.Equal(t, "zone1", a.Name())

	err = sess.Eval(`P().root.child("a/b")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid atom name")
}

func TestAtom_Identity(t *testing.T) {
	e, sess, out := newSession(t)
	defer e.Enter(demoProject(t)).Exit()

	require.NoError(t, sess.Eval(`P().root.lookup("levels") == P().root.firstchild()`))
	require.NoError(t, sess.Eval(`P().root.lookup("levels") != P().root.lookup("sounds")`))
	require.NoError(t, sess.Eval(`len({a: 1 for a in eachatom()})`))
	assert.Equal(t, "True\nTrue\n6\n", out.String())

	err := sess.Eval(`P().root < P().root`)
	require.Error(t, err)
}

func TestAtom_Traversals(t *testing.T) {
	// A -> [B, C], B -> [D]
	p := res.NewProject("scenario")
	a, _ := p.Root().Child("A")
	b, _ := a.Child("B")
	_, _ = a.Child("C")
	_, _ = b.Child("D")

	e, sess, out := newSession(t)
	defer e.Enter(p).Exit()
	require.NoError(t, sess.Eval(`A = P().root.lookup("A")`))

	tests := []struct {
		expr string
		want string
	}{
		{`[x.name for x in A.eachchild()]`, `["B", "C"]`},
		{`[x.name for x in A.eachdescendant()]`, `["B", "D", "C"]`},
		{`[x.name for x in A.eachatom()]`, `["A", "B", "D", "C"]`},
		{`[x.path for x in P().eachatom()]`, `["", "/A", "/A/B", "/A/B/D", "/A/C"]`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			out.Reset()
			require.NoError(t, sess.Eval(tt.expr))
			assert.Equal(t, tt.want+"\n", out.String())
		})
	}
}

func TestAtomSeq_Restartable(t *testing.T) {
	e, sess, out := newSession(t)
	defer e.Enter(demoProject(t)).Exit()

	require.NoError(t, sess.Eval(`
s = P().root.eachchild()
first = [a.name for a in s]
second = [a.name for a in s]
`))
	require.NoError(t, sess.Eval("first == second and len(first) == 2"))
	assert.Equal(t, "True\n", out.String())
}

func TestAtomSeq_EarlyBreak(t *testing.T) {
	e, sess, out := newSession(t)
	defer e.Enter(demoProject(t)).Exit()

	require.NoError(t, sess.Eval(`
def first_zone():
    for a in eachatom():
        if a.kind == "zone":
            return a.path
`))
	require.NoError(t, sess.Eval("first_zone()"))
	require.NoError(t, sess.Eval("first_zone()"))
	assert.Equal(t, "\"/levels/n_sanity\"\n\"/levels/n_sanity\"\n", out.String())
}

func TestAtomSeq_Unhashable(t *testing.T) {
	_, sess, _ := newSession(t)
	err := sess.Eval("{eachatom(): 1}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhashable")
}

func TestProject_Value(t *testing.T) {
	p := demoProject(t)
	v := NewProject(p)

	assert.Same(t, p, v.Unwrap())
	assert.Equal(t, "<project crash1>", v.String())
	assert.Equal(t, []string{"eachatom", "name", "root"}, v.AttrNames())

	root, err := v.Attr("root")
	require.NoError(t, err)
	assert.Same(t, p.Root(), root.(*Atom).Unwrap())

	missing, err := v.Attr("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	eq, err := starlark.Equal(v, NewProject(p))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestAtom_AttrNames(t *testing.T) {
	v := NewAtom(res.NewProject("p").Root())
	assert.Equal(t, []string{
		"child", "eachatom", "eachchild", "eachdescendant", "firstchild",
		"kind", "lookup", "name", "nextsibling", "parent", "path", "project",
	}, v.AttrNames())
}

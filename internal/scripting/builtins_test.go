package scripting

import (
	"testing"

	"github.com/drnsf/drnsf/pkg/res"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinP(t *testing.T) {
	e, sess, out := newSession(t)

	require.NoError(t, sess.Eval("P() == None"))
	assert.Equal(t, "True\n", out.String())

	out.Reset()
	p := demoProject(t)
	defer e.Enter(p).Exit()
	require.NoError(t, sess.Eval("P().name"))
	assert.Equal(t, "\"crash1\"\n", out.String())
}

func TestBuiltinEachAtom_NoProject(t *testing.T) {
	_, sess, out := newSession(t)

	require.NoError(t, sess.Eval("list(eachatom())"))
	assert.Equal(t, "[]\n", out.String(), "no current project is an empty sequence, not an error")
}

func TestBuiltinEachAtom(t *testing.T) {
	e, sess, out := newSession(t)
	defer e.Enter(demoProject(t)).Exit()

	require.NoError(t, sess.Eval("[a.path for a in eachatom()]"))
	assert.Equal(t,
		`["", "/levels", "/levels/n_sanity", "/levels/n_sanity/entities", "/levels/turtle_woods", "/sounds"]`+"\n",
		out.String())
}

func TestBuiltinEachAtom_FollowsCurrentProject(t *testing.T) {
	e, sess, out := newSession(t)
	require.NoError(t, sess.Eval("atoms = eachatom()"))

	p := res.NewProject("tiny")
	_, err := p.Root().Child("only")
	require.NoError(t, err)

	defer e.Enter(p).Exit()
	require.NoError(t, sess.Eval("len(list(atoms))"))
	assert.Equal(t, "2\n", out.String(), "the current project is resolved when iteration starts")
}

func TestBuiltinPushPopProject(t *testing.T) {
	e, sess, out := newSession(t, WithProjects(demoProject(t), res.NewProject("crash2")))

	require.NoError(t, sess.Eval(`pushproject(projects()["crash1"])`))
	require.NoError(t, sess.Eval(`pushproject(projects()["crash2"])`))
	assert.Equal(t, 2, e.Stack().Depth())

	require.NoError(t, sess.Eval("popproject().name"))
	require.NoError(t, sess.Eval("P().name"))
	assert.Equal(t, "\"crash2\"\n\"crash1\"\n", out.String())

	require.NoError(t, sess.Eval("popproject()"))
	assert.Equal(t, 0, e.Stack().Depth())
}

func TestBuiltinPopProject_Empty(t *testing.T) {
	e, sess, _ := newSession(t)

	err := sess.Eval("popproject()")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no current project")
	assert.Equal(t, 0, e.Stack().Depth())
}

func TestBuiltinPushProject_BadArgument(t *testing.T) {
	_, sess, _ := newSession(t)

	err := sess.Eval(`pushproject("crash1")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pushproject")
}

func TestBuiltinWithProject(t *testing.T) {
	p := demoProject(t)
	e, sess, out := newSession(t, WithProjects(p))

	require.NoError(t, sess.Eval(`
def count():
    return len(list(eachatom()))
`))
	require.NoError(t, sess.Eval(`with_project(projects()["crash1"], count)`))
	assert.Equal(t, "6\n", out.String())
	assert.Equal(t, 0, e.Stack().Depth(), "the project is popped after the call")
}

func TestBuiltinWithProject_Nested(t *testing.T) {
	outer, inner := res.NewProject("outer"), res.NewProject("inner")
	_, sess, out := newSession(t, WithProjects(outer, inner))

	require.NoError(t, sess.Eval(`
def names():
    ps = projects()
    seen = []
    def in_inner():
        seen.append(P().name)
    def in_outer():
        seen.append(P().name)
        with_project(ps["inner"], in_inner)
        seen.append(P().name)
    with_project(ps["outer"], in_outer)
    seen.append(P())
    return seen
`))
	require.NoError(t, sess.Eval("names()"))
	assert.Equal(t, "[\"outer\", \"inner\", \"outer\", None]\n", out.String())
}

func TestBuiltinWithProject_ErrorPopsAndPropagates(t *testing.T) {
	e, sess, _ := newSession(t, WithProjects(demoProject(t)))

	require.NoError(t, sess.Eval(`
def boom():
    fail("inside scope")
`))
	err := sess.Eval(`with_project(projects()["crash1"], boom)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inside scope")
	assert.Equal(t, 0, e.Stack().Depth(), "the stack returns to its depth before the call")
}

func TestBuiltinWithProject_UnbalancedBody(t *testing.T) {
	tests := []struct {
		name      string
		host      bool
		body      string
		wantDepth int
	}{
		{name: "pop on empty stack", body: "lambda: popproject()", wantDepth: 0},
		{name: "pop of host project", host: true, body: "lambda: popproject()", wantDepth: 1},
		{name: "push left behind", body: `lambda: pushproject(projects()["crash2"])`, wantDepth: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, other := demoProject(t), res.NewProject("crash2")
			e, sess, _ := newSession(t, WithProjects(host, other))
			if tt.host {
				e.Stack().Push(host)
			}

			var err error
			require.NotPanics(t, func() {
				err = sess.Eval(`with_project(projects()["crash1"], ` + tt.body + `)`)
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "with_project: project stack changed inside scope")
			assert.Equal(t, tt.wantDepth, e.Stack().Depth())

			if tt.host {
				cur, ok := e.Current()
				require.True(t, ok)
				assert.Same(t, host, cur, "the host project stays current")
			}
		})
	}
}

func TestBuiltinProjects(t *testing.T) {
	_, sess, out := newSession(t, WithProjects(res.NewProject("b"), res.NewProject("a")))

	require.NoError(t, sess.Eval("list(projects().keys())"))
	assert.Equal(t, "[\"a\", \"b\"]\n", out.String())

	out.Reset()
	require.NoError(t, sess.Eval(`d = projects()`))
	require.NoError(t, sess.Eval(`d["c"] = 1`))
	require.NoError(t, sess.Eval("len(projects())"))
	assert.Equal(t, "2\n", out.String(), "each call returns a new dict")
}

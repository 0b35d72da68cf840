package scripting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// newSession returns a session on a fresh engine and the buffer it
// prints to.
func newSession(t *testing.T, opts ...Option) (*Engine, *Session, *bytes.Buffer) {
	t.Helper()
	e := newEngine(t, opts...)
	var out bytes.Buffer
	sess, err := e.NewSession("test", &out)
	require.NoError(t, err)
	return e, sess, &out
}

func TestSession_Eval(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "expression is printed", src: "1 + 2", want: "3\n"},
		{name: "None is not printed", src: "None", want: ""},
		{name: "statement prints nothing", src: "x = 1", want: ""},
		{name: "print goes to the session", src: `print("hi")`, want: "hi\n"},
		{name: "compound statement", src: "for i in range(2):\n    print(i)\n", want: "0\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sess, out := newSession(t)
			require.NoError(t, sess.Eval(tt.src))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestSession_BindingsPersist(t *testing.T) {
	_, sess, out := newSession(t)

	require.NoError(t, sess.Eval("def double(n):\n    return n * 2\n"))
	require.NoError(t, sess.Eval("x = double(21)"))
	require.NoError(t, sess.Eval("x"))
	assert.Equal(t, "42\n", out.String())

	v, ok := sess.Global("x")
	require.True(t, ok)
	assert.Equal(t, starlark.MakeInt(42), v)
	assert.Contains(t, sess.Names(), "double")
	assert.Contains(t, sess.Names(), "P")
}

func TestSession_Isolated(t *testing.T) {
	e, sess, _ := newSession(t)
	require.NoError(t, sess.Eval("x = 1"))

	other, err := e.NewSession("other", nil)
	require.NoError(t, err)
	_, ok := other.Global("x")
	assert.False(t, ok, "sessions do not share bindings")
}

func TestSession_Errors(t *testing.T) {
	_, sess, _ := newSession(t)

	err := sess.Eval("undefined_name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined: undefined_name")

	err = sess.Eval("1 // 0")
	require.Error(t, err)
	var evalErr *starlark.EvalError
	assert.ErrorAs(t, err, &evalErr)

	err = sess.Eval("x = (")
	require.Error(t, err)
	var syntaxErr syntax.Error
	assert.ErrorAs(t, err, &syntaxErr)

	require.NoError(t, sess.Eval("1"), "the session survives errors")
}

func TestSession_AfterShutdown(t *testing.T) {
	e, sess, _ := newSession(t)
	e.Shutdown()

	err := sess.Eval("1")
	assert.ErrorIs(t, err, ErrShutdown)

	_, err = e.NewSession("late", nil)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestEngine_ExecFile(t *testing.T) {
	p := demoProject(t)
	var out bytes.Buffer
	e := newEngine(t, WithOutput(&out, nil))
	defer e.Enter(p).Exit()

	path := filepath.Join(t.TempDir(), "count.star")
	require.NoError(t, os.WriteFile(path, []byte(`
zones = [a.path for a in eachatom() if a.kind == "zone"]
print(len(zones))
`), 0644))

	globals, err := e.ExecFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out.String())

	zones, ok := globals["zones"].(*starlark.List)
	require.True(t, ok)
	assert.Equal(t, 2, zones.Len())
	assert.Equal(t, starlark.String("/levels/n_sanity"), zones.Index(0))
}

func TestEngine_ExecFileError(t *testing.T) {
	e := newEngine(t)

	_, err := e.ExecFile("fail.star", "def f():\n    fail(\"boom\")\nf()\n")
	require.Error(t, err)

	var execErr *EvalError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "fail.star", execErr.File)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "Traceback", "starlark errors carry their backtrace")

	var evalErr *starlark.EvalError
	assert.ErrorAs(t, err, &evalErr)
}

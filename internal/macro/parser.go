package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/syntax"
)

// FuncInfo is a public function of a startup script as written in its
// source.
type FuncInfo struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Doc    string   `json:"doc,omitempty"`
}

// Signature returns the function as it would be written in a call, with
// defaults, e.g. "count(kind=\"zone\")".
func (f *FuncInfo) Signature() string {
	return f.Name + "(" + strings.Join(f.Params, ", ") + ")"
}

// ScriptInfo lists the public functions of one startup script. Name is
// the namespace the script is bound to.
type ScriptInfo struct {
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Functions []*FuncInfo `json:"functions"`
}

// ParseError reports a script that could not be read or parsed.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	return "parse " + filepath.Base(e.File) + ": " + e.Message
}

// DescribeDir describes every .star file in dir, in name order, without
// executing anything. An empty dir or one without scripts yields nothing.
func DescribeDir(dir string) ([]*ScriptInfo, error) {
	if dir == "" {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scripts directory: %w", err)
	}
	sort.Strings(files)

	scripts := make([]*ScriptInfo, 0, len(files))
	for _, file := range files {
		src, err := os.ReadFile(file) //nolint:gosec // G304: path comes from a glob of the scripts directory
		if err != nil {
			return nil, &ParseError{File: file, Message: err.Error()}
		}
		info, err := DescribeScript(file, src)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, info)
	}
	return scripts, nil
}

// DescribeScript parses src and lists its top-level public functions.
// Names starting with an underscore are private.
func DescribeScript(filename string, src []byte) (*ScriptInfo, error) {
	f, err := FileOptions.Parse(filename, src, 0)
	if err != nil {
		return nil, &ParseError{File: filename, Message: err.Error()}
	}

	info := &ScriptInfo{
		Name: namespaceName(filename),
		Path: filename,
	}
	for _, stmt := range f.Stmts {
		def, ok := stmt.(*syntax.DefStmt)
		if !ok || strings.HasPrefix(def.Name.Name, "_") {
			continue
		}
		fn := &FuncInfo{Name: def.Name.Name, Doc: docString(def.Body)}
		for _, param := range def.Params {
			if s := paramString(param); s != "" {
				fn.Params = append(fn.Params, s)
			}
		}
		info.Functions = append(info.Functions, fn)
	}
	return info, nil
}

func namespaceName(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), ".star")
}

// paramString renders one def parameter: x, x=default, *args or **kwargs.
// The bare * separator renders as "*".
func paramString(param syntax.Expr) string {
	switch p := param.(type) {
	case *syntax.Ident:
		return p.Name
	case *syntax.BinaryExpr:
		if name, ok := p.X.(*syntax.Ident); ok && p.Op == syntax.EQ {
			return name.Name + "=" + defaultString(p.Y)
		}
	case *syntax.UnaryExpr:
		prefix := p.Op.String()
		if p.X == nil {
			return prefix
		}
		if name, ok := p.X.(*syntax.Ident); ok {
			return prefix + name.Name
		}
	}
	return ""
}

// defaultString renders a default value. Anything beyond a literal, a
// name or an empty container is shown as "...".
func defaultString(e syntax.Expr) string {
	switch v := e.(type) {
	case *syntax.Literal:
		return v.Raw
	case *syntax.Ident:
		return v.Name
	case *syntax.UnaryExpr:
		if v.Op == syntax.MINUS && v.X != nil {
			return "-" + defaultString(v.X)
		}
	case *syntax.ListExpr:
		if len(v.List) == 0 {
			return "[]"
		}
	case *syntax.DictExpr:
		if len(v.List) == 0 {
			return "{}"
		}
	case *syntax.TupleExpr:
		if len(v.List) == 0 {
			return "()"
		}
	}
	return "..."
}

// docString returns the leading string literal of a function body.
func docString(body []syntax.Stmt) string {
	if len(body) == 0 {
		return ""
	}
	stmt, ok := body[0].(*syntax.ExprStmt)
	if !ok {
		return ""
	}
	lit, ok := stmt.X.(*syntax.Literal)
	if !ok || lit.Token != syntax.STRING {
		return ""
	}
	s, _ := lit.Value.(string)
	return strings.TrimSpace(s)
}

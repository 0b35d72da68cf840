// Package macro loads startup scripts.
//
// Every *.star file in the scripts directory is executed once when the
// scripting engine starts. Its public bindings (names not starting with
// "_") become a namespace named after the file, so helpers defined in
// zones.star are called as zones.find(...) from the console.
package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FileOptions is the Starlark dialect of startup scripts and the console.
// Top-level loops, while, set and rebinding globals are allowed, as they are
// in an interactive session.
var FileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Loader scans a directory for .star files and executes them.
type Loader struct {
	dir         string
	predeclared starlark.StringDict
}

// NewLoader creates a loader for dir. Scripts see predeclared as globals,
// which is how they reach the engine builtins.
func NewLoader(dir string, predeclared starlark.StringDict) *Loader {
	return &Loader{dir: dir, predeclared: predeclared}
}

// LoadedModule is an executed startup script.
type LoadedModule struct {
	// Namespace is the file name without the .star suffix.
	Namespace string

	// Path is the path of the .star file.
	Path string

	// Exports holds the public bindings.
	Exports starlark.StringDict
}

// Load executes every .star file in the directory in name order.
// An empty dir or a missing directory yields no modules and no error.
func (l *Loader) Load() ([]*LoadedModule, error) {
	if l.dir == "" {
		return nil, nil
	}

	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access scripts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scripts path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scripts directory: %w", err)
	}
	sort.Strings(files)

	var modules []*LoadedModule
	for _, file := range files {
		module, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, nil
}

func (l *Loader) loadFile(path string) (*LoadedModule, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob of the scripts directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	namespace := namespaceName(path)
	if err := validateNamespace(namespace); err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	thread := &starlark.Thread{
		Name:  "load:" + namespace,
		Print: func(_ *starlark.Thread, _ string) {},
	}

	globals, err := starlark.ExecFileOptions(FileOptions, thread, path, content, l.predeclared)
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("starlark execution error: %v", err)}
	}

	exports := make(starlark.StringDict)
	for name, value := range globals {
		if !strings.HasPrefix(name, "_") {
			exports[name] = value
		}
	}

	return &LoadedModule{
		Namespace: namespace,
		Path:      path,
		Exports:   exports,
	}, nil
}

// validateNamespace checks that name is a valid Starlark identifier.
func validateNamespace(name string) error {
	if name == "" {
		return fmt.Errorf("namespace cannot be empty")
	}

	for i, r := range name {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return fmt.Errorf("namespace must start with letter or underscore: %s", name)
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return fmt.Errorf("namespace contains invalid character: %s", name)
		}
	}
	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// LoadError reports a startup script that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("scripts/%s: %s", filepath.Base(e.File), e.Message)
}

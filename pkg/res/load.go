package res

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the on-disk YAML form of a project.
type ProjectFile struct {
	Name  string     `yaml:"name"`
	Atoms []AtomSpec `yaml:"atoms"`
}

// AtomSpec describes one atom and its subtree.
type AtomSpec struct {
	Name     string     `yaml:"name"`
	Kind     string     `yaml:"kind,omitempty"`
	Children []AtomSpec `yaml:"children,omitempty"`
}

// ParseError reports a malformed project file.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// LoadProjectFile reads a YAML project file. A project without a name is
// named after the file.
func LoadProjectFile(path string) (*Project, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	p, err := ParseProject(path, content)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// ParseProject builds a project from YAML content. filename is only used
// in error messages.
func ParseProject(filename string, content []byte) (*Project, error) {
	var pf ProjectFile
	if err := yaml.Unmarshal(content, &pf); err != nil {
		return nil, &ParseError{File: filename, Message: err.Error()}
	}

	p := NewProject(pf.Name)
	for i := range pf.Atoms {
		if err := addSpec(p.Root(), &pf.Atoms[i]); err != nil {
			return nil, &ParseError{File: filename, Message: err.Error()}
		}
	}
	return p, nil
}

func addSpec(parent *Atom, spec *AtomSpec) error {
	a, err := parent.Child(spec.Name)
	if err != nil {
		return fmt.Errorf("under %q: %w", parent.String(), err)
	}
	if spec.Kind != "" {
		a.SetKind(spec.Kind)
	}
	for i := range spec.Children {
		if err := addSpec(a, &spec.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// Spec converts a's subtree back to its file form.
func (a *Atom) Spec() AtomSpec {
	s := AtomSpec{Name: a.name, Kind: a.kind}
	for _, c := range a.Children() {
		s.Children = append(s.Children, c.Spec())
	}
	return s
}

// MarshalProject encodes p in the YAML file form.
func MarshalProject(p *Project) ([]byte, error) {
	pf := ProjectFile{Name: p.Name}
	for _, c := range p.root.Children() {
		pf.Atoms = append(pf.Atoms, c.Spec())
	}
	return yaml.Marshal(&pf)
}

// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// ProjectYAML is the project written by SetupTestProject. It has seven
// atoms including the root, two of them zones.
const ProjectYAML = `name: crash1
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
    children:
      - name: music
`

// ZonesScript is the startup script written by SetupTestProject.
const ZonesScript = `def names():
    """Names of the zone atoms in the current project.

    Atoms are visited in pre-order.
    """
    return [a.name for a in eachatom() if a.kind == "zone"]

def count(kind = "zone"):
    return len([a for a in eachatom() if a.kind == kind])
`

// TestProject describes the files of a temporary project.
type TestProject struct {
	Dir        string
	Project    string
	ScriptsDir string
}

// SetupTestProject creates a temporary project file and a scripts
// directory with one startup script.
func SetupTestProject(t *testing.T) *TestProject {
	t.Helper()

	tmpDir := t.TempDir()
	tp := &TestProject{
		Dir:        tmpDir,
		Project:    filepath.Join(tmpDir, "crash1.yaml"),
		ScriptsDir: filepath.Join(tmpDir, "scripts"),
	}

	if err := os.MkdirAll(tp.ScriptsDir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", tp.ScriptsDir, err)
	}
	if err := os.WriteFile(tp.Project, []byte(ProjectYAML), 0644); err != nil {
		t.Fatalf("failed to create crash1.yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tp.ScriptsDir, "zones.star"), []byte(ZonesScript), 0644); err != nil {
		t.Fatalf("failed to create zones.star: %v", err)
	}

	return tp
}

// WriteFile writes content to name inside the project directory and
// returns its path.
func (tp *TestProject) WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(tp.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape codes from s.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// NonEmptyLines splits s into lines, dropping blank ones.
func NonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// GetTestdataDir returns the path to the testdata directory.
func GetTestdataDir(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	// Try different relative paths based on where tests are run from
	candidates := []string{
		filepath.Join(wd, "testdata"),
		filepath.Join(wd, "..", "testdata"),
		filepath.Join(wd, "..", "..", "testdata"),
		filepath.Join(wd, "..", "..", "..", "testdata"),
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	t.Fatalf("testdata directory not found, tried: %v", candidates)
	return ""
}

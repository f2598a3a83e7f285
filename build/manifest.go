// Package build is the project discovery, code-generation staging, and
// compilation orchestrator that turns a directory of annotated Go contract
// sources into deployable R55 bytecode: discover projects by manifest,
// enumerate their marked contract targets, topologically order
// deployable dependencies, stage each target into an isolated build
// unit, and drive the Go toolchain over it.
package build

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// ManifestFile is the name every contract project directory must carry.
const ManifestFile = "r55.yaml"

// Dependency describes one entry under a manifest's dependencies map.
// Deployable marks a dependency whose compiled runtime bytecode this
// project needs embedded as a guest.Deployable.
type Dependency struct {
	Deployable bool `yaml:"deployable"`
}

// Manifest is the parsed form of a project's r55.yaml.
type Manifest struct {
	Package struct {
		Name string `yaml:"name"`
	} `yaml:"package"`
	Dependencies map[string]Dependency `yaml:"dependencies"`
}

// LoadManifest reads and parses a single r55.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("build: parse %s: %w", path, err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("build: %s: missing package.name", path)
	}
	return &m, nil
}

// DeployableDeps returns the names of m's dependencies marked deployable,
// in a stable (sorted) order.
func (m *Manifest) DeployableDeps() []string {
	var out []string
	for name, dep := range m.Dependencies {
		if dep.Deployable {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

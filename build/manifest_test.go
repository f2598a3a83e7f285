package build

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestParsesPackageAndDeps(t *testing.T) {
	path := writeTempManifest(t, `
package:
  name: erc20x
dependencies:
  erc20:
    deployable: true
  helper:
    deployable: false
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Package.Name != "erc20x" {
		t.Fatalf("Package.Name = %q, want erc20x", m.Package.Name)
	}
	if len(m.Dependencies) != 2 {
		t.Fatalf("len(Dependencies) = %d, want 2", len(m.Dependencies))
	}
	if !m.Dependencies["erc20"].Deployable {
		t.Fatalf("expected erc20 dependency to be deployable")
	}
	if m.Dependencies["helper"].Deployable {
		t.Fatalf("expected helper dependency to not be deployable")
	}
}

func TestLoadManifestMissingNameIsError(t *testing.T) {
	path := writeTempManifest(t, "package:\n  name: \"\"\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("expected error for missing package.name")
	}
}

func TestLoadManifestMissingFileIsError(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing manifest file")
	}
}

func TestLoadManifestInvalidYAMLIsError(t *testing.T) {
	path := writeTempManifest(t, "package: [this is not a mapping")
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func TestDeployableDepsSortedAndFiltered(t *testing.T) {
	m := &Manifest{
		Dependencies: map[string]Dependency{
			"zeta":  {Deployable: true},
			"alpha": {Deployable: true},
			"omega": {Deployable: false},
		},
	}
	got := m.DeployableDeps()
	want := []string{"alpha", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("DeployableDeps() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DeployableDeps()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDeployableDepsEmpty(t *testing.T) {
	m := &Manifest{}
	if got := m.DeployableDeps(); got != nil {
		t.Fatalf("DeployableDeps() = %v, want nil", got)
	}
}

package build

import (
	"os"
	"path/filepath"
	"testing"
)

func mkProjectDir(t *testing.T, root, name, manifest string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
			t.Fatalf("write manifest in %s: %v", dir, err)
		}
	}
}

func TestDiscoverFindsProjectsWithManifests(t *testing.T) {
	root := t.TempDir()
	mkProjectDir(t, root, "erc20", "package:\n  name: erc20\n")
	mkProjectDir(t, root, "erc20x", "package:\n  name: erc20x\ndependencies:\n  erc20:\n    deployable: true\n")
	mkProjectDir(t, root, "scratch", "") // no manifest: not a project

	projects, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("Discover found %d projects, want 2: %+v", len(projects), projects)
	}
	names := map[string]bool{}
	for _, p := range projects {
		names[p.Name] = true
	}
	if !names["erc20"] || !names["erc20x"] {
		t.Fatalf("Discover did not find expected projects: %+v", projects)
	}
}

func TestDiscoverSkipsInvalidManifestWithoutError(t *testing.T) {
	root := t.TempDir()
	mkProjectDir(t, root, "good", "package:\n  name: good\n")
	mkProjectDir(t, root, "bad", "package:\n  name: \"\"\n")

	projects, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "good" {
		t.Fatalf("Discover = %+v, want only the good project", projects)
	}
}

func TestDiscoverIgnoresPlainFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mkProjectDir(t, root, "erc20", "package:\n  name: erc20\n")

	projects, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("Discover = %+v, want 1 project", projects)
	}
}

func TestDiscoverMissingRootIsError(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Fatalf("expected error for missing root directory")
	}
}

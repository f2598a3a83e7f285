package build

import (
	"os"
	"path/filepath"
	"testing"
)

const singleContractSrc = `package widget

//r55:contract
type Widget struct{}

func (Widget) Enabled() (bool, error) {
	return true, nil
}
`

const sharedHelperSrc = `package widget

func helper() bool { return true }
`

const secondContractSrc = `package widget

//r55:contract
type Gadget struct{}

func (Gadget) Spin() (bool, error) {
	return true, nil
}
`

func writeProjectFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestEnumerateTargetsSingleTargetUsesProjectName(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "widget.go", singleContractSrc)
	writeProjectFile(t, dir, "helper.go", sharedHelperSrc)
	writeProjectFile(t, dir, "widget_test.go", "package widget\n") // excluded as a test file

	proj := Project{Dir: dir, Name: "widget"}
	targets, err := EnumerateTargets(proj)
	if err != nil {
		t.Fatalf("EnumerateTargets: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("EnumerateTargets found %d targets, want 1: %+v", len(targets), targets)
	}
	if targets[0].GeneratedPackage != "widget" {
		t.Fatalf("GeneratedPackage = %q, want widget", targets[0].GeneratedPackage)
	}
	if targets[0].IR.StructName != "Widget" {
		t.Fatalf("StructName = %q, want Widget", targets[0].IR.StructName)
	}
}

func TestEnumerateTargetsMultipleTargetsDisambiguate(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "widget.go", singleContractSrc)
	writeProjectFile(t, dir, "gadget.go", secondContractSrc)

	proj := Project{Dir: dir, Name: "multi"}
	targets, err := EnumerateTargets(proj)
	if err != nil {
		t.Fatalf("EnumerateTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("EnumerateTargets found %d targets, want 2: %+v", len(targets), targets)
	}
	names := map[string]bool{}
	for _, tg := range targets {
		names[tg.GeneratedPackage] = true
	}
	if !names["multi-widget"] || !names["multi-gadget"] {
		t.Fatalf("unexpected generated package names: %+v", names)
	}
}

func TestEnumerateTargetsNoContractIsError(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "helper.go", sharedHelperSrc)

	proj := Project{Dir: dir, Name: "empty"}
	if _, err := EnumerateTargets(proj); err == nil {
		t.Fatalf("expected error when no //r55:contract target exists")
	}
}

func TestEnumerateTargetsPropagatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "broken.go", "package widget\n\nfunc( {\n")

	proj := Project{Dir: dir, Name: "broken"}
	if _, err := EnumerateTargets(proj); err == nil {
		t.Fatalf("expected error for unparseable source file")
	}
}

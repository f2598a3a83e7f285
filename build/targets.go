package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/r55-lang/r55/codegen"
)

// Target is one contract compilation unit: a single `//r55:contract`-
// annotated type found in a project's source tree, together with its
// parsed codegen.ContractIR.
type Target struct {
	Project          Project
	SourceFile       string
	IR               *codegen.ContractIR
	GeneratedPackage string
}

// EnumerateTargets scans a project's directory for Go source files
// carrying a `//r55:contract` marker. A single target in the project uses
// the project's own name as its generated package name; multiple targets
// disambiguate as "<project>-<file-base-name>".
func EnumerateTargets(proj Project) ([]Target, error) {
	entries, err := os.ReadDir(proj.Dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	var targets []Target
	for _, name := range files {
		path := filepath.Join(proj.Dir, name)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		ir, err := codegen.ParseFile(path, src)
		if errors.Is(err, codegen.ErrNoContractFound) {
			// Not every .go file in a project carries a contract marker
			// (shared helper files, for instance) — only this specific
			// failure is expected here and skipped; any other parse or
			// validation error in the file is a real problem.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("build: %s: %w", path, err)
		}
		targets = append(targets, Target{Project: proj, SourceFile: path, IR: ir})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("build: %s: no //r55:contract target found", proj.Dir)
	}
	for i := range targets {
		if len(targets) == 1 {
			targets[i].GeneratedPackage = proj.Name
			continue
		}
		base := strings.TrimSuffix(filepath.Base(targets[i].SourceFile), ".go")
		targets[i].GeneratedPackage = proj.Name + "-" + base
	}
	return targets, nil
}

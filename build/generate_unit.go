package build

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/r55-lang/r55/codegen"
)

// moduleRoot is this module's own path, used both as the require target
// for every generated temp unit and as the base of the relative `replace`
// directive GenerateUnit writes so a temp unit builds against this
// checkout rather than a published (and likely absent, for an in-flight
// contract) module version.
const moduleRoot = "github.com/r55-lang/r55"

// Unit is a materialized, self-contained build directory for one Target:
// a rewritten go.mod, the target's own source, the project's shared
// helper files, codegen's generated glue, and (if the target has
// deployable dependencies) a generated deployable_gen.go embedding each
// dependency's already-compiled runtime bytecode, using a `go.mod`
// `replace` directive to point back at this module and `//go:embed` to
// pull in each dependency's bytecode.
type Unit struct {
	Dir              string
	GeneratedPackage string
}

// GenerateUnit materializes target's temporary build unit under tempRoot.
// resolvedDeps maps each of target's deployable dependency names (as
// written in its project's r55.yaml) to the already-built Target and the
// path to that target's compiled runtime .bin file — both must be final
// by the time GenerateUnit runs, which TopoSort's ordering guarantees.
func GenerateUnit(target Target, tempRoot string, resolvedDeps map[string]DependencyBinary) (*Unit, error) {
	unitDir := filepath.Join(tempRoot, target.GeneratedPackage)
	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		return nil, err
	}

	if err := writeGoMod(target, unitDir); err != nil {
		return nil, err
	}
	if err := copySource(target, unitDir); err != nil {
		return nil, err
	}
	if _, err := codegen.Generate(target.IR, unitDir); err != nil {
		return nil, fmt.Errorf("build: %s: codegen: %w", target.GeneratedPackage, err)
	}
	if len(resolvedDeps) > 0 {
		if err := writeDeployableGlue(target, unitDir, resolvedDeps); err != nil {
			return nil, err
		}
	}
	// The contract's own package (e.g. "erc20") is a library package so its
	// unit tests can construct the receiver directly; building a flat
	// RV64IMAC binary needs an actual entry point, which Go only emits for
	// package main. The unit directory is a throwaway build artifact,
	// never read back as a library, so rewriting every file's package
	// clause here is safe.
	if err := rewritePackageToMain(unitDir); err != nil {
		return nil, err
	}
	if err := writeEntryMain(unitDir); err != nil {
		return nil, err
	}
	return &Unit{Dir: unitDir, GeneratedPackage: target.GeneratedPackage}, nil
}

// writeEntryMain writes the guest's real RV64IMAC entry point: main()
// calls guest.Entry, which scans Dispatch()'s table against the incoming
// calldata. The deploy build's separate init()-driven path
// in _deploy.go runs before main ever gets control and calls
// guest.Return/Revert itself, so main here never executes under
// -tags r55_deploy; it still must compile, since go build requires one.
func writeEntryMain(unitDir string) error {
	var b strings.Builder
	b.WriteString("// Code generated by the r55 build orchestrator. DO NOT EDIT.\n\n")
	b.WriteString("package main\n\n")
	b.WriteString("import \"github.com/r55-lang/r55/guest\"\n\n")
	b.WriteString("func main() {\n\tguest.Entry(Dispatch())\n}\n")
	return os.WriteFile(filepath.Join(unitDir, "_entry_main.go"), []byte(b.String()), 0o644)
}

// rewritePackageToMain rewrites every .go file's package clause in dir to
// "main", after codegen and copySource have written them under the
// contract's own package name.
func rewritePackageToMain(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		path := filepath.Join(dir, name)
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rewritten, changed := replacePackageClause(string(src), "main")
		if !changed {
			continue
		}
		if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// replacePackageClause swaps the first "package X" line's identifier for
// newName, preserving everything else (build tags, doc comments) as-is.
func replacePackageClause(src, newName string) (string, bool) {
	lines := strings.SplitAfter(src, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "package ") {
			lines[i] = "package " + newName + "\n"
			return strings.Join(lines, ""), true
		}
	}
	return src, false
}

// DependencyBinary names a deployable dependency's resolved build target
// and the path to its already-written runtime .bin on disk.
type DependencyBinary struct {
	Target  Target
	BinPath string
}

func writeGoMod(target Target, unitDir string) error {
	absRoot, err := filepath.Abs(workspaceRoot())
	if err != nil {
		return err
	}
	relRoot, err := filepath.Rel(unitDir, absRoot)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n\ngo 1.25\n\n", target.GeneratedPackage)
	fmt.Fprintf(&b, "require %s v0.0.0\n\n", moduleRoot)
	fmt.Fprintf(&b, "replace %s => %s\n", moduleRoot, filepath.ToSlash(relRoot))
	return os.WriteFile(filepath.Join(unitDir, "go.mod"), []byte(b.String()), 0o644)
}

// workspaceRoot returns this build package's own module root, located by
// walking up from the running binary's working directory to the nearest
// go.mod. Kept as a function (rather than a package-level constant) so
// tests can exercise GenerateUnit against a fixture root.
var workspaceRootOverride string

func workspaceRoot() string {
	if workspaceRootOverride != "" {
		return workspaceRootOverride
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// copySource copies the target's own annotated source file plus every
// other non-test .go file in the project directory (shared helpers). Go
// has no module declaration list to walk; every .go file in the project
// directory other than other targets' own contract files is treated as
// shared.
func copySource(target Target, unitDir string) error {
	if err := copyFile(target.SourceFile, filepath.Join(unitDir, filepath.Base(target.SourceFile))); err != nil {
		return err
	}
	entries, err := os.ReadDir(target.Project.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		src := filepath.Join(target.Project.Dir, name)
		if src == target.SourceFile {
			continue
		}
		if declaresContract(src) {
			continue
		}
		if err := copyFile(src, filepath.Join(unitDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// declaresContract reports whether a Go source file carries a
// `//r55:contract` marker, used by copySource to exclude sibling targets'
// own contract files (only shared helpers are copied verbatim).
func declaresContract(path string) bool {
	src, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return false
	}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil {
				doc = gd.Doc
			}
			if doc == nil {
				continue
			}
			// Raw comment lines: doc.Text() drops directive-style lines
			// such as //r55:contract.
			for _, c := range doc.List {
				if strings.Contains(c.Text, "r55:contract") {
					return true
				}
			}
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// writeDeployableGlue generates deployable_gen.go, providing a
// guest.Deployable implementation per deployable dependency and
// //go:embed-ing its compiled runtime bytecode into the unit directory.
// guest.Deployable needs only Bytecode() []byte; the peer-calling
// interface is reached separately, through the dependency's own generated
// _iface.go type, copied in as a shared module when the dependency lives
// in the same project. Cross-project peer calls address the deployed
// contract by types.Address at runtime instead.
func writeDeployableGlue(target Target, unitDir string, resolvedDeps map[string]DependencyBinary) error {
	var b strings.Builder
	b.WriteString("// Code generated by the r55 build orchestrator. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", target.IR.PackageName)
	b.WriteString("import (\n\t_ \"embed\"\n\n\t\"github.com/r55-lang/r55/guest\"\n)\n\n")

	for depName, dep := range resolvedDeps {
		structName := dep.Target.IR.StructName
		embedName := sanitizeEmbedName(depName) + ".bin"
		if err := copyFile(dep.BinPath, filepath.Join(unitDir, embedName)); err != nil {
			return fmt.Errorf("build: stage dependency bytecode for %s: %w", depName, err)
		}
		varName := "deployBytecode" + structName
		fmt.Fprintf(&b, "//go:embed %s\nvar %s []byte\n\n", embedName, varName)
		fmt.Fprintf(&b, "// Deployable%s is the deploy-time handle for the %q deployable\n", structName, depName)
		fmt.Fprintf(&b, "// dependency's compiled runtime bytecode.\n")
		fmt.Fprintf(&b, "type Deployable%s struct{}\n\n", structName)
		fmt.Fprintf(&b, "func (Deployable%s) Bytecode() []byte { return %s }\n\n", structName, varName)
		fmt.Fprintf(&b, "var _ guest.Deployable = Deployable%s{}\n\n", structName)
	}
	return os.WriteFile(filepath.Join(unitDir, "deployable_gen.go"), []byte(b.String()), 0o644)
}

func sanitizeEmbedName(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

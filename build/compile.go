package build

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// Config holds the orchestrator's external dependencies — the Go
// toolchain binary and target GOARCH triple — as fields rather than
// constants.
type Config struct {
	ToolchainPath string // e.g. "go"; defaults applied by NewOrchestrator
	TargetArch    string // GOARCH value, e.g. "riscv64"
	ExamplesDir   string
	OutDir        string
	TempDir       string
}

// Orchestrator drives the full discover -> enumerate -> topo-sort ->
// generate -> compile pipeline.
type Orchestrator struct {
	cfg Config
}

// NewOrchestrator fills in toolchain/target defaults left blank in cfg.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.ToolchainPath == "" {
		cfg.ToolchainPath = "go"
	}
	if cfg.TargetArch == "" {
		cfg.TargetArch = "riscv64"
	}
	return &Orchestrator{cfg: cfg}
}

// Run discovers every project under cfg.ExamplesDir, orders their targets
// by deployable dependency, and compiles each into cfg.OutDir. Compiles of
// targets with no dependency relationship run concurrently, bounded by
// runtime.NumCPU(); a target whose dependencies are still compiling blocks
// on that dependency's completion signal rather than the whole pipeline
// serializing.
func (o *Orchestrator) Run() error {
	if err := os.MkdirAll(o.cfg.OutDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(o.cfg.TempDir, 0o755); err != nil {
		return err
	}

	projects, err := Discover(o.cfg.ExamplesDir)
	if err != nil {
		return err
	}
	log.Debug("build: discovered projects", "count", len(projects))

	var allTargets []Target
	for _, proj := range projects {
		targets, err := EnumerateTargets(proj)
		if err != nil {
			return err
		}
		allTargets = append(allTargets, targets...)
	}
	log.Debug("build: enumerated targets", "count", len(allTargets))

	sorted, err := TopoSort(allTargets)
	if err != nil {
		return err
	}

	return o.compileAll(sorted)
}

// compileAll runs sorted (already in dependency order) through a bounded
// worker pool: each target waits on its own dependencies' done channels
// before starting, so two independent subtrees compile in parallel while
// a dependency edge still forces ordering.
func (o *Orchestrator) compileAll(sorted []Target) error {
	done := make(map[string]chan struct{}, len(sorted))
	for _, t := range sorted {
		done[t.GeneratedPackage] = make(chan struct{})
	}

	sem := make(chan struct{}, maxParallel())
	var wg sync.WaitGroup
	errs := make([]error, len(sorted))

	binPaths := &sync.Map{} // GeneratedPackage -> .bin path, filled in as each target finishes

	for i, t := range sorted {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(done[t.GeneratedPackage])

			for _, depName := range t.Project.Manifest.DeployableDeps() {
				dep, ok := resolveDependency(targetsByName(sorted), depName)
				if !ok || dep.GeneratedPackage == t.GeneratedPackage {
					continue
				}
				<-done[dep.GeneratedPackage]
			}

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := o.compileOne(t, sorted, binPaths); err != nil {
				errs[i] = err
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func targetsByName(targets []Target) map[string]Target {
	m := make(map[string]Target, len(targets))
	for _, t := range targets {
		m[t.GeneratedPackage] = t
	}
	return m
}

func maxParallel() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// compileOne materializes t's build unit and invokes the toolchain for a
// plain runtime build, writing <outdir>/<pkg>.bin. Only a target carrying
// the //r55:deploy marker gets a second build with -tags r55_deploy,
// framed as R55 initcode and written to <outdir>/<pkg>.initcode.
func (o *Orchestrator) compileOne(t Target, sorted []Target, binPaths *sync.Map) error {
	resolved := make(map[string]DependencyBinary)
	for _, depName := range t.Project.Manifest.DeployableDeps() {
		dep, ok := resolveDependency(targetsByName(sorted), depName)
		if !ok {
			return &Error{Target: t.GeneratedPackage, Stage: "generate", Err: fmt.Errorf("unresolved deployable dependency %q", depName)}
		}
		binPathVal, ok := binPaths.Load(dep.GeneratedPackage)
		if !ok {
			return &Error{Target: t.GeneratedPackage, Stage: "generate", Err: fmt.Errorf("dependency %q not yet compiled", dep.GeneratedPackage)}
		}
		resolved[depName] = DependencyBinary{Target: dep, BinPath: binPathVal.(string)}
	}

	unit, err := GenerateUnit(t, o.cfg.TempDir, resolved)
	if err != nil {
		return &Error{Target: t.GeneratedPackage, Stage: "generate", Err: err}
	}

	runtimeBin, err := o.buildBinary(unit, false)
	if err != nil {
		return &Error{Target: t.GeneratedPackage, Stage: "compile-runtime", Err: err}
	}

	binPath := filepath.Join(o.cfg.OutDir, t.GeneratedPackage+".bin")
	tagged := append([]byte{0xFF}, runtimeBin...)
	if err := os.WriteFile(binPath, tagged, 0o644); err != nil {
		return &Error{Target: t.GeneratedPackage, Stage: "compile-runtime", Err: err}
	}
	binPaths.Store(t.GeneratedPackage, binPath)

	if !t.IR.Deploy {
		log.Debug("build: compiled target (runtime only, no //r55:deploy marker)", "package", t.GeneratedPackage, "bin", binPath)
		return nil
	}

	// The deploy build's _deploy.go embeds "runtime.bin" directly
	// (guest.RuntimeBlob tags it at deploy time), so it must be staged
	// into the unit before the second compile runs.
	if err := os.WriteFile(filepath.Join(unit.Dir, "runtime.bin"), runtimeBin, 0o644); err != nil {
		return &Error{Target: t.GeneratedPackage, Stage: "compile-deploy", Err: err}
	}
	deployBin, err := o.buildBinary(unit, true)
	if err != nil {
		return &Error{Target: t.GeneratedPackage, Stage: "compile-deploy", Err: err}
	}

	// R55 initcode: 0xFF || be32(len(program)) || program; constructor
	// arguments are appended by whoever deploys it.
	initcode := make([]byte, 5, 5+len(deployBin))
	initcode[0] = 0xFF
	binary.BigEndian.PutUint32(initcode[1:5], uint32(len(deployBin)))
	initcode = append(initcode, deployBin...)

	initcodePath := filepath.Join(o.cfg.OutDir, t.GeneratedPackage+".initcode")
	if err := os.WriteFile(initcodePath, initcode, 0o644); err != nil {
		return &Error{Target: t.GeneratedPackage, Stage: "compile-deploy", Err: err}
	}

	log.Debug("build: compiled target", "package", t.GeneratedPackage, "bin", binPath, "initcode", initcodePath)
	return nil
}

// buildBinary invokes the configured Go toolchain against unit, producing
// a flat RV64IMAC binary. deploy selects the r55_deploy build tag: a
// target compiles once plain and once with -tags r55_deploy.
func (o *Orchestrator) buildBinary(unit *Unit, deploy bool) ([]byte, error) {
	outName := "runtime.out"
	args := []string{"build", "-o", outName, "-ldflags=-s -w"}
	if deploy {
		outName = "deploy.out"
		args = []string{"build", "-o", outName, "-ldflags=-s -w", "-tags", "r55_deploy"}
	}
	args[2] = outName

	cmd := exec.Command(o.cfg.ToolchainPath, args...)
	cmd.Dir = unit.Dir
	cmd.Env = append(os.Environ(), "GOARCH="+o.cfg.TargetArch, "GOOS=linux", "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s build failed: %w\n%s", o.cfg.ToolchainPath, err, out)
	}
	return os.ReadFile(filepath.Join(unit.Dir, outName))
}

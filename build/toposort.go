package build

import (
	"errors"
	"fmt"
)

// ErrCyclicDependency is returned by TopoSort when the deployable-
// dependency graph contains a cycle.
var ErrCyclicDependency = errors.New("build: cyclic deployable dependency")

// TopoSort orders targets so that every deployable dependency a target
// names (via its project's r55.yaml) compiles before the target itself.
// It runs Kahn's algorithm as an explicit pass — repeated "peel off
// targets with no unsorted dependency left" rounds — so the explicit
// in-degree count makes the termination condition (a genuine cycle) easy
// to see.
func TopoSort(targets []Target) ([]Target, error) {
	byName := make(map[string]Target, len(targets))
	for _, t := range targets {
		byName[t.GeneratedPackage] = t
	}

	deps := make(map[string][]string, len(targets))
	indegree := make(map[string]int, len(targets))
	for _, t := range targets {
		indegree[t.GeneratedPackage] = 0
	}
	for _, t := range targets {
		for _, depName := range t.Project.Manifest.DeployableDeps() {
			depTarget, ok := resolveDependency(byName, depName)
			if !ok {
				return nil, fmt.Errorf("build: %s: missing deployable dependency %q", t.GeneratedPackage, depName)
			}
			if depTarget.GeneratedPackage == t.GeneratedPackage {
				continue
			}
			deps[t.GeneratedPackage] = append(deps[t.GeneratedPackage], depTarget.GeneratedPackage)
			indegree[t.GeneratedPackage]++
		}
	}

	// dependents[x] lists targets that depend on x, so that once x is
	// sorted we can decrement their indegree.
	dependents := make(map[string][]string)
	for name, ds := range deps {
		for _, d := range ds {
			dependents[d] = append(dependents[d], name)
		}
	}

	var queue []string
	for _, t := range targets {
		if indegree[t.GeneratedPackage] == 0 {
			queue = append(queue, t.GeneratedPackage)
		}
	}

	var sorted []Target
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		sorted = append(sorted, byName[name])
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(targets) {
		return nil, ErrCyclicDependency
	}
	return sorted, nil
}

// resolveDependency looks up a manifest dependency name against the
// discovered targets' generated package names, falling back to matching
// by project name for the common single-target-per-project case (a
// manifest names the dependency project, e.g. "erc20", not the fully
// qualified "erc20-erc20" generated package name).
func resolveDependency(byName map[string]Target, depName string) (Target, bool) {
	if t, ok := byName[depName]; ok {
		return t, true
	}
	var match Target
	found := 0
	for _, t := range byName {
		if t.Project.Name == depName {
			match = t
			found++
		}
	}
	if found == 1 {
		return match, true
	}
	return Target{}, false
}

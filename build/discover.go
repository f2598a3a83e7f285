package build

import (
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
)

// Project is one discovered contract project directory: an r55.yaml
// manifest plus the directory it lives in. Go source files belonging to
// the project are discovered directly by EnumerateTargets rather than
// tracked here.
type Project struct {
	Dir      string
	Name     string
	Manifest *Manifest
}

// Discover walks dir's immediate subdirectories looking for r55.yaml
// manifests. A subdirectory without a manifest is silently skipped, not
// an error — an examples directory may contain scratch directories
// alongside real contract projects.
func Discover(dir string) ([]Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var projects []Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		projDir := filepath.Join(dir, entry.Name())
		manifestPath := filepath.Join(projDir, ManifestFile)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		m, err := LoadManifest(manifestPath)
		if err != nil {
			log.Debug("build: skipping project with invalid manifest", "dir", projDir, "err", err)
			continue
		}
		projects = append(projects, Project{Dir: projDir, Name: m.Package.Name, Manifest: m})
	}
	return projects, nil
}

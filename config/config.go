// Package config reads the optional imp.yaml project file that
// declares extra module import search roots, parsed once at CLI
// startup.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the shape of imp.yaml.
type ProjectFile struct {
	// ImportRoots are extra directories the module loader tries when a
	// path it is given cannot be read as is (see loader.FS.Roots).
	// core::import paths reach the loader already joined with the
	// importing file's directory, so the roots are not searched for them.
	ImportRoots []string `yaml:"import_roots"`
}

// Load reads and parses path. A missing file is not an error — it
// returns a zero-value ProjectFile, since imp.yaml is optional.
func Load(path string) (ProjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectFile{}, nil
		}
		return ProjectFile{}, err
	}
	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return ProjectFile{}, err
	}
	return pf, nil
}

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// overlayFile is the on-disk shape of a catalog overlay.
type overlayFile struct {
	Components []*Definition `yaml:"components"`
}

// LoadOverlays reads every *.yaml / *.yml file in dir and registers the
// definitions it contains, overriding builtins on kind collision. A missing
// directory is not an error; a malformed file is, and leaves the registry with
// whatever was registered before the failing file.
func (r *Registry) LoadOverlays(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("registry: reading overlay dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("registry: reading %s: %w", name, err)
		}
		var file overlayFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("registry: parsing %s: %w", name, err)
		}
		for _, def := range file.Components {
			if err := r.Register(def); err != nil {
				return fmt.Errorf("registry: %s: %w", name, err)
			}
		}
	}
	return nil
}

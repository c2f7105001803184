package compose

import (
	"fmt"
)

// Registry aggregates every compose file under a root so uniqueness checks
// span the whole host, not just the file being edited. All stacks share one
// machine's ports and one Docker daemon's image namespace.
type Registry struct {
	files []*File
}

// LoadRegistry loads every compose file under root.
func LoadRegistry(root string) (*Registry, error) {
	paths, err := FindFiles(root)
	if err != nil {
		return nil, err
	}
	reg := &Registry{}
	for _, path := range paths {
		f, err := Load(path)
		if err != nil {
			return nil, err
		}
		reg.files = append(reg.files, f)
	}
	return reg, nil
}

// Files returns the loaded compose files in path order.
func (r *Registry) Files() []*File {
	return r.files
}

// File returns the loaded file with the given path, if any.
func (r *Registry) File(path string) (*File, bool) {
	for _, f := range r.files {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}

// UsedHostPorts maps every claimed host port to the compose file claiming
// it, whether or not the container is currently running.
func (r *Registry) UsedHostPorts() map[int]string {
	out := map[int]string{}
	for _, f := range r.files {
		for _, svc := range f.Services() {
			for _, p := range svc.HostPorts() {
				if _, taken := out[p]; !taken {
					out[p] = f.Path
				}
			}
		}
	}
	return out
}

// Validate checks a candidate service against every file in the registry.
func (r *Registry) Validate(name string, svc Service) error {
	for _, f := range r.files {
		if _, exists := f.services[name]; exists {
			return fmt.Errorf("%w: %s (in %s)", ErrServiceExists, name, f.Path)
		}
		for existingName, existing := range f.Services() {
			if err := checkConflict(existingName, existing, name, svc); err != nil {
				return fmt.Errorf("%w (in %s)", err, f.Path)
			}
		}
	}
	return nil
}

// Package compose reads and edits the Docker Compose files that act as the
// station's device registry. Each camera service block binds one device to
// one image reference and one host port; the Add path enforces that the
// bindings stay unique.
package compose

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

var composePatterns = []string{
	"docker-compose*.yml",
	"docker-compose*.yaml",
	"compose*.yml",
	"compose*.yaml",
}

// FindFiles returns every compose file under root, recursively, sorted and
// de-duplicated.
func FindFiles(root string) ([]string, error) {
	seen := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		for _, pattern := range composePatterns {
			if ok, _ := filepath.Match(pattern, base); ok {
				seen[path] = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan compose files: %w", err)
	}
	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// File is a loaded compose file. Top-level keys and untouched service
// blocks are kept as raw yaml nodes so saving preserves whatever the
// operator wrote by hand.
type File struct {
	Path string

	doc      map[string]yaml.Node
	services map[string]yaml.Node
}

// Load parses the compose file at path. A file without a services map is
// valid and treated as empty.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compose file: %w", err)
	}
	f := &File{Path: path, doc: map[string]yaml.Node{}, services: map[string]yaml.Node{}}
	if err := yaml.Unmarshal(data, &f.doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if node, ok := f.doc["services"]; ok {
		if err := node.Decode(&f.services); err != nil {
			return nil, fmt.Errorf("parse services in %s: %w", path, err)
		}
	}
	return f, nil
}

// ServiceNames returns the service names in sorted order.
func (f *File) ServiceNames() []string {
	return sortedKeys(f.services)
}

// Service decodes the named service block.
func (f *File) Service(name string) (Service, bool) {
	node, ok := f.services[name]
	if !ok {
		return Service{}, false
	}
	var svc Service
	if err := node.Decode(&svc); err != nil {
		return Service{}, false
	}
	return svc, true
}

// Services decodes every service block, skipping ones that don't parse.
func (f *File) Services() map[string]Service {
	out := make(map[string]Service, len(f.services))
	for name := range f.services {
		if svc, ok := f.Service(name); ok {
			out[name] = svc
		}
	}
	return out
}

// Add appends a service block after checking the file-local registry
// invariants. Cross-file checks are the Registry's job.
func (f *File) Add(name string, svc Service) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if svc.Image == "" {
		return fmt.Errorf("service %s: image cannot be empty", name)
	}
	if _, exists := f.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceExists, name)
	}
	for existingName := range f.services {
		existing, ok := f.Service(existingName)
		if !ok {
			continue
		}
		if err := checkConflict(existingName, existing, name, svc); err != nil {
			return err
		}
	}
	var node yaml.Node
	if err := node.Encode(svc); err != nil {
		return fmt.Errorf("encode service %s: %w", name, err)
	}
	f.services[name] = node
	return nil
}

func checkConflict(existingName string, existing Service, name string, svc Service) error {
	if svc.ContainerName != "" && existing.ContainerName == svc.ContainerName {
		return fmt.Errorf("%w: %s (used by service %s)", ErrContainerNameInUse, svc.ContainerName, existingName)
	}
	if existing.Image == svc.Image {
		return fmt.Errorf("%w: %s (used by service %s)", ErrImageInUse, svc.Image, existingName)
	}
	used := map[int]bool{}
	for _, p := range existing.HostPorts() {
		used[p] = true
	}
	for _, p := range svc.HostPorts() {
		if used[p] {
			return fmt.Errorf("%w: %d (used by service %s)", ErrHostPortInUse, p, existingName)
		}
	}
	return nil
}

// Save writes the file back atomically. The services map replaces whatever
// node was loaded; every other top-level key round-trips untouched.
func (f *File) Save() error {
	var servicesNode yaml.Node
	if err := servicesNode.Encode(f.services); err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	f.doc["services"] = servicesNode

	data, err := yaml.Marshal(f.doc)
	if err != nil {
		return fmt.Errorf("encode compose file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".compose-*")
	if err != nil {
		return fmt.Errorf("write compose file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write compose file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write compose file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace compose file: %w", err)
	}
	return nil
}

package compose

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Service is the subset of a compose service block this tool reads or
// writes. Unknown keys in existing blocks are preserved by File, which keeps
// the raw nodes around and only decodes into Service for inspection.
type Service struct {
	Image         string   `yaml:"image,omitempty"`
	ContainerName string   `yaml:"container_name,omitempty"`
	Build         Build    `yaml:"build,omitempty"`
	Environment   EnvMap   `yaml:"environment,omitempty"`
	Ports         PortList `yaml:"ports,omitempty"`
	Devices       []string `yaml:"devices,omitempty"`
	Restart       string   `yaml:"restart,omitempty"`
	DependsOn     []string `yaml:"depends_on,omitempty"`
}

// Build carries a service build context. Compose allows both the short
// scalar form (`build: ./dir`) and the mapping form.
type Build struct {
	Context    string `yaml:"context,omitempty"`
	Dockerfile string `yaml:"dockerfile,omitempty"`
}

// UnmarshalYAML accepts both the scalar and mapping build forms.
func (b *Build) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		b.Context = value.Value
		return nil
	}
	type plain Build
	return value.Decode((*plain)(b))
}

// IsZero lets yaml omit empty build blocks on encode.
func (b Build) IsZero() bool {
	return b.Context == "" && b.Dockerfile == ""
}

// EnvMap accepts both the mapping (`KEY: val`) and sequence (`- KEY=val`)
// environment forms and always encodes as a mapping.
type EnvMap map[string]string

// UnmarshalYAML decodes either environment form.
func (e *EnvMap) UnmarshalYAML(value *yaml.Node) error {
	out := EnvMap{}
	switch value.Kind {
	case yaml.MappingNode:
		var m map[string]string
		if err := value.Decode(&m); err != nil {
			return err
		}
		out = m
	case yaml.SequenceNode:
		var entries []string
		if err := value.Decode(&entries); err != nil {
			return err
		}
		for _, entry := range entries {
			key, val, _ := strings.Cut(entry, "=")
			out[key] = val
		}
	default:
		return fmt.Errorf("environment must be a mapping or a sequence, got %s", value.Tag)
	}
	*e = out
	return nil
}

// PortList tolerates bare integer port entries alongside the usual
// "host:container" strings.
type PortList []string

// UnmarshalYAML flattens scalar entries to their string form.
func (p *PortList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("ports must be a sequence, got %s", value.Tag)
	}
	out := make(PortList, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("port entries must be scalars, got %s", item.Tag)
		}
		out = append(out, item.Value)
	}
	*p = out
	return nil
}

// HostPorts extracts the host-side ports of a service's published port
// entries. A bare number publishes the same port on the host; "H:C" and
// "IP:H:C" yield H. Entries that don't parse are skipped.
func (s Service) HostPorts() []int {
	var out []int
	for _, entry := range s.Ports {
		parts := strings.Split(entry, ":")
		var host string
		if len(parts) >= 2 {
			host = parts[len(parts)-2]
		} else {
			host = parts[0]
		}
		if n, err := strconv.Atoi(host); err == nil {
			out = append(out, n)
		}
	}
	return out
}

var serviceNumPattern = regexp.MustCompile(`^([a-z]+)(\d+)$`)

// NextServiceName returns base followed by the lowest positive integer not
// taken by any existing name, so deleting cam2 makes cam2 available again.
func NextServiceName(existing []string, base string) string {
	taken := map[int]bool{}
	for _, name := range existing {
		m := serviceNumPattern.FindStringSubmatch(name)
		if m == nil || m[1] != base {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err == nil {
			taken[n] = true
		}
	}
	n := 1
	for taken[n] {
		n++
	}
	return fmt.Sprintf("%s%d", base, n)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package compose

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistrySpansFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "other-stack")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeCompose(t, dir, "docker-compose.yml", `services:
  cam1:
    image: amscope-camera-backend:camera-1
    ports:
      - "8001:8000"
`)
	writeCompose(t, sub, "docker-compose.yml", `services:
  thermal1:
    image: thermal-backend:unit-1
    ports:
      - "8002:8000"
`)

	reg, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Files()) != 2 {
		t.Fatalf("expected 2 files, got %d", len(reg.Files()))
	}

	ports := reg.UsedHostPorts()
	if len(ports) != 2 || ports[8001] == "" || ports[8002] == "" {
		t.Fatalf("unexpected used ports: %v", ports)
	}

	// Port claimed in the *other* file still conflicts.
	err = reg.Validate("cam2", Service{Image: "amscope-camera-backend:camera-2", Ports: PortList{"8002:8000"}})
	if !errors.Is(err, ErrHostPortInUse) {
		t.Fatalf("expected cross-file port conflict, got %v", err)
	}

	// Service name claimed in another file conflicts too.
	err = reg.Validate("thermal1", Service{Image: "amscope-camera-backend:camera-2"})
	if !errors.Is(err, ErrServiceExists) {
		t.Fatalf("expected cross-file name conflict, got %v", err)
	}

	if err := reg.Validate("cam2", Service{Image: "amscope-camera-backend:camera-2", Ports: PortList{"8003:8000"}}); err != nil {
		t.Fatalf("clean candidate rejected: %v", err)
	}
}

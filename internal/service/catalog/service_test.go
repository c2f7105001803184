package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

func stationFixture(t *testing.T) config.Station {
	t.Helper()
	root := t.TempDir()
	cfg := config.Station{
		Root:          root,
		ComposeDir:    filepath.Join(root, "Code", "Project"),
		ImageDir:      filepath.Join(root, "Docker-images"),
		ControllerDir: filepath.Join(root, "Code", "Project", "Controller+fastapi"),
	}
	for _, dir := range []string{cfg.ComposeDir, cfg.ImageDir, cfg.ControllerDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBuildJoinsComposeArchivesAndDeviceConfig(t *testing.T) {
	cfg := stationFixture(t)
	writeFile(t, filepath.Join(cfg.ComposeDir, "docker-compose.yml"), `services:
  cam1:
    image: amscope-camera-backend:camera-1
    container_name: cam1
    ports:
      - "8001:8000"
  frontend:
    image: camera-frontend:latest
`)
	writeFile(t, filepath.Join(cfg.ImageDir, "amscope-camera-backend_camera-1.tar"), "tar")
	writeFile(t, filepath.Join(cfg.ControllerDir, "device_config.json"), `{
  "device_id": "0",
  "device_name": "AmScope MU500",
  "serial_number": "SN123456",
  "vendor_id": "0x0547",
  "product_id": "0x6801"
}`)

	res, err := New(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", res.Entries)
	}

	cam := res.Entries[0]
	if cam.Service != "cam1" {
		t.Fatalf("entries should sort by service name, got %+v", res.Entries)
	}
	if cam.HostPort != 8001 || cam.ContainerName != "cam1" {
		t.Errorf("unexpected cam1 entry: %+v", cam)
	}
	if !cam.ArchivePresent {
		t.Error("cam1 archive exists but was not reported")
	}
	if res.Entries[1].ArchivePresent {
		t.Error("frontend has no archive yet")
	}

	if res.Device == nil || res.Device.SerialNumber != "SN123456" {
		t.Errorf("staged device config not picked up: %+v", res.Device)
	}
}

func TestBuildSkipsImagelessServicesAndMissingDeviceConfig(t *testing.T) {
	cfg := stationFixture(t)
	writeFile(t, filepath.Join(cfg.ComposeDir, "docker-compose.yml"), `services:
  helper:
    build: ./helper
  cam1:
    image: amscope-camera-backend:camera-1
`)

	res, err := New(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Service != "cam1" {
		t.Errorf("expected only cam1, got %+v", res.Entries)
	}
	if res.Device != nil {
		t.Errorf("no device config on disk, got %+v", res.Device)
	}
}

func TestBuildSpansMultipleComposeFiles(t *testing.T) {
	cfg := stationFixture(t)
	other := filepath.Join(cfg.Root, "Code", "Other")
	if err := os.MkdirAll(other, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(cfg.ComposeDir, "docker-compose.yml"), `services:
  cam1:
    image: amscope-camera-backend:camera-1
`)
	writeFile(t, filepath.Join(other, "docker-compose.yml"), `services:
  cam2:
    image: amscope-camera-backend:camera-2
`)

	res, err := New(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected entries from both files, got %+v", res.Entries)
	}
	if res.Entries[0].ComposeFile == res.Entries[1].ComposeFile {
		t.Errorf("entries should come from distinct files: %+v", res.Entries)
	}
}

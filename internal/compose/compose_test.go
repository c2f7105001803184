package compose

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCompose = `version: "3.8"
x-notes: operator stack for bench 3
services:
  cam1:
    image: amscope-camera-backend:camera-1
    container_name: cam1
    environment:
      PORT: "8000"
    ports:
      - "8001:8000"
    devices:
      - /dev/bus/usb:/dev/bus/usb
    labels:
      bench: "3"
  frontend:
    image: camera-frontend:latest
    build: ./frontend
    ports:
      - 3000
`

func writeCompose(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write compose file: %v", err)
	}
	return path
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "Code", "Project")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeCompose(t, dir, "docker-compose.yml", "services: {}\n")
	writeCompose(t, sub, "compose.camera.yaml", "services: {}\n")
	writeCompose(t, sub, "notes.txt", "not a compose file")

	files, err := FindFiles(dir)
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 compose files, got %d: %v", len(files), files)
	}
	for _, f := range files {
		if strings.HasSuffix(f, "notes.txt") {
			t.Fatalf("non-compose file matched: %s", f)
		}
	}
}

func TestLoadParsesServices(t *testing.T) {
	dir := t.TempDir()
	path := writeCompose(t, dir, "docker-compose.yml", sampleCompose)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := f.ServiceNames()
	if len(names) != 2 || names[0] != "cam1" || names[1] != "frontend" {
		t.Fatalf("unexpected service names: %v", names)
	}

	cam, ok := f.Service("cam1")
	if !ok {
		t.Fatalf("cam1 not found")
	}
	if cam.Image != "amscope-camera-backend:camera-1" {
		t.Errorf("unexpected image: %s", cam.Image)
	}
	if cam.Environment["PORT"] != "8000" {
		t.Errorf("unexpected environment: %v", cam.Environment)
	}
	if got := cam.HostPorts(); len(got) != 1 || got[0] != 8001 {
		t.Errorf("unexpected host ports: %v", got)
	}

	fe, _ := f.Service("frontend")
	if fe.Build.Context != "./frontend" {
		t.Errorf("scalar build form not parsed: %+v", fe.Build)
	}
	if got := fe.HostPorts(); len(got) != 1 || got[0] != 3000 {
		t.Errorf("bare port entry not parsed: %v", got)
	}
}

func TestLoadWithoutServices(t *testing.T) {
	dir := t.TempDir()
	path := writeCompose(t, dir, "compose.yml", "version: \"3.8\"\n")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.ServiceNames()) != 0 {
		t.Fatalf("expected no services")
	}
	if err := f.Add("cam1", Service{Image: "img:tag"}); err != nil {
		t.Fatalf("Add on empty file: %v", err)
	}
	if err := f.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	f, err := Load(writeCompose(t, dir, "docker-compose.yml", sampleCompose))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cases := []struct {
		name string
		svc  Service
		want error
	}{
		{"cam1", Service{Image: "other:tag"}, ErrServiceExists},
		{"cam2", Service{Image: "other:tag", ContainerName: "cam1"}, ErrContainerNameInUse},
		{"cam2", Service{Image: "amscope-camera-backend:camera-1"}, ErrImageInUse},
		{"cam2", Service{Image: "other:tag", Ports: PortList{"8001:8000"}}, ErrHostPortInUse},
	}
	for _, tc := range cases {
		err := f.Add(tc.name, tc.svc)
		if !errors.Is(err, tc.want) {
			t.Errorf("Add(%s, %+v): got %v, want %v", tc.name, tc.svc, err, tc.want)
		}
	}
}

func TestSaveRoundTripsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeCompose(t, dir, "docker-compose.yml", sampleCompose)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := f.Add("cam2", Service{
		Image:         "amscope-camera-backend:camera-2",
		ContainerName: "cam2",
		Environment:   EnvMap{"PORT": "8000"},
		Ports:         PortList{"8002:8000"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := f.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(data)
	for _, want := range []string{"x-notes: operator stack for bench 3", "bench: \"3\"", "cam2", "8002:8000"} {
		if !strings.Contains(text, want) {
			t.Errorf("saved file missing %q:\n%s", want, text)
		}
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.ServiceNames()) != 3 {
		t.Fatalf("expected 3 services after reload, got %v", reloaded.ServiceNames())
	}
}

func TestNextServiceName(t *testing.T) {
	cases := []struct {
		existing []string
		want     string
	}{
		{nil, "cam1"},
		{[]string{"cam1", "cam2"}, "cam3"},
		{[]string{"cam1", "cam3"}, "cam2"},
		{[]string{"frontend", "backend"}, "cam1"},
		{[]string{"camx", "cam02"}, "cam1"},
	}
	for _, tc := range cases {
		if got := NextServiceName(tc.existing, "cam"); got != tc.want {
			t.Errorf("NextServiceName(%v) = %s, want %s", tc.existing, got, tc.want)
		}
	}
}

func TestEnvironmentSequenceForm(t *testing.T) {
	dir := t.TempDir()
	path := writeCompose(t, dir, "compose.yml", `services:
  cam1:
    image: img:tag
    environment:
      - PORT=8000
      - DEVICE_CONFIG=/app/device_config.json
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	svc, _ := f.Service("cam1")
	if svc.Environment["PORT"] != "8000" || svc.Environment["DEVICE_CONFIG"] != "/app/device_config.json" {
		t.Fatalf("sequence environment not parsed: %v", svc.Environment)
	}
}

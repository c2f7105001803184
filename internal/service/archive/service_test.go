package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/JacobGitz/Amscope-Docker/internal/docker"
)

type fakeDocker struct {
	images    []string
	saved     map[string]string
	loadedRef string
	tagged    [][2]string
}

func (f *fakeDocker) ListImages(_ context.Context) ([]string, error) {
	return f.images, nil
}

func (f *fakeDocker) SaveImage(_ context.Context, ref, path string) error {
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[ref] = path
	return os.WriteFile(path, []byte("tar"), 0o644)
}

func (f *fakeDocker) LoadImage(_ context.Context, path string, _ docker.OutputCallback) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return f.loadedRef, nil
}

func (f *fakeDocker) TagImage(_ context.Context, source, target string) error {
	f.tagged = append(f.tagged, [2]string{source, target})
	return nil
}

func newService(t *testing.T) (*Service, *fakeDocker, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Docker-images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cli := &fakeDocker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cli, dir, logger), cli, dir
}

func TestDefaultName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"amscope-camera-backend:camera-1", "amscope-camera-backend_camera-1.tar"},
		{"lab/frontend:latest", "lab_frontend_latest.tar"},
		{"plain", "plain.tar"},
	}
	for _, tc := range cases {
		if got := DefaultName(tc.in); got != tc.want {
			t.Errorf("DefaultName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSaveUsesDefaultNameAndRefusesOverwrite(t *testing.T) {
	svc, cli, dir := newService(t)
	ref := "amscope-camera-backend:camera-1"

	path, err := svc.Save(context.Background(), ref, "", false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "amscope-camera-backend_camera-1.tar" {
		t.Errorf("unexpected archive name: %s", path)
	}
	if cli.saved[ref] != path {
		t.Errorf("docker save not called with %s", path)
	}
	if !svc.Present(ref) {
		t.Error("Present should see the fresh archive")
	}

	if _, err := svc.Save(context.Background(), ref, "", false); !errors.Is(err, ErrArchiveExists) {
		t.Fatalf("expected ErrArchiveExists, got %v", err)
	}
	if _, err := svc.Save(context.Background(), ref, "", true); err != nil {
		t.Fatalf("overwrite save: %v", err)
	}

	names, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "amscope-camera-backend_camera-1.tar" {
		t.Errorf("unexpected listing: %v", names)
	}
	_ = dir
}

func TestListMissingDir(t *testing.T) {
	cli := &fakeDocker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(cli, filepath.Join(t.TempDir(), "nope"), logger)

	names, err := svc.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if names != nil {
		t.Errorf("expected nil, got %v", names)
	}
}

func TestLoadResolvesRelativePath(t *testing.T) {
	svc, cli, dir := newService(t)
	cli.loadedRef = "amscope-camera-backend:camera-1"
	if err := os.WriteFile(filepath.Join(dir, "cam.tar"), []byte("tar"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ref, err := svc.Load(context.Background(), "cam.tar", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ref != "amscope-camera-backend:camera-1" {
		t.Errorf("unexpected ref: %s", ref)
	}
}

func TestRetagRefusesUnknownSource(t *testing.T) {
	svc, cli, _ := newService(t)

	if err := svc.Retag(context.Background(), "", "new:tag"); !errors.Is(err, docker.ErrNoLoadedRef) {
		t.Fatalf("expected ErrNoLoadedRef, got %v", err)
	}
	if err := svc.Retag(context.Background(), "old:tag", "new:tag"); err != nil {
		t.Fatalf("Retag: %v", err)
	}
	if len(cli.tagged) != 1 || cli.tagged[0] != [2]string{"old:tag", "new:tag"} {
		t.Errorf("unexpected tag calls: %v", cli.tagged)
	}
}

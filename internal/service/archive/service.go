// Package archive moves images between the Docker daemon and the station's
// archive directory. The archive file name is derived from the image
// reference, which is what lets the launcher find the matching archive for
// a compose entry whose image is missing locally.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JacobGitz/Amscope-Docker/internal/docker"
)

// ErrArchiveExists reports a save that would clobber an existing archive
// without the overwrite flag.
var ErrArchiveExists = errors.New("archive: file already exists")

// Docker is the slice of the Docker client this workflow needs.
type Docker interface {
	ListImages(ctx context.Context) ([]string, error)
	SaveImage(ctx context.Context, ref, path string) error
	LoadImage(ctx context.Context, path string, onOutput docker.OutputCallback) (string, error)
	TagImage(ctx context.Context, source, target string) error
}

// Service manages the archive directory.
type Service struct {
	docker Docker
	dir    string
	logger *slog.Logger
}

// New creates an archive service rooted at dir.
func New(cli Docker, dir string, logger *slog.Logger) *Service {
	return &Service{docker: cli, dir: dir, logger: logger}
}

// DefaultName maps an image reference to its archive file name:
// "repo/name:tag" becomes "repo_name_tag.tar".
func DefaultName(ref string) string {
	name := strings.NewReplacer("/", "_", ":", "_").Replace(ref)
	return name + ".tar"
}

// Dir returns the archive directory.
func (s *Service) Dir() string { return s.dir }

// PathFor returns the expected archive path for an image reference.
func (s *Service) PathFor(ref string) string {
	return filepath.Join(s.dir, DefaultName(ref))
}

// Present reports whether the archive for the image reference exists.
func (s *Service) Present(ref string) bool {
	_, err := os.Stat(s.PathFor(ref))
	return err == nil
}

// List returns the archive file names, sorted.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive dir: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tar") {
			continue
		}
		out = append(out, entry.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Images lists daemon images eligible for saving.
func (s *Service) Images(ctx context.Context) ([]string, error) {
	return s.docker.ListImages(ctx)
}

// Save archives the image under name (DefaultName(ref) when empty).
// Existing archives are only replaced when overwrite is set.
func (s *Service) Save(ctx context.Context, ref, name string, overwrite bool) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("image reference is required")
	}
	if name == "" {
		name = DefaultName(ref)
	}
	if !strings.HasSuffix(name, ".tar") {
		name += ".tar"
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", fmt.Errorf("%w: %s", ErrArchiveExists, path)
	}
	if err := s.docker.SaveImage(ctx, ref, path); err != nil {
		return "", err
	}
	s.logger.Info("image archived", "image", ref, "path", path)
	return path, nil
}

// Load imports an archive into the daemon and returns the loaded image
// reference ("" when the daemon didn't report one).
func (s *Service) Load(ctx context.Context, path string, onOutput docker.OutputCallback) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	ref, err := s.docker.LoadImage(ctx, path, onOutput)
	if err != nil {
		return "", err
	}
	s.logger.Info("archive loaded", "path", path, "image", ref)
	return ref, nil
}

// Retag adds another reference to a loaded image. Refused with
// ErrNoLoadedRef when the load didn't name one.
func (s *Service) Retag(ctx context.Context, from, to string) error {
	if strings.TrimSpace(from) == "" {
		return docker.ErrNoLoadedRef
	}
	if err := s.docker.TagImage(ctx, from, to); err != nil {
		return err
	}
	s.logger.Info("image retagged", "from", from, "to", to)
	return nil
}

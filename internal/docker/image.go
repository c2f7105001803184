package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
)

// ListImages returns every locally tagged image as "repo:tag", sorted,
// skipping dangling <none> entries.
func (c *Client) ListImages(ctx context.Context) ([]string, error) {
	if c.inner == nil {
		return nil, fmt.Errorf("docker client not initialized")
	}
	summaries, err := c.inner.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	var out []string
	for _, summary := range summaries {
		for _, tag := range summary.RepoTags {
			if strings.Contains(tag, "<none>") {
				continue
			}
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ImageExists reports whether an image with the exact reference is present
// in the daemon.
func (c *Client) ImageExists(ctx context.Context, ref string) (bool, error) {
	if strings.TrimSpace(ref) == "" {
		return false, fmt.Errorf("image reference cannot be empty")
	}
	summaries, err := c.inner.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return false, fmt.Errorf("list images: %w", err)
	}
	return len(summaries) > 0, nil
}

// TagImage adds target as another reference for source.
func (c *Client) TagImage(ctx context.Context, source, target string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return fmt.Errorf("source and target references cannot be empty")
	}
	if err := c.inner.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("tag %s as %s: %w", source, target, err)
	}
	return nil
}

// SaveImage streams the image archive for ref into the file at path. The
// write goes through a temp file so an interrupted save never leaves a
// truncated archive behind.
func (c *Client) SaveImage(ctx context.Context, ref, path string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("image reference cannot be empty")
	}
	if path == "" {
		return fmt.Errorf("archive path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	rc, err := c.inner.ImageSave(ctx, []string{ref})
	if err != nil {
		return fmt.Errorf("save image %s: %w", ref, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".save-*")
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}
	return nil
}

var loadedImagePattern = regexp.MustCompile(`Loaded image(?: ID)?:\s*(\S+)`)

// LoadImage loads a tar archive into the daemon and returns the image
// reference reported in the load stream. ErrNoLoadedRef is returned when
// the archive loaded but the daemon did not name a reference (e.g. an
// archive saved by digest only).
func (c *Client) LoadImage(ctx context.Context, path string, onOutput OutputCallback) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	resp, err := c.inner.ImageLoad(ctx, f, false)
	if err != nil {
		return "", fmt.Errorf("load archive %s: %w", path, err)
	}
	defer resp.Body.Close()

	if !resp.JSON {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read load output: %w", err)
		}
		return parseLoadedRef(string(data), onOutput), nil
	}

	var loaded string
	err = consumeStream(resp.Body, func(line string) {
		if ref := parseLoadedRef(line, nil); ref != "" {
			loaded = ref
		}
		if onOutput != nil {
			onOutput(line)
		}
	})
	if err != nil {
		return "", fmt.Errorf("load archive %s: %w", path, err)
	}
	return loaded, nil
}

func parseLoadedRef(text string, onOutput OutputCallback) string {
	if onOutput != nil {
		for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
			if line != "" {
				onOutput(line)
			}
		}
	}
	m := loadedImagePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

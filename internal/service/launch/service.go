// Package launch starts the containers of a chosen compose file: it makes
// sure each service's image exists (building it or loading the matching
// archive), recreates the container with the compose entry's port and
// device bindings, and waits for the backend's health endpoint.
package launch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	"github.com/JacobGitz/Amscope-Docker/internal/compose"
	"github.com/JacobGitz/Amscope-Docker/internal/docker"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

// Role tags a launched service for ordering and URL construction. The
// backend starts first and gets the health wait; the frontend follows.
type Role string

// Service roles.
const (
	RoleBackend  Role = "backend"
	RoleFrontend Role = "frontend"
)

// Docker is the slice of the Docker client this workflow needs.
type Docker interface {
	Ping(ctx context.Context) error
	ImageExists(ctx context.Context, ref string) (bool, error)
	BuildImage(ctx context.Context, dir, tag string, buildArgs map[string]*string, onOutput docker.OutputCallback) error
	RunContainer(ctx context.Context, spec docker.RunSpec) (docker.ContainerInfo, error)
}

// Archives is the archive lookup used when an image is missing locally.
type Archives interface {
	Present(ref string) bool
	PathFor(ref string) string
	Load(ctx context.Context, path string, onOutput docker.OutputCallback) (string, error)
}

// Selection names one compose service to start.
type Selection struct {
	Name string
	Role Role
	// Rebuild forces an image build even when one exists.
	Rebuild bool
}

// Request describes a launch run.
type Request struct {
	File       *compose.File
	Selections []Selection
}

// Started reports one launched service.
type Started struct {
	Name        string
	Role        Role
	ContainerID string
	HostPort    int
	URL         string
	// Healthy is meaningful for the backend only; a false value means the
	// health endpoint never answered within the timeout.
	Healthy bool
}

// Result summarizes a launch run.
type Result struct {
	RunID   string
	Started []Started
}

// Plan is the operator-facing view of a compose file before launching.
type Plan struct {
	File  *compose.File
	Names []string
	// Backend/Frontend are pre-assigned when the file has exactly two
	// services; otherwise the operator assigns roles.
	Backend  string
	Frontend string
}

// Service coordinates the launch workflow.
type Service struct {
	docker   Docker
	archives Archives
	logger   *slog.Logger
	cfg      config.Station

	httpClient *http.Client
	// pingBase is swapped in tests; launches always probe localhost.
	pingBase string
}

// New creates a launch service.
func New(cli Docker, archives Archives, logger *slog.Logger, cfg config.Station) *Service {
	return &Service{
		docker:     cli,
		archives:   archives,
		logger:     logger,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 2 * time.Second},
		pingBase:   "http://localhost",
	}
}

// Plan loads the compose file and classifies its services.
func (s *Service) Plan(path string) (Plan, error) {
	file, err := compose.Load(path)
	if err != nil {
		return Plan{}, err
	}
	names := file.ServiceNames()
	if len(names) == 0 {
		return Plan{}, fmt.Errorf("no services found in %s", path)
	}
	plan := Plan{File: file, Names: names}
	if len(names) == 2 {
		plan.Backend, plan.Frontend = names[0], names[1]
	}
	return plan, nil
}

// ImagePresent reports whether the image for a service exists in the
// daemon, so the caller can decide whether to offer a rebuild.
func (s *Service) ImagePresent(ctx context.Context, file *compose.File, name string) (bool, error) {
	svc, ok := file.Service(name)
	if !ok {
		return false, fmt.Errorf("service %s not found in %s", name, file.Path)
	}
	return s.docker.ImageExists(ctx, imageRef(name, svc))
}

// Run starts the selected services, backend first.
func (s *Service) Run(ctx context.Context, req Request, onOutput docker.OutputCallback) (Result, error) {
	if req.File == nil {
		return Result{}, fmt.Errorf("compose file is required")
	}
	if len(req.Selections) == 0 {
		return Result{}, fmt.Errorf("nothing selected to launch")
	}
	if err := s.docker.Ping(ctx); err != nil {
		return Result{}, err
	}

	res := Result{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", res.RunID, "compose_file", req.File.Path)

	ordered := make([]Selection, len(req.Selections))
	copy(ordered, req.Selections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Role == RoleBackend && ordered[j].Role != RoleBackend
	})

	for _, sel := range ordered {
		started, err := s.startService(ctx, logger, req.File, sel, onOutput)
		if err != nil {
			return res, fmt.Errorf("launch %s: %w", sel.Name, err)
		}
		res.Started = append(res.Started, started)
	}
	return res, nil
}

func (s *Service) startService(ctx context.Context, logger *slog.Logger, file *compose.File, sel Selection, onOutput docker.OutputCallback) (Started, error) {
	svc, ok := file.Service(sel.Name)
	if !ok {
		return Started{}, fmt.Errorf("service not found in %s", file.Path)
	}
	ref := imageRef(sel.Name, svc)

	if err := s.ensureImage(ctx, logger, file, sel, svc, ref, onOutput); err != nil {
		return Started{}, err
	}

	spec, err := runSpec(sel.Name, svc, ref)
	if err != nil {
		return Started{}, err
	}
	info, err := s.docker.RunContainer(ctx, spec)
	if err != nil {
		return Started{}, err
	}
	logger.Info("container started", "service", sel.Name, "container_id", info.ID, "image", ref)

	started := Started{Name: sel.Name, Role: sel.Role, ContainerID: info.ID}
	if ports := svc.HostPorts(); len(ports) > 0 {
		started.HostPort = ports[0]
		started.URL = fmt.Sprintf("%s:%d", s.pingBase, started.HostPort)
		if sel.Role == RoleBackend {
			started.Healthy = s.waitReady(ctx, started.HostPort)
			if started.Healthy {
				logger.Info("backend ready", "service", sel.Name, "port", started.HostPort)
			} else {
				logger.Warn("backend did not answer health check", "service", sel.Name, "port", started.HostPort)
			}
			started.URL += "/docs"
		}
	}
	return started, nil
}

// ensureImage makes ref available in the daemon: keep it, rebuild it, or
// load the matching archive. A service with a build context can always be
// rebuilt; one without can only come from the archive directory.
func (s *Service) ensureImage(ctx context.Context, logger *slog.Logger, file *compose.File, sel Selection, svc compose.Service, ref string, onOutput docker.OutputCallback) error {
	exists, err := s.docker.ImageExists(ctx, ref)
	if err != nil {
		return err
	}
	if exists && !sel.Rebuild {
		return nil
	}

	if svc.Build.Context != "" {
		dir := svc.Build.Context
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(file.Path), dir)
		}
		logger.Info("building image", "service", sel.Name, "image", ref, "context", dir)
		return s.docker.BuildImage(ctx, dir, ref, nil, onOutput)
	}

	if s.archives != nil && s.archives.Present(ref) {
		logger.Info("loading image archive", "service", sel.Name, "image", ref)
		if _, err := s.archives.Load(ctx, s.archives.PathFor(ref), onOutput); err != nil {
			return err
		}
		return nil
	}

	if exists {
		return fmt.Errorf("image %s has no build context and no archive to rebuild from", ref)
	}
	return fmt.Errorf("image %s not found: no build context and no archive %s", ref, archiveHint(s.archives, ref))
}

func archiveHint(archives Archives, ref string) string {
	if archives == nil {
		return "(archive lookup disabled)"
	}
	return archives.PathFor(ref)
}

// waitReady polls the backend health endpoint until it answers 200 or the
// configured timeout elapses.
func (s *Service) waitReady(ctx context.Context, port int) bool {
	timeout := s.cfg.PingTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	url := fmt.Sprintf("%s:%d%s", s.pingBase, port, s.cfg.PingPath)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := s.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(500 * time.Millisecond):
		}
	}
	return false
}

func imageRef(name string, svc compose.Service) string {
	if svc.Image != "" {
		return svc.Image
	}
	return name
}

// runSpec translates a compose service block into container run options.
func runSpec(name string, svc compose.Service, ref string) (docker.RunSpec, error) {
	spec := docker.RunSpec{
		Name:          name,
		Image:         ref,
		Ports:         nat.PortMap{},
		RestartPolicy: svc.Restart,
	}
	if svc.ContainerName != "" {
		spec.Name = svc.ContainerName
	}

	for _, key := range sortedEnvKeys(svc.Environment) {
		spec.Env = append(spec.Env, key+"="+svc.Environment[key])
	}

	for _, entry := range svc.Ports {
		hostPort, containerPort, err := splitPortEntry(entry)
		if err != nil {
			return docker.RunSpec{}, err
		}
		port := nat.Port(strconv.Itoa(containerPort) + "/tcp")
		spec.Ports[port] = append(spec.Ports[port], nat.PortBinding{HostPort: strconv.Itoa(hostPort)})
	}

	for _, entry := range svc.Devices {
		parts := strings.Split(entry, ":")
		binding := docker.DeviceBinding{HostPath: parts[0], ContainerPath: parts[0]}
		if len(parts) > 1 {
			binding.ContainerPath = parts[1]
		}
		if len(parts) > 2 {
			binding.Permissions = parts[2]
		}
		spec.Devices = append(spec.Devices, binding)
	}
	return spec, nil
}

// splitPortEntry parses "H:C", "IP:H:C" and bare "P" (published on the same
// host port) entries.
func splitPortEntry(entry string) (hostPort, containerPort int, err error) {
	parts := strings.Split(entry, ":")
	var host, cont string
	switch len(parts) {
	case 1:
		host, cont = parts[0], parts[0]
	case 2:
		host, cont = parts[0], parts[1]
	case 3:
		host, cont = parts[1], parts[2]
	default:
		return 0, 0, fmt.Errorf("unsupported port entry %q", entry)
	}
	hostPort, err = strconv.Atoi(host)
	if err != nil {
		return 0, 0, fmt.Errorf("unsupported port entry %q", entry)
	}
	containerPort, err = strconv.Atoi(strings.TrimSuffix(cont, "/tcp"))
	if err != nil {
		return 0, 0, fmt.Errorf("unsupported port entry %q", entry)
	}
	return hostPort, containerPort, nil
}

func sortedEnvKeys(env compose.EnvMap) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

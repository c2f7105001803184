// Package setup registers a new camera service: it binds a discovered
// device's serial to a fresh image reference and host port, writes the
// device config the image bakes in, and appends the compose block.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JacobGitz/Amscope-Docker/internal/camera"
	"github.com/JacobGitz/Amscope-Docker/internal/compose"
	"github.com/JacobGitz/Amscope-Docker/internal/deviceconfig"
	"github.com/JacobGitz/Amscope-Docker/internal/docker"
	"github.com/JacobGitz/Amscope-Docker/internal/netutil"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

// usbBusBinding exposes the whole USB bus; the container picks its camera
// by serial, so narrowing to one bus path would break on replug.
const usbBusBinding = "/dev/bus/usb:/dev/bus/usb"

// Builder is the slice of the Docker client this workflow needs.
type Builder interface {
	BuildImage(ctx context.Context, dir, tag string, buildArgs map[string]*string, onOutput docker.OutputCallback) error
}

// Request carries the operator's answers for one new camera service.
type Request struct {
	ComposeFile string
	Image       string
	Tag         string
	// HostPort zero means pick the first free port in the configured range.
	HostPort int
	Device   camera.Device
	Build    bool
}

// Result summarizes what was registered.
type Result struct {
	ServiceName string
	HostPort    int
	Image       string
	ConfigPath  string
	ComposeFile string
}

// Service coordinates the setup workflow.
type Service struct {
	builder Builder
	logger  *slog.Logger
	cfg     config.Station
}

// New creates a setup service.
func New(builder Builder, logger *slog.Logger, cfg config.Station) *Service {
	return &Service{builder: builder, logger: logger, cfg: cfg}
}

// Apply validates the request, claims a host port, writes the device config
// into the controller build context, appends the compose service and
// optionally builds the image. The compose file is only written once every
// check has passed.
func (s *Service) Apply(ctx context.Context, req Request, onOutput docker.OutputCallback) (Result, error) {
	if err := s.validate(req); err != nil {
		return Result{}, err
	}

	reg, err := compose.LoadRegistry(s.cfg.Root)
	if err != nil {
		return Result{}, err
	}
	file, ok := reg.File(req.ComposeFile)
	if !ok {
		return Result{}, fmt.Errorf("compose file %s is not under the station root %s", req.ComposeFile, s.cfg.Root)
	}

	port := req.HostPort
	if port == 0 {
		port, err = s.pickPort(reg)
		if err != nil {
			return Result{}, err
		}
	}

	imageRef := req.Image + ":" + req.Tag
	name := compose.NextServiceName(allServiceNames(reg), "cam")
	svc := compose.Service{
		Image:         imageRef,
		ContainerName: name,
		Environment:   compose.EnvMap{"PORT": strconv.Itoa(s.cfg.InternalPort)},
		Ports:         compose.PortList{fmt.Sprintf("%d:%d", port, s.cfg.InternalPort)},
		Devices:       []string{usbBusBinding},
		Restart:       "unless-stopped",
	}
	if err := reg.Validate(name, svc); err != nil {
		return Result{}, err
	}

	configPath := filepath.Join(s.cfg.ControllerDir, deviceconfig.FileName)
	if err := deviceconfig.Write(configPath, deviceconfig.FromDevice(req.Device)); err != nil {
		return Result{}, err
	}
	s.logger.Info("device config written",
		"path", configPath,
		"serial", req.Device.Serial,
		"device_name", req.Device.Name)

	if err := file.Add(name, svc); err != nil {
		return Result{}, err
	}
	if err := file.Save(); err != nil {
		return Result{}, err
	}
	s.logger.Info("camera service registered",
		"service", name,
		"image", imageRef,
		"host_port", port,
		"compose_file", file.Path)

	if req.Build {
		if err := s.builder.BuildImage(ctx, s.cfg.ControllerDir, imageRef, nil, onOutput); err != nil {
			return Result{}, fmt.Errorf("build %s: %w", imageRef, err)
		}
		s.logger.Info("image built", "image", imageRef)
	}

	return Result{
		ServiceName: name,
		HostPort:    port,
		Image:       imageRef,
		ConfigPath:  configPath,
		ComposeFile: file.Path,
	}, nil
}

func (s *Service) validate(req Request) error {
	if strings.TrimSpace(req.ComposeFile) == "" {
		return fmt.Errorf("compose file is required")
	}
	if strings.TrimSpace(req.Image) == "" || strings.TrimSpace(req.Tag) == "" {
		return fmt.Errorf("image name and tag are required")
	}
	if strings.ContainsAny(req.Tag, ": /") {
		return fmt.Errorf("invalid image tag %q", req.Tag)
	}
	if camera.CanonicalSerial(req.Device.Serial) == "" {
		return fmt.Errorf("selected camera has no usable serial number")
	}
	if req.HostPort != 0 && (req.HostPort < 1 || req.HostPort > 65535) {
		return fmt.Errorf("invalid host port %d", req.HostPort)
	}
	if req.Build && s.builder == nil {
		return fmt.Errorf("docker client required to build")
	}
	return nil
}

// pickPort finds a port that is neither bound on the host right now nor
// claimed by any compose file, running or not.
func (s *Service) pickPort(reg *compose.Registry) (int, error) {
	claimed := reg.UsedHostPorts()
	for p := s.cfg.PortStart; p <= s.cfg.PortEnd; p++ {
		if _, taken := claimed[p]; taken {
			continue
		}
		if _, err := netutil.FreePort(p, p); err != nil {
			continue
		}
		return p, nil
	}
	return 0, fmt.Errorf("no free host port in range %d-%d", s.cfg.PortStart, s.cfg.PortEnd)
}

func allServiceNames(reg *compose.Registry) []string {
	var names []string
	for _, f := range reg.Files() {
		names = append(names, f.ServiceNames()...)
	}
	return names
}

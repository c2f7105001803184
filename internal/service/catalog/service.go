// Package catalog assembles the station's device/image/port bindings into
// one view. The data lives in three places the operator edits separately
// (compose files, the controller device config, the archive directory);
// the catalog joins them and flags gaps.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/JacobGitz/Amscope-Docker/internal/compose"
	"github.com/JacobGitz/Amscope-Docker/internal/deviceconfig"
	"github.com/JacobGitz/Amscope-Docker/internal/service/archive"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

// Entry is one registered service binding.
type Entry struct {
	Service        string `json:"service"`
	ContainerName  string `json:"container_name,omitempty"`
	Image          string `json:"image"`
	HostPort       int    `json:"host_port,omitempty"`
	ComposeFile    string `json:"compose_file"`
	ArchivePresent bool   `json:"archive_present"`
}

// Result is the assembled catalog.
type Result struct {
	Entries []Entry `json:"entries"`
	// Device is the config currently staged in the controller build
	// context; it describes the camera the *next* built image will bind.
	Device      *deviceconfig.Config `json:"device,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Service builds catalogs for a station.
type Service struct {
	cfg config.Station
}

// New creates a catalog service.
func New(cfg config.Station) *Service {
	return &Service{cfg: cfg}
}

// Build walks every compose file under the station root and joins each
// service with its archive. Services without an image are skipped; they
// cannot be cataloged or launched.
func (s *Service) Build() (Result, error) {
	reg, err := compose.LoadRegistry(s.cfg.Root)
	if err != nil {
		return Result{}, err
	}

	res := Result{GeneratedAt: time.Now().UTC()}
	for _, file := range reg.Files() {
		for name, svc := range file.Services() {
			if svc.Image == "" {
				continue
			}
			entry := Entry{
				Service:        name,
				ContainerName:  svc.ContainerName,
				Image:          svc.Image,
				ComposeFile:    file.Path,
				ArchivePresent: s.archivePresent(svc.Image),
			}
			if ports := svc.HostPorts(); len(ports) > 0 {
				entry.HostPort = ports[0]
			}
			res.Entries = append(res.Entries, entry)
		}
	}
	sort.Slice(res.Entries, func(i, j int) bool {
		if res.Entries[i].ComposeFile != res.Entries[j].ComposeFile {
			return res.Entries[i].ComposeFile < res.Entries[j].ComposeFile
		}
		return res.Entries[i].Service < res.Entries[j].Service
	})

	cfgPath := filepath.Join(s.cfg.ControllerDir, deviceconfig.FileName)
	if device, err := deviceconfig.Read(cfgPath); err == nil {
		res.Device = &device
	}
	return res, nil
}

func (s *Service) archivePresent(ref string) bool {
	_, err := os.Stat(filepath.Join(s.cfg.ImageDir, archive.DefaultName(ref)))
	return err == nil
}

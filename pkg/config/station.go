package config

import (
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Station holds runtime configuration for the camera station tooling.
//
// Paths are resolved against Root so a checkout can be moved wholesale. The
// defaults mirror the historical repo layout: compose files live under
// Code/Project, built images are archived under Docker-images and the
// controller build context (Dockerfile + server) sits in
// Code/Project/Controller+fastapi.
type Station struct {
	Root          string
	ComposeDir    string
	ImageDir      string
	ControllerDir string

	// IdentifierBin is the vendor serial identifier helper. It wraps the
	// camera SDK and prints a JSON device list; see internal/camera.
	IdentifierBin     string
	IdentifierTimeout time.Duration

	DockerHost   string
	InternalPort int
	PortStart    int
	PortEnd      int

	DefaultImage string
	DefaultTag   string

	PingPath    string
	PingTimeout time.Duration

	// Addr is the listen address for `camstation serve`.
	Addr string
}

// LoadStation constructs a Station from environment variables, reading an
// optional .env file first.
func LoadStation() Station {
	_ = godotenv.Load()

	root := GetString("CAMSTATION_ROOT", ".")
	return Station{
		Root:              root,
		ComposeDir:        GetString("CAMSTATION_COMPOSE_DIR", filepath.Join(root, "Code", "Project")),
		ImageDir:          GetString("CAMSTATION_IMAGE_DIR", filepath.Join(root, "Docker-images")),
		ControllerDir:     GetString("CAMSTATION_CONTROLLER_DIR", filepath.Join(root, "Code", "Project", "Controller+fastapi")),
		IdentifierBin:     GetString("CAMSTATION_IDENTIFIER", "vendor-serial-identifier"),
		IdentifierTimeout: time.Duration(GetInt("CAMSTATION_IDENTIFIER_TIMEOUT_SECONDS", 20)) * time.Second,
		DockerHost:        GetString("DOCKER_HOST", ""),
		InternalPort:      GetInt("CAMSTATION_INTERNAL_PORT", 8000),
		PortStart:         GetInt("CAMSTATION_PORT_START", 8001),
		PortEnd:           GetInt("CAMSTATION_PORT_END", 8999),
		DefaultImage:      GetString("CAMSTATION_DEFAULT_IMAGE", "amscope-camera-backend"),
		DefaultTag:        GetString("CAMSTATION_DEFAULT_TAG", "camera-1"),
		PingPath:          GetString("CAMSTATION_PING_PATH", "/ping"),
		PingTimeout:       time.Duration(GetInt("CAMSTATION_PING_TIMEOUT_SECONDS", 15)) * time.Second,
		Addr:              GetString("CAMSTATION_ADDR", ":7600"),
	}
}

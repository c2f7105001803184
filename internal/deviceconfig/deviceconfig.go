// Package deviceconfig reads and writes the per-image device_config.json
// baked into each camera container. The containerized server selects its
// camera by the serial number in this file and nothing else.
package deviceconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JacobGitz/Amscope-Docker/internal/camera"
)

// FileName is the config file name expected by the container image.
const FileName = "device_config.json"

// Config mirrors the JSON consumed by the camera server. DeviceID is
// recorded for operator reference only; it is volatile across replugs and
// the server ignores it.
type Config struct {
	DeviceID     string `json:"device_id,omitempty"`
	DeviceName   string `json:"device_name,omitempty"`
	SerialNumber string `json:"serial_number"`
	VendorID     string `json:"vendor_id,omitempty"`
	ProductID    string `json:"product_id,omitempty"`
}

// ErrNoSerial marks a config that cannot select any camera.
var ErrNoSerial = errors.New("device config: missing serial number")

// FromDevice builds a Config from a discovered camera.
func FromDevice(dev camera.Device) Config {
	return Config{
		DeviceID:     dev.ID,
		DeviceName:   dev.Name,
		SerialNumber: dev.Serial,
		VendorID:     dev.VendorID,
		ProductID:    dev.ProductID,
	}
}

// Write stores the config at path (two-space indent, atomic rename), creating
// parent directories as needed.
func Write(path string, cfg Config) error {
	if camera.CanonicalSerial(cfg.SerialNumber) == "" {
		return ErrNoSerial
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode device config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".devcfg-*")
	if err != nil {
		return fmt.Errorf("write device config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write device config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write device config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace device config: %w", err)
	}
	return nil
}

// Read loads a config, tolerating unknown keys. A config without a usable
// serial is rejected.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read device config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if camera.CanonicalSerial(cfg.SerialNumber) == "" {
		return Config{}, fmt.Errorf("%w in %s", ErrNoSerial, path)
	}
	return cfg, nil
}

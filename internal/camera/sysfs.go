package camera

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// SysfsProvider reads USB device descriptors from sysfs. It can't tell a
// camera from any other USB device, so it mostly serves to fill in
// vendor/product ids for serials the SDK reported bare.
type SysfsProvider struct {
	// Root defaults to /sys/bus/usb/devices.
	Root string
}

const defaultSysfsRoot = "/sys/bus/usb/devices"

// Name identifies the provider in merged results.
func (p *SysfsProvider) Name() string { return "sysfs" }

// Enumerate walks the sysfs device directories. Interfaces (entries with a
// colon in the name) and devices without a serial attribute are skipped.
func (p *SysfsProvider) Enumerate(ctx context.Context) ([]Device, error) {
	root := p.Root
	if root == "" {
		root = defaultSysfsRoot
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Device
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		if strings.Contains(entry.Name(), ":") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		serial := readAttr(dir, "serial")
		if serial == "" {
			continue
		}
		dev := Device{
			Serial: serial,
			Name:   readAttr(dir, "product"),
			Source: "sysfs",
		}
		if vid := readAttr(dir, "idVendor"); vid != "" {
			dev.VendorID = "0x" + strings.ToLower(vid)
		}
		if pid := readAttr(dir, "idProduct"); pid != "" {
			dev.ProductID = "0x" + strings.ToLower(pid)
		}
		out = append(out, dev)
	}
	return out, nil
}

func readAttr(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

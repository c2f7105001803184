package camera

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSysfsDevice(t *testing.T, root, name string, attrs map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for attr, value := range attrs {
		if err := os.WriteFile(filepath.Join(dir, attr), []byte(value+"\n"), 0o644); err != nil {
			t.Fatalf("write %s/%s: %v", name, attr, err)
		}
	}
}

func TestSysfsProviderEnumerate(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "1-2", map[string]string{
		"idVendor":  "0547",
		"idProduct": "6310",
		"serial":    "TS-10864",
		"product":   "USB Camera",
	})
	// Interface directories and serial-less hubs must be skipped.
	writeSysfsDevice(t, root, "1-2:1.0", map[string]string{"serial": "iface"})
	writeSysfsDevice(t, root, "usb1", map[string]string{"idVendor": "1d6b", "idProduct": "0002"})

	devices, err := (&SysfsProvider{Root: root}).Enumerate(context.Background())
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d: %v", len(devices), devices)
	}
	dev := devices[0]
	if dev.Serial != "TS-10864" || dev.Name != "USB Camera" {
		t.Errorf("unexpected device: %+v", dev)
	}
	if dev.VendorID != "0x0547" || dev.ProductID != "0x6310" {
		t.Errorf("usb ids not normalized: %+v", dev)
	}
}

func TestSysfsProviderMissingRoot(t *testing.T) {
	devices, err := (&SysfsProvider{Root: filepath.Join(t.TempDir(), "nope")}).Enumerate(context.Background())
	if err != nil {
		t.Fatalf("missing sysfs root should not error: %v", err)
	}
	if devices != nil {
		t.Fatalf("expected nil devices, got %v", devices)
	}
}

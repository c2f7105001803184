package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// VendorProvider shells out to the vendor serial identifier helper. The
// helper links the camera SDK and prints a JSON array of discovered devices;
// keeping it in a separate process means a crashing SDK takes down one
// enumeration, not the station tool.
type VendorProvider struct {
	// Bin is the helper binary, resolved via PATH when not absolute.
	Bin     string
	Timeout time.Duration
}

type vendorRecord struct {
	Source      string `json:"source"`
	Serial      string `json:"serial"`
	DisplayName string `json:"display_name"`
	DeviceID    string `json:"device_id"`
	VendorID    string `json:"vendor_id"`
	ProductID   string `json:"product_id"`
}

// Name identifies the provider in merged results.
func (p *VendorProvider) Name() string { return "vendor" }

// Enumerate runs the helper and decodes its device list. Records without a
// serial are dropped; there is nothing stable to bind them to.
func (p *VendorProvider) Enumerate(ctx context.Context) ([]Device, error) {
	if p.Bin == "" {
		return nil, fmt.Errorf("identifier binary not configured")
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Bin, "--json")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("run %s: %w: %s", p.Bin, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", p.Bin, err)
	}
	return decodeVendorOutput(stdout.Bytes())
}

func decodeVendorOutput(data []byte) ([]Device, error) {
	var records []vendorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode identifier output: %w", err)
	}
	var out []Device
	for _, rec := range records {
		if CanonicalSerial(rec.Serial) == "" {
			continue
		}
		source := rec.Source
		if source == "" {
			source = "vendor"
		}
		out = append(out, Device{
			ID:        rec.DeviceID,
			Name:      rec.DisplayName,
			Serial:    rec.Serial,
			VendorID:  rec.VendorID,
			ProductID: rec.ProductID,
			Source:    source,
		})
	}
	return out, nil
}

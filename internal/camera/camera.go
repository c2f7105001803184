// Package camera discovers lab USB cameras. The vendor SDK itself stays out
// of process: a shipped identifier helper wraps it and prints JSON, and a
// sysfs scan fills in USB ids the SDK doesn't report. Providers are merged
// by serial number, the only identifier that survives re-plugging.
package camera

import (
	"context"
	"strings"
)

// Device describes one discovered camera.
type Device struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Serial    string `json:"serial"`
	VendorID  string `json:"vendor_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Provider enumerates devices from one discovery backend.
type Provider interface {
	Name() string
	Enumerate(ctx context.Context) ([]Device, error)
}

// CanonicalSerial normalizes a serial for comparison: uppercase, with every
// non-alphanumeric character dropped. Serials come back from SDK, USB
// descriptors and hand-edited config files with inconsistent casing and
// stray separators.
func CanonicalSerial(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

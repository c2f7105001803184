package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Filter narrows enumeration results by USB ids, e.g. to a single vendor's
// hardware on a bench full of instruments.
type Filter struct {
	VendorID  string
	ProductID string
}

// Enumerator merges devices from several providers. The first provider is
// authoritative for identity; later providers only contribute missing
// fields, matched by canonical serial.
type Enumerator struct {
	providers []Provider
	logger    *slog.Logger
}

// NewEnumerator builds an enumerator over the given providers, in priority
// order.
func NewEnumerator(logger *slog.Logger, providers ...Provider) *Enumerator {
	return &Enumerator{providers: providers, logger: logger}
}

// Enumerate queries every provider, merges by serial, applies the filter and
// assigns stable indexes (sorted by serial). A provider failing is logged
// and skipped; only all providers failing is an error.
func (e *Enumerator) Enumerate(ctx context.Context, filter Filter) ([]Device, error) {
	bySerial := map[string]*Device{}
	var order []string
	var failures int

	for _, provider := range e.providers {
		devices, err := provider.Enumerate(ctx)
		if err != nil {
			failures++
			if e.logger != nil {
				e.logger.Warn("camera provider failed", "provider", provider.Name(), "error", err)
			}
			continue
		}
		for _, dev := range devices {
			key := CanonicalSerial(dev.Serial)
			if key == "" {
				continue
			}
			existing, ok := bySerial[key]
			if !ok {
				d := dev
				bySerial[key] = &d
				order = append(order, key)
				continue
			}
			mergeDevice(existing, dev)
		}
	}

	if failures == len(e.providers) && len(e.providers) > 0 {
		return nil, fmt.Errorf("all %d camera providers failed", failures)
	}

	sort.Strings(order)
	var out []Device
	for _, key := range order {
		dev := *bySerial[key]
		if !matchesFilter(dev, filter) {
			continue
		}
		dev.Index = len(out)
		out = append(out, dev)
	}
	return out, nil
}

func mergeDevice(dst *Device, src Device) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.ID == "" {
		dst.ID = src.ID
	}
	if dst.VendorID == "" {
		dst.VendorID = src.VendorID
	}
	if dst.ProductID == "" {
		dst.ProductID = src.ProductID
	}
}

func matchesFilter(dev Device, filter Filter) bool {
	if filter.VendorID != "" && !strings.EqualFold(dev.VendorID, filter.VendorID) {
		return false
	}
	if filter.ProductID != "" && !strings.EqualFold(dev.ProductID, filter.ProductID) {
		return false
	}
	return true
}

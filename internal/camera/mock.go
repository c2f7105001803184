package camera

import "context"

// MockProvider serves canned devices in tests.
type MockProvider struct {
	Devices []Device
	Err     error
}

// Name identifies the provider in merged results.
func (m *MockProvider) Name() string { return "mock" }

// Enumerate returns the canned devices or error.
func (m *MockProvider) Enumerate(_ context.Context) ([]Device, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]Device, len(m.Devices))
	copy(out, m.Devices)
	return out, nil
}

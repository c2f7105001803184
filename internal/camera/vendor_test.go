package camera

import "testing"

func TestDecodeVendorOutput(t *testing.T) {
	payload := []byte(`[
  {
    "source": "amcam",
    "serial": "TS-10864",
    "display_name": "AmScope MU1000",
    "device_id": "cam-id-0",
    "vendor_id": "0x0547",
    "product_id": "0x6310"
  },
  {
    "source": "amcam",
    "serial": "",
    "display_name": "ghost entry"
  }
]`)
	devices, err := decodeVendorOutput(payload)
	if err != nil {
		t.Fatalf("decodeVendorOutput: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("serial-less record should be dropped, got %d devices", len(devices))
	}
	dev := devices[0]
	if dev.Serial != "TS-10864" || dev.Name != "AmScope MU1000" || dev.ID != "cam-id-0" {
		t.Errorf("unexpected device: %+v", dev)
	}
	if dev.VendorID != "0x0547" || dev.ProductID != "0x6310" {
		t.Errorf("usb ids not carried: %+v", dev)
	}
	if dev.Source != "amcam" {
		t.Errorf("source not carried: %+v", dev)
	}
}

func TestDecodeVendorOutputEmpty(t *testing.T) {
	devices, err := decodeVendorOutput([]byte(`[]`))
	if err != nil {
		t.Fatalf("decodeVendorOutput: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices, got %v", devices)
	}
}

func TestDecodeVendorOutputGarbage(t *testing.T) {
	if _, err := decodeVendorOutput([]byte("amcam import failed")); err == nil {
		t.Fatal("expected decode error for non-JSON output")
	}
}

package docker

import (
	"strings"
	"testing"
)

func TestConsumeStreamRendersLines(t *testing.T) {
	body := strings.NewReader(`{"stream":"Step 1/4 : FROM python:3.11-slim\n"}
{"status":"Downloading","id":"abc123","progressDetail":{"current":5,"total":10}}
{"stream":"Successfully built deadbeef\n"}
`)
	var lines []string
	if err := consumeStream(body, func(line string) { lines = append(lines, line) }); err != nil {
		t.Fatalf("consumeStream: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %v", lines)
	}
	if lines[0] != "Step 1/4 : FROM python:3.11-slim" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "abc123 Downloading 5/10" {
		t.Errorf("unexpected progress line: %q", lines[1])
	}
}

func TestConsumeStreamSurfacesErrors(t *testing.T) {
	body := strings.NewReader(`{"stream":"Step 1/4\n"}
{"errorDetail":{"message":"COPY failed: device_config.json not found"},"error":"COPY failed: device_config.json not found"}
`)
	err := consumeStream(body, nil)
	if err == nil || !strings.Contains(err.Error(), "COPY failed") {
		t.Fatalf("expected embedded build error, got %v", err)
	}
}

func TestParseLoadedRef(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Loaded image: amscope-camera-backend:camera-1\n", "amscope-camera-backend:camera-1"},
		{"Loaded image ID: sha256:deadbeef\n", "sha256:deadbeef"},
		{"something else entirely", ""},
	}
	for _, tc := range cases {
		if got := parseLoadedRef(tc.in, nil); got != tc.want {
			t.Errorf("parseLoadedRef(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

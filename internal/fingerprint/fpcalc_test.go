package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fpcalc")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("Failed to write stub: %v", err)
	}
	return path
}

func TestGenerate(t *testing.T) {
	stub := writeStub(t, `echo '{"duration":215.7,"fingerprint":"AQAAjEmUaEkSRZEG"}'`)

	fp, err := NewFpcalc(stub).Generate(context.Background(), "/music/track.mp3")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if fp.Fingerprint != "AQAAjEmUaEkSRZEG" {
		t.Errorf("Unexpected fingerprint: %q", fp.Fingerprint)
	}
	if fp.Duration != 215.7 {
		t.Errorf("Unexpected duration: %v", fp.Duration)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"process failure", "exit 2"},
		{"bad json", "echo not-json"},
		{"empty fingerprint", `echo '{"duration":10,"fingerprint":""}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := writeStub(t, tt.body)
			if _, err := NewFpcalc(stub).Generate(context.Background(), "/x.mp3"); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

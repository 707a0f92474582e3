package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// Fingerprint is a Chromaprint acoustic fingerprint with the track duration
// fpcalc derived it from.
type Fingerprint struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// Generator computes an acoustic fingerprint for an audio file.
type Generator interface {
	Generate(ctx context.Context, path string) (*Fingerprint, error)
}

// Fpcalc shells out to the chromaprint fpcalc binary.
type Fpcalc struct {
	binary string
}

func NewFpcalc(binary string) *Fpcalc {
	return &Fpcalc{binary: binary}
}

func (f *Fpcalc) Generate(ctx context.Context, path string) (*Fingerprint, error) {
	out, err := exec.CommandContext(ctx, f.binary, "-json", path).Output()
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", f.binary, err)
	}

	var fp Fingerprint
	if err := json.Unmarshal(out, &fp); err != nil {
		return nil, fmt.Errorf("parsing fpcalc output: %w", err)
	}
	if fp.Fingerprint == "" {
		return nil, fmt.Errorf("fpcalc produced no fingerprint for %s", path)
	}
	return &fp, nil
}

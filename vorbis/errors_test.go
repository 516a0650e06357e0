package vorbis

import (
	"bytes"
	"errors"
	"testing"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

func TestOptimizerErrorMatchesSentinelViaErrorsIs(t *testing.T) {
	err := newInvalidModeIndexError(3, 2)
	if !errors.Is(err, ErrInvalidModeIndex) {
		t.Fatalf("errors.Is(err, ErrInvalidModeIndex) = false, want true")
	}
	if errors.Is(err, ErrInvalidCodebookIndex) {
		t.Fatalf("errors.Is(err, ErrInvalidCodebookIndex) = true, want false")
	}

	var optErr *OptimizerError
	if !errors.As(err, &optErr) {
		t.Fatalf("errors.As into *OptimizerError failed")
	}
	if optErr.Kind != KindInvalidModeIndex || optErr.Index != 3 || optErr.Bound != 2 {
		t.Fatalf("unexpected fields: %+v", optErr)
	}
}

func TestWalkModeAndWindowReportsStructuredModeIndexError(t *testing.T) {
	setup, _ := sampleWalkerSetup(t)
	ident := IdentificationData{Channels: 1, Blocksize0: 64, Blocksize1: 128}

	// Three modes means modeBits = ilog(2) = 2, covering values 0-3; value
	// 3 is out of range against a 3-mode setup (valid indices 0-2).
	setup.Modes = append(setup.Modes,
		ModeConfiguration{BlockFlag: false, Mapping: 0},
		ModeConfiguration{BlockFlag: false, Mapping: 0},
	)

	var buf bytes.Buffer
	out := bitpack.NewWriter(&buf)
	out.WriteUnsignedInteger(3, w(2))
	out.Flush()

	r := bitpack.NewReader(bytes.NewReader(buf.Bytes()))
	_, _, err := walkModeAndWindow(r, ident, setup, func(uint32, uint8) error { return nil })
	if err == nil {
		t.Fatalf("expected error for out-of-range mode index")
	}
	if !errors.Is(err, ErrInvalidModeIndex) {
		t.Fatalf("err = %v, want ErrInvalidModeIndex", err)
	}
	var optErr *OptimizerError
	if !errors.As(err, &optErr) || optErr.Kind != KindInvalidModeIndex {
		t.Fatalf("expected *OptimizerError with KindInvalidModeIndex, got %v", err)
	}
}

package vorbis

import (
	"errors"
	"math"
	"testing"
)

func TestLookup1Values(t *testing.T) {
	cases := []struct {
		entries    uint32
		dimensions uint16
		want       uint32
	}{
		{100, 5, 2},
		{1, 5, 1},
		{0, math.MaxUint16, 0},
		{0xFFFFFF, 0, math.MaxUint32},
		{0xFFFFFF, math.MaxUint16, 1},
	}

	for _, c := range cases {
		got := lookup1Values(c.entries, c.dimensions)
		if got != c.want {
			t.Errorf("lookup1Values(%d, %d) = %d, want %d", c.entries, c.dimensions, got, c.want)
		}
	}
}

func TestCodebookRecordingTallies(t *testing.T) {
	lengths := []uint8{2, 4, 4, 4, 4, 2, 3, 3}
	cb, err := NewCodebook(CodebookConfiguration{Dimensions: 1, Entries: uint32(len(lengths)), Lengths: lengths})
	if err != nil {
		t.Fatalf("NewCodebook: %v", err)
	}

	codewords, err := buildCodewords(lengths)
	if err != nil {
		t.Fatalf("buildCodewords: %v", err)
	}

	decodeEntry := func(entry int) {
		cw := codewords[entry]
		bits := make([]bool, cw.length)
		for i := 0; i < int(cw.length); i++ {
			shift := int(cw.length) - 1 - i
			bits[i] = (cw.bits>>uint(shift))&1 != 0
		}
		got, err := cb.DecodeEntryNumber(&fixedBits{bits: bits})
		if err != nil {
			t.Fatalf("DecodeEntryNumber(entry %d): %v", entry, err)
		}
		if got != uint32(entry) {
			t.Fatalf("DecodeEntryNumber(entry %d) = %d", entry, got)
		}
	}

	decodeEntry(5)
	decodeEntry(5)
	decodeEntry(5)
	decodeEntry(0)

	if cb.freq[5] != 3 {
		t.Fatalf("freq[5] = %d, want 3", cb.freq[5])
	}
	if cb.freq[0] != 1 {
		t.Fatalf("freq[0] = %d, want 1", cb.freq[0])
	}
}

func TestCodebookTransitionToOptimizing(t *testing.T) {
	lengths := []uint8{2, 4, 4, 4, 4, 2, 3, 3}
	cb, err := NewCodebook(CodebookConfiguration{Dimensions: 1, Entries: uint32(len(lengths)), Lengths: lengths})
	if err != nil {
		t.Fatalf("NewCodebook: %v", err)
	}

	cb.freq[5] = 100
	cb.freq[0] = 1

	if err := cb.Transition(); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if cb.freq != nil {
		t.Fatal("freq should be nil after Transition")
	}

	bits, length, ok := cb.OptimalCodewords().Lookup(5)
	if !ok {
		t.Fatal("entry 5 (the most frequent) should have an assigned codeword")
	}
	if length == 0 {
		t.Fatal("entry 5 codeword length should be nonzero")
	}
	_ = bits
}

func TestCodebookTransitionTwicePanics(t *testing.T) {
	cb, err := NewCodebook(CodebookConfiguration{Dimensions: 1, Entries: 1, Lengths: []uint8{1}})
	if err != nil {
		t.Fatalf("NewCodebook: %v", err)
	}
	if err := cb.Transition(); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected second Transition to panic")
		}
	}()
	_ = cb.Transition()
}

func TestCodebookDecodeEntryNumberUnderspecified(t *testing.T) {
	cb, err := NewCodebook(CodebookConfiguration{Dimensions: 1, Entries: 1, Lengths: []uint8{2}})
	if err != nil {
		t.Fatalf("NewCodebook: %v", err)
	}

	_, err = cb.DecodeEntryNumber(&fixedBits{bits: []bool{true, true}})
	if !errors.Is(err, ErrUnderspecifiedTree) {
		t.Fatalf("DecodeEntryNumber into unassigned branch = %v, want ErrUnderspecifiedTree", err)
	}
}

func TestCodebookDecodeEntryNumberEndOfPacket(t *testing.T) {
	cb, err := NewCodebook(CodebookConfiguration{Dimensions: 1, Entries: 1, Lengths: []uint8{2}})
	if err != nil {
		t.Fatalf("NewCodebook: %v", err)
	}

	_, err = cb.DecodeEntryNumber(&fixedBits{bits: []bool{false}})
	if !errors.Is(err, ErrEndOfPacketDecodingEntry) {
		t.Fatalf("DecodeEntryNumber with exhausted source = %v, want ErrEndOfPacketDecodingEntry", err)
	}
}

package vorbis

import "testing"

func sampleIdentificationData() IdentificationData {
	return IdentificationData{
		Channels:       2,
		SampleRate:     8000,
		BitrateMaximum: -1,
		BitrateNominal: 64000,
		BitrateMinimum: -1,
		Blocksize0:     256,
		Blocksize1:     2048,
	}
}

func TestIdentificationHeaderRoundTrip(t *testing.T) {
	want := sampleIdentificationData()
	packet := EncodeIdentificationHeader(want)

	if len(packet) != identificationHeaderMinSize {
		t.Fatalf("encoded identification header length = %d, want %d", len(packet), identificationHeaderMinSize)
	}

	got, err := ParseIdentificationHeader(packet)
	if err != nil {
		t.Fatalf("ParseIdentificationHeader: %v", err)
	}
	if got != want {
		t.Fatalf("ParseIdentificationHeader = %+v, want %+v", got, want)
	}
}

func TestIdentificationHeaderRejectsTooSmall(t *testing.T) {
	packet := EncodeIdentificationHeader(sampleIdentificationData())
	if _, err := ParseIdentificationHeader(packet[:identificationHeaderMinSize-1]); err != ErrPacketTooSmall {
		t.Fatalf("ParseIdentificationHeader(29 bytes) = %v, want ErrPacketTooSmall", err)
	}
}

func TestIdentificationHeaderRejectsBadBlocksize(t *testing.T) {
	bad := sampleIdentificationData()
	bad.Blocksize1 = 128
	bad.Blocksize0 = 256 // blocksize_0 > blocksize_1 is invalid
	packet := EncodeIdentificationHeader(bad)
	if _, err := ParseIdentificationHeader(packet); err != ErrInvalidBlocksize {
		t.Fatalf("ParseIdentificationHeader(swapped blocksizes) = %v, want ErrInvalidBlocksize", err)
	}
}

func TestIdentificationHeaderRejectsWrongSignature(t *testing.T) {
	packet := EncodeIdentificationHeader(sampleIdentificationData())
	packet[1] = 'X'
	if _, err := ParseIdentificationHeader(packet); err != ErrInvalidSignature {
		t.Fatalf("ParseIdentificationHeader(bad signature) = %v, want ErrInvalidSignature", err)
	}
}

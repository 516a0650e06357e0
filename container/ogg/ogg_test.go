package ogg

import (
	"bytes"
	"io"
	"testing"
)

func TestPacketWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPacketWriter(&buf)

	packets := [][]byte{
		bytes.Repeat([]byte("A"), 10),
		bytes.Repeat([]byte("B"), 600), // spans more than one 255-byte segment
		bytes.Repeat([]byte("C"), 3),
	}
	policies := []PageEndPolicy{EndPage, NormalPacket, EndStream}
	granules := []uint64{0, 0, 4096}

	for i, p := range packets {
		if err := pw.WritePacket(p, 1, policies[i], granules[i]); err != nil {
			t.Fatalf("WritePacket(%d): %v", i, err)
		}
	}

	pr := NewPacketReader(&buf)
	for i, want := range packets {
		got, err := pr.ReadPacket()
		if err != nil {
			t.Fatalf("ReadPacket(%d): %v", i, err)
		}
		if !bytes.Equal(got.Data, want) {
			t.Fatalf("packet %d: got %d bytes, want %d", i, len(got.Data), len(want))
		}
		if got.Serial != 1 {
			t.Fatalf("packet %d: serial = %d, want 1", i, got.Serial)
		}
		if i == 0 && !got.FirstInStream {
			t.Fatal("first packet should have FirstInStream set")
		}
		if i == len(packets)-1 && !got.LastInStream {
			t.Fatal("last packet should have LastInStream set")
		}
	}

	if _, err := pr.ReadPacket(); err != io.EOF {
		t.Fatalf("ReadPacket after stream end = %v, want io.EOF", err)
	}
}

func TestPacketWriterReaderChainedStreams(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPacketWriter(&buf)

	if err := pw.WritePacket([]byte("stream1-only-packet"), 11, EndStream, 100); err != nil {
		t.Fatalf("WritePacket stream 11: %v", err)
	}
	if err := pw.WritePacket([]byte("stream2-only-packet"), 22, EndStream, 200); err != nil {
		t.Fatalf("WritePacket stream 22: %v", err)
	}

	pr := NewPacketReader(&buf)

	first, err := pr.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if first.Serial != 11 || !first.FirstInStream || !first.LastInStream {
		t.Fatalf("first packet = %+v, want serial 11 first+last in stream", first)
	}

	second, err := pr.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if second.Serial != 22 || !second.FirstInStream || !second.LastInStream {
		t.Fatalf("second packet = %+v, want serial 22 first+last in stream", second)
	}
}

func TestPacketWriterRejectsWriteAfterEndStream(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPacketWriter(&buf)

	if err := pw.WritePacket([]byte("x"), 1, EndStream, 0); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if err := pw.WritePacket([]byte("y"), 1, NormalPacket, 0); err != ErrUnexpectedEOS {
		t.Fatalf("WritePacket after EndStream = %v, want ErrUnexpectedEOS", err)
	}
}

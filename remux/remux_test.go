package remux

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/optivorbis/optivorbis-go/bitpack"
	"github.com/optivorbis/optivorbis-go/container/ogg"
	"github.com/optivorbis/optivorbis-go/vorbis"
)

func w(n int) bitpack.Width {
	width, err := bitpack.NewWidth(n)
	if err != nil {
		panic(err)
	}
	return width
}

// sampleSetup builds the smallest legal setup header matching the
// identification header used throughout this file: one codebook, one
// floor with no master/subclass books, one interleaved residue, one
// mapping, one mode.
func sampleSetup() *vorbis.SetupData {
	return &vorbis.SetupData{
		Codebooks: []vorbis.CodebookConfiguration{
			{Dimensions: 1, Entries: 2, Lengths: []uint8{1, 1}, LookupType: vorbis.VectorLookupNone},
		},
		Floors: []vorbis.FloorConfiguration{
			{
				PartitionClassList: []uint8{0},
				Classes: []vorbis.FloorClass{
					{Dimensions: 1, SubclassBits: 0, MasterBook: -1, SubclassBooks: []int16{-1}},
				},
				Multiplier: 1,
				RangeBits:  4,
				XList:      []uint32{0},
			},
		},
		Residues: []vorbis.ResidueConfiguration{
			{
				Type:            vorbis.ResidueInterleaved,
				Begin:           0,
				End:             8,
				PartitionSize:   4,
				Classifications: 2,
				ClassBook:       0,
				Books: [][8]int16{
					{-1, -1, -1, -1, -1, -1, -1, -1},
					{-1, -1, -1, -1, -1, -1, -1, -1},
				},
			},
		},
		Mappings: []vorbis.MappingConfiguration{
			{Submaps: []vorbis.SubmapEntry{{Floor: 0, Residue: 0}}},
		},
		Modes: []vorbis.ModeConfiguration{
			{BlockFlag: false, Mapping: 0},
		},
	}
}

// buildAudioPacket hand-assembles one audio packet matching sampleSetup's
// single mode/submap/channel configuration (mirrors
// vorbis.buildWalkerPacket, rebuilt here with only exported API since
// this file lives outside the vorbis package).
func buildAudioPacket() []byte {
	var buf bytes.Buffer
	out := bitpack.NewWriter(&buf)

	out.WriteUnsignedInteger(0, w(1)) // packet-type bit
	// mode index is a zero-width field: nothing to write
	out.WriteFlag(true) // has audio energy
	out.WriteUnsignedInteger(130, w(8))
	out.WriteUnsignedInteger(200, w(8))
	out.WriteUnsignedInteger(0, w(1)) // partition 0 classbook entry
	out.WriteUnsignedInteger(1, w(1)) // partition 1 classbook entry

	out.Flush()
	return buf.Bytes()
}

// buildSourceStream packs one complete, minimal Ogg Vorbis logical
// bitstream (identification, comment, setup, one audio packet) under
// serial into an Ogg physical bitstream.
func buildSourceStream(t *testing.T, serial uint32, ident vorbis.IdentificationData, comment vorbis.CommentData) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := ogg.NewPacketWriter(&buf)

	idPacket := vorbis.EncodeIdentificationHeader(ident)
	if err := writer.WritePacket(idPacket, serial, ogg.EndPage, 0); err != nil {
		t.Fatalf("write identification packet: %v", err)
	}

	commentPacket := vorbis.EncodeCommentHeader(comment)
	if err := writer.WritePacket(commentPacket, serial, ogg.EndPage, 0); err != nil {
		t.Fatalf("write comment packet: %v", err)
	}

	setupPacket := vorbis.EncodeSetupHeader(sampleSetup(), int(ident.Channels))
	if err := writer.WritePacket(setupPacket, serial, ogg.EndPage, 0); err != nil {
		t.Fatalf("write setup packet: %v", err)
	}

	audioPacket := buildAudioPacket()
	if err := writer.WritePacket(audioPacket, serial, ogg.EndStream, 16); err != nil {
		t.Fatalf("write audio packet: %v", err)
	}

	return buf.Bytes()
}

func TestOggToOggRemuxesSingleVorbisStream(t *testing.T) {
	ident := vorbis.IdentificationData{
		Channels: 1, SampleRate: 44100,
		BitrateMaximum: 0, BitrateNominal: 128000, BitrateMinimum: 0,
		Blocksize0: 64, Blocksize1: 128,
	}
	comment := vorbis.CommentData{Vendor: []byte("test encoder"), Comments: [][]byte{[]byte("TITLE=x")}}

	source := buildSourceStream(t, 1, ident, comment)

	var sink bytes.Buffer
	oo := New(Settings{
		RandomizeStreamSerials: false,
		FirstStreamSerialOffset: 7,
		ErrorOnNoVorbisStreams: true,
		Mangler:                PassthroughMangler{},
	})

	if _, err := oo.Remux(bytes.NewReader(source), &sink); err != nil {
		t.Fatalf("Remux: %v", err)
	}

	reader := ogg.NewPacketReader(bytes.NewReader(sink.Bytes()))

	idPkt, err := reader.ReadPacket()
	if err != nil {
		t.Fatalf("read identification packet: %v", err)
	}
	if idPkt.Serial != 7 {
		t.Fatalf("output serial = %d, want 7", idPkt.Serial)
	}
	gotIdent, err := vorbis.ParseIdentificationHeader(idPkt.Data)
	if err != nil {
		t.Fatalf("ParseIdentificationHeader: %v", err)
	}
	if gotIdent != ident {
		t.Fatalf("identification mismatch: got %+v, want %+v", gotIdent, ident)
	}

	commentPkt, err := reader.ReadPacket()
	if err != nil {
		t.Fatalf("read comment packet: %v", err)
	}
	gotComment, err := vorbis.ParseCommentHeader(commentPkt.Data)
	if err != nil {
		t.Fatalf("ParseCommentHeader: %v", err)
	}
	if !bytes.Equal(gotComment.Vendor, comment.Vendor) {
		t.Fatalf("vendor = %q, want %q", gotComment.Vendor, comment.Vendor)
	}

	setupPkt, err := reader.ReadPacket()
	if err != nil {
		t.Fatalf("read setup packet: %v", err)
	}
	gotSetup, err := vorbis.ParseSetupHeader(setupPkt.Data, int(ident.Channels), false)
	if err != nil {
		t.Fatalf("ParseSetupHeader: %v", err)
	}

	audioPkt, err := reader.ReadPacket()
	if err != nil {
		t.Fatalf("read audio packet: %v", err)
	}
	if !audioPkt.LastInStream {
		t.Fatalf("audio packet should be last in stream")
	}

	codebooks := make([]*vorbis.Codebook, len(gotSetup.Codebooks))
	for i, cfg := range gotSetup.Codebooks {
		cb, err := vorbis.NewCodebook(cfg)
		if err != nil {
			t.Fatalf("NewCodebook: %v", err)
		}
		codebooks[i] = cb
	}

	r := bitpack.NewReader(bytes.NewReader(audioPkt.Data))
	kept, blocksize, err := vorbis.WalkAudioPacket(r, gotIdent, gotSetup, codebooks,
		func(uint32, uint8) error { return nil },
		func(int, uint32) error { return nil },
	)
	if err != nil {
		t.Fatalf("WalkAudioPacket: %v", err)
	}
	if !kept {
		t.Fatalf("kept = false, want true")
	}
	if blocksize != 64 {
		t.Fatalf("blocksize = %d, want 64", blocksize)
	}

	if _, err := reader.ReadPacket(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after last packet, got %v", err)
	}
}

func TestOggToOggSkipsNonVorbisStream(t *testing.T) {
	var buf bytes.Buffer
	writer := ogg.NewPacketWriter(&buf)
	if err := writer.WritePacket([]byte("not vorbis at all, just filler bytes"), 99, ogg.EndStream, 0); err != nil {
		t.Fatalf("write non-vorbis packet: %v", err)
	}

	oo := New(Settings{ErrorOnNoVorbisStreams: false})
	var sink bytes.Buffer
	if _, err := oo.Remux(bytes.NewReader(buf.Bytes()), &sink); err != nil {
		t.Fatalf("Remux: %v", err)
	}
	if sink.Len() != 0 {
		t.Fatalf("sink should stay empty, got %d bytes", sink.Len())
	}
}

func TestOggToOggErrorsOnNoVorbisStreamsByDefault(t *testing.T) {
	var buf bytes.Buffer
	writer := ogg.NewPacketWriter(&buf)
	if err := writer.WritePacket([]byte("still not vorbis"), 5, ogg.EndStream, 0); err != nil {
		t.Fatalf("write non-vorbis packet: %v", err)
	}

	oo := NewWithDefaults()
	var sink bytes.Buffer
	_, err := oo.Remux(bytes.NewReader(buf.Bytes()), &sink)
	if err != ErrNoVorbisStreams {
		t.Fatalf("err = %v, want ErrNoVorbisStreams", err)
	}
}

package ogg

import "io"

// PageEndPolicy tells the PacketWriter whether the page currently being
// built must be closed off after the packet just written.
type PageEndPolicy int

const (
	// NormalPacket keeps accumulating packets into the current page.
	NormalPacket PageEndPolicy = iota
	// EndPage flushes the current page once this packet is written.
	EndPage
	// EndStream flushes the current page with the end-of-stream flag set;
	// no further packets may be written for this serial afterward.
	EndStream
)

// maxPageSegments is the largest segment table a single Ogg page can carry
// (the table length is stored in one byte).
const maxPageSegments = 255

// streamWriteState accumulates segments/payload for the page currently
// being built for one logical stream serial.
type streamWriteState struct {
	pageSeq      uint32
	segments     []byte
	payload      []byte
	bosWritten   bool
	streamClosed bool
	continued    bool // the next page begins with the rest of a split packet
}

// PacketWriter muxes packets from one or more logical streams into an Ogg
// physical bitstream, packing as many packets per page as the caller's
// PageEndPolicy choices allow.
type PacketWriter struct {
	w       io.Writer
	streams map[uint32]*streamWriteState
}

// NewPacketWriter returns a PacketWriter writing pages to w.
func NewPacketWriter(w io.Writer) *PacketWriter {
	return &PacketWriter{w: w, streams: make(map[uint32]*streamWriteState)}
}

func (pw *PacketWriter) streamFor(serial uint32) *streamWriteState {
	st := pw.streams[serial]
	if st == nil {
		st = &streamWriteState{}
		pw.streams[serial] = st
	}
	return st
}

// WritePacket appends data to the page currently being built for serial,
// splitting across continuation pages if the page's segment table would
// overflow, then honors policy: NormalPacket leaves the page open,
// EndPage/EndStream flush it with granulePos as the page's granule position.
func (pw *PacketWriter) WritePacket(data []byte, serial uint32, policy PageEndPolicy, granulePos uint64) error {
	st := pw.streamFor(serial)
	if st.streamClosed {
		return ErrUnexpectedEOS
	}

	segs := BuildSegmentTable(len(data))
	offset := 0

	for len(segs) > 0 {
		room := maxPageSegments - len(st.segments)
		if room <= 0 {
			if err := pw.flushPage(st, serial, 0, false); err != nil {
				return err
			}
			room = maxPageSegments
		}

		take := len(segs)
		if take > room {
			take = room
		}

		chunk := segs[:take]
		chunkLen := 0
		for _, s := range chunk {
			chunkLen += int(s)
		}

		st.segments = append(st.segments, chunk...)
		st.payload = append(st.payload, data[offset:offset+chunkLen]...)
		offset += chunkLen
		segs = segs[take:]

		if len(segs) > 0 {
			// The page is full but the packet continues: flush as a
			// continuation page and keep packing the remainder.
			if err := pw.flushPage(st, serial, 0, false); err != nil {
				return err
			}
		}
	}

	switch policy {
	case EndPage:
		return pw.flushPage(st, serial, granulePos, false)
	case EndStream:
		if err := pw.flushPage(st, serial, granulePos, true); err != nil {
			return err
		}
		st.streamClosed = true
		return nil
	default:
		return nil
	}
}

// flushPage writes the accumulated segments/payload for st as one page and
// resets the accumulator. eos sets the end-of-stream flag.
func (pw *PacketWriter) flushPage(st *streamWriteState, serial uint32, granulePos uint64, eos bool) error {
	var headerType byte
	if !st.bosWritten {
		headerType |= PageFlagBOS
	}
	if eos {
		headerType |= PageFlagEOS
	}
	if st.continued {
		headerType |= PageFlagContinuation
	}

	page := &Page{
		Version:      0,
		HeaderType:   headerType,
		GranulePos:   granulePos,
		SerialNumber: serial,
		PageSequence: st.pageSeq,
		Segments:     st.segments,
		Payload:      st.payload,
	}

	if _, err := pw.w.Write(page.Encode()); err != nil {
		return err
	}

	// A page whose last segment is 255 ends mid-packet.
	st.continued = len(st.segments) > 0 && st.segments[len(st.segments)-1] == 255
	st.bosWritten = true
	st.pageSeq++
	st.segments = nil
	st.payload = nil
	return nil
}

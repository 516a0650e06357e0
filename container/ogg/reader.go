package ogg

import "io"

// Packet is one packet demultiplexed from an Ogg physical bitstream. The
// PacketReader is codec-agnostic: it knows nothing about the payload beyond
// where packet boundaries fall within and across pages.
type Packet struct {
	// Data is the packet payload, reassembled across continuation pages
	// when necessary.
	Data []byte

	// Serial identifies the logical bitstream this packet belongs to.
	Serial uint32

	// FirstInStream is true for the first packet read from this serial
	// (the first packet of its BOS page).
	FirstInStream bool

	// LastInStream is true for the last packet completed on an EOS page
	// for this serial.
	LastInStream bool

	// LastInPage is true when this packet is the last one completed on
	// its page, regardless of whether a further packet continues onto
	// the next page.
	LastInPage bool

	// GranulePos is the granule position of the page this packet
	// completed on.
	GranulePos uint64

	// Checksum is the CRC-32 of the page this packet completed on.
	Checksum uint32
}

// streamReadState tracks per-serial continuation and first/last bookkeeping.
type streamReadState struct {
	pending []byte
	started bool
}

// readerBufferSize is the initial size of the internal page-assembly buffer.
const readerBufferSize = 64 * 1024

// PacketReader demultiplexes packets from an Ogg physical bitstream that may
// contain several interleaved or chained logical bitstreams, identified by
// page serial number.
type PacketReader struct {
	r    io.Reader
	eof  bool
	buf  []byte
	off  int
	n    int
	pend []Packet

	streams map[uint32]*streamReadState
}

// NewPacketReader returns a PacketReader reading pages from r.
func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{
		r:       r,
		buf:     make([]byte, readerBufferSize),
		streams: make(map[uint32]*streamReadState),
	}
}

// ReadPacket returns the next packet in page order across all logical
// streams multiplexed into the physical bitstream. Returns io.EOF once the
// underlying reader is exhausted and every buffered packet has been
// delivered.
func (pr *PacketReader) ReadPacket() (Packet, error) {
	for len(pr.pend) == 0 {
		page, err := pr.readPage()
		if err != nil {
			return Packet{}, err
		}
		pr.ingestPage(page)
	}

	pkt := pr.pend[0]
	pr.pend = pr.pend[1:]
	return pkt, nil
}

func (pr *PacketReader) streamFor(serial uint32) *streamReadState {
	st := pr.streams[serial]
	if st == nil {
		st = &streamReadState{}
		pr.streams[serial] = st
	}
	return st
}

// ingestPage splits a page's payload into complete packets (appending to
// pr.pend) and, if the page's final segment run is unterminated, stashes the
// trailing bytes on the owning stream's continuation buffer.
func (pr *PacketReader) ingestPage(page *Page) {
	st := pr.streamFor(page.SerialNumber)
	lengths := page.PacketLengths()

	offset := 0
	for i, length := range lengths {
		data := page.Payload[offset : offset+length]
		offset += length

		if i == 0 && len(st.pending) > 0 {
			full := append(st.pending, data...)
			st.pending = nil
			data = full
		}

		pkt := Packet{
			Data:       data,
			Serial:     page.SerialNumber,
			GranulePos: page.GranulePos,
			Checksum:   page.Checksum,
			LastInPage: i == len(lengths)-1,
		}
		if !st.started {
			pkt.FirstInStream = true
			st.started = true
		}
		if page.IsEOS() && i == len(lengths)-1 {
			pkt.LastInStream = true
		}
		pr.pend = append(pr.pend, pkt)
	}

	if len(page.Segments) > 0 && page.Segments[len(page.Segments)-1] == 255 {
		rest := page.Payload[offset:]
		st.pending = append(append([]byte{}, st.pending...), rest...)
	}
}

// readPage reads and parses the next page, growing the internal buffer and
// refilling from the underlying reader as needed.
func (pr *PacketReader) readPage() (*Page, error) {
	for {
		if pr.n > pr.off {
			page, consumed, err := ParsePage(pr.buf[pr.off:pr.n])
			if err == nil {
				pr.off += consumed
				return page, nil
			}
		}

		if pr.eof {
			return nil, io.EOF
		}

		if pr.off > 0 {
			remaining := pr.n - pr.off
			copy(pr.buf, pr.buf[pr.off:pr.n])
			pr.n = remaining
			pr.off = 0
		}

		if pr.n >= len(pr.buf) {
			grown := make([]byte, len(pr.buf)*2)
			copy(grown, pr.buf[:pr.n])
			pr.buf = grown
		}

		read, err := pr.r.Read(pr.buf[pr.n:])
		if read > 0 {
			pr.n += read
		}
		if err != nil {
			if err == io.EOF {
				pr.eof = true
				continue
			}
			return nil, err
		}
	}
}

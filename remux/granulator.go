package remux

// Granulator recomputes each output packet's granule position from
// scratch (§4.8), since re-emitted codebooks change packet boundaries
// but never change the underlying sample count per packet. One
// Granulator is scoped to a single logical Vorbis output stream.
type Granulator struct {
	ignoreStartOffset bool

	started       bool
	lastGP        int64
	lastBlocksize uint32

	offset    int64
	offsetSet bool
}

// NewGranulator returns a Granulator for one stream, configured from the
// remux-wide settings.
func NewGranulator(settings Settings) *Granulator {
	return &Granulator{ignoreStartOffset: settings.IgnoreStartSampleOffset}
}

// Compute returns the granule position to emit for the output packet at
// outputIndex (0-based; 0, 1, 2 are the identification/comment/setup
// headers). blocksize is the packet's sample blocksize, nil for a header
// packet. originalPageGP is the granule position of the page this packet
// completed on in the *source* stream. coincidesWithFirstAudioPage is
// true iff this packet is, in source-packet order, the one that
// completed the source stream's first audio page. isLastPacket is true
// for the stream's final packet.
func (g *Granulator) Compute(outputIndex int, blocksize *uint32, originalPageGP uint64, coincidesWithFirstAudioPage, isLastPacket bool) uint64 {
	if outputIndex < 3 {
		return 0
	}

	var this uint32
	if blocksize != nil {
		this = *blocksize
	}

	if !g.started {
		g.started = true
		if coincidesWithFirstAudioPage {
			offset := int64(originalPageGP)
			gp := int64(0)
			if !g.ignoreStartOffset {
				gp = offset
			}
			g.offset = offset
			g.offsetSet = true
			g.lastGP = gp
			g.lastBlocksize = this
			return uint64(gp)
		}

		g.lastGP = 0
		g.lastBlocksize = this
		return 0
	}

	if isLastPacket {
		calcGP := g.lastGP + int64(g.lastBlocksize+this)/4
		original := int64(originalPageGP)
		if g.lastGP+1 <= original && original <= calcGP {
			return uint64(original)
		}
		return uint64(calcGP)
	}

	newGP := g.lastGP + int64(g.lastBlocksize+this)/4
	if coincidesWithFirstAudioPage {
		offset := int64(originalPageGP) - newGP
		if offset < 0 {
			offset = 0 // saturating subtract
		}
		g.offset = offset
		g.offsetSet = true
		if !g.ignoreStartOffset {
			newGP += offset
		}
	}

	g.lastGP = newGP
	g.lastBlocksize = this
	return uint64(newGP)
}

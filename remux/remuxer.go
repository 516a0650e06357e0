// Package remux implements the two-pass Ogg Vorbis remuxing driver:
// every logical Vorbis bitstream in a source Ogg file is decoded,
// analyzed, and rewritten with optimally reassigned Huffman codewords,
// while non-Vorbis logical bitstreams are dropped (§4.7, §6 "OggToOgg").
package remux

import (
	"errors"
	"io"

	"github.com/optivorbis/optivorbis-go/container/ogg"
	"github.com/optivorbis/optivorbis-go/vorbis"
)

// OggToOgg drives the remux of a source Ogg Vorbis file into an
// optimized Ogg Vorbis file written to a sink.
type OggToOgg struct {
	settings Settings
}

// New returns an OggToOgg configured with settings.
func New(settings Settings) *OggToOgg {
	return &OggToOgg{settings: settings}
}

// NewWithDefaults returns an OggToOgg configured with DefaultSettings.
func NewWithDefaults() *OggToOgg {
	return &OggToOgg{settings: DefaultSettings()}
}

// vorbisStream tracks one logical Vorbis bitstream's state across both
// passes. The Optimizer instance is shared across passes: it is built
// once in pass 1 (discovery) and driven through AnalyzePacket there,
// then driven through OptimizePacket in pass 2 — exactly the sequencing
// Optimizer's own state machine requires.
type vorbisStream struct {
	optimizer  *vorbis.Optimizer
	granulator *Granulator

	outputSerial       uint32
	outputIndex        int
	firstAudioPageSeen bool
}

// mangler returns settings.Mangler, or PassthroughMangler when unset.
func (settings Settings) mangler() OggVorbisStreamMangler {
	if settings.Mangler == nil {
		return PassthroughMangler{}
	}
	return settings.Mangler
}

// isNotVorbisSignal reports whether err indicates "this logical
// bitstream's first packet isn't a Vorbis identification header" rather
// than a genuine parse failure of a stream already committed to being
// Vorbis (§4.7: malformed-but-recognizable identification headers are a
// real error; a signature or packet-type mismatch just means "some other
// codec").
func isNotVorbisSignal(err error) bool {
	return errors.Is(err, vorbis.ErrPacketTooSmall) ||
		errors.Is(err, vorbis.ErrInvalidPacketType) ||
		errors.Is(err, vorbis.ErrInvalidSignature)
}

// discoverAndAnalyze is pass 1: it reads the source once forward,
// classifies each logical bitstream as Vorbis or not, rejects
// multiplexed (as opposed to chained) Vorbis streams, builds one
// Optimizer per Vorbis stream and drives it through AnalyzePacket, and
// accumulates the XOR of every page checksum for PRNG seeding
// (§4.12).
func (oo *OggToOgg) discoverAndAnalyze(source io.Reader) (streams map[uint32]*vorbis.Optimizer, order []uint32, checksumXor uint32, err error) {
	reader := ogg.NewPacketReader(source)
	streams = make(map[uint32]*vorbis.Optimizer)
	skip := make(map[uint32]bool)

	var activeVorbisSerial *uint32

	for {
		pkt, err := reader.ReadPacket()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, 0, err
		}

		if skip[pkt.Serial] {
			continue
		}

		optimizer, known := streams[pkt.Serial]

		if pkt.FirstInStream {
			ident, identErr := vorbis.ParseIdentificationHeader(pkt.Data)
			if identErr != nil {
				if isNotVorbisSignal(identErr) {
					skip[pkt.Serial] = true
					continue
				}
				return nil, nil, 0, identErr
			}

			if activeVorbisSerial != nil {
				return nil, nil, 0, ErrMultiplexedVorbisStreams
			}
			serial := pkt.Serial
			activeVorbisSerial = &serial

			ident.SampleRate = oo.settings.mangler().MangleSamplingFrequency(ident.SampleRate)
			ident.BitrateMaximum, ident.BitrateNominal, ident.BitrateMinimum =
				oo.settings.mangler().MangleBitrates(ident.BitrateMaximum, ident.BitrateNominal, ident.BitrateMinimum)

			optimizer = vorbis.NewOptimizer(vorbis.OptimizerSettings{
				Comment: oo.settings.Comment,
				Debug:   oo.settings.Debug,
			}, ident)
			streams[pkt.Serial] = optimizer
			order = append(order, pkt.Serial)
			known = true

			if pkt.LastInPage {
				checksumXor ^= pkt.Checksum
			}
			if pkt.LastInStream {
				activeVorbisSerial = nil
			}
			continue
		}

		if !known {
			// A continuation packet for a serial whose BOS page we never
			// classified: the source stream began mid-logical-stream,
			// which ReadPacket never produces, so this cannot happen in
			// practice. Treat conservatively as skip.
			skip[pkt.Serial] = true
			continue
		}

		if pkt.LastInPage {
			checksumXor ^= pkt.Checksum
		}

		if _, analyzeErr := optimizer.AnalyzePacket(pkt.Data); analyzeErr != nil {
			return nil, nil, 0, analyzeErr
		}

		if pkt.LastInStream {
			activeVorbisSerial = nil
		}
	}

	return streams, order, checksumXor, nil
}

// Remux reads a complete Ogg Vorbis physical bitstream from source,
// optimizes every logical Vorbis bitstream it contains, and writes the
// result to sink. It returns sink back to the caller for chaining.
func (oo *OggToOgg) Remux(source io.ReadSeeker, sink io.Writer) (io.Writer, error) {
	unlock, err := tryLockSink(sink)
	if err != nil {
		return nil, err
	}
	defer unlock()

	streams, order, checksumXor, err := oo.discoverAndAnalyze(source)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		if oo.settings.ErrorOnNoVorbisStreams {
			return nil, ErrNoVorbisStreams
		}
		return sink, nil
	}

	firstSerial, increment, err := SelectSerials(oo.settings, checksumXor)
	if err != nil {
		return nil, err
	}

	active := make(map[uint32]*vorbisStream, len(order))
	for i, serial := range order {
		active[serial] = &vorbisStream{
			optimizer:    streams[serial],
			granulator:   NewGranulator(oo.settings),
			outputSerial: firstSerial + uint32(i)*increment,
		}
	}

	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	reader := ogg.NewPacketReader(source)
	writer := ogg.NewPacketWriter(sink)
	mangler := oo.settings.mangler()

	for {
		pkt, err := reader.ReadPacket()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		vs, ok := active[pkt.Serial]
		if !ok {
			continue
		}

		output, blocksize, discard, err := vs.optimizer.OptimizePacket(pkt.Data)
		if err != nil {
			return nil, err
		}
		if discard {
			continue
		}

		coincidesWithFirstAudioPage := !vs.firstAudioPageSeen && vs.outputIndex >= 3 && pkt.LastInPage
		if coincidesWithFirstAudioPage {
			vs.firstAudioPageSeen = true
		}

		granule := vs.granulator.Compute(vs.outputIndex, blocksize, pkt.GranulePos, coincidesWithFirstAudioPage, pkt.LastInStream)

		policy := ogg.NormalPacket
		switch {
		case pkt.LastInStream:
			policy = ogg.EndStream
		case pkt.LastInPage:
			policy = ogg.EndPage
		}

		outputSerial := mangler.ManglePacketStreamSerial(vs.outputSerial, vs.outputIndex)
		policy = mangler.ManglePacketPageEndInfo(policy, vs.outputIndex)
		granule = mangler.MangleGranulePosition(granule, vs.outputIndex)

		if err := writer.WritePacket(output, outputSerial, policy, granule); err != nil {
			return nil, err
		}
		vs.outputIndex++
	}

	return sink, nil
}

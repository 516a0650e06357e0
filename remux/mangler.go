package remux

import "github.com/optivorbis/optivorbis-go/container/ogg"

// OggVorbisStreamMangler lets a caller override specific fields the
// remuxer would otherwise pass straight through, one method per
// overridable field (§4.12, §6 "Mangler hook"). Core invariants are
// enforced before a mangler runs, so a mangler cannot itself corrupt the
// stream it has no business touching — it can only ask the remuxer to
// emit different values than it would have, for fields the remuxer
// trusts the caller to have a reason to change.
type OggVorbisStreamMangler interface {
	// MangleSamplingFrequency overrides the identification header's
	// sampling frequency field.
	MangleSamplingFrequency(original uint32) uint32

	// MangleBitrates overrides the identification header's three
	// bitrate fields (maximum, nominal, minimum).
	MangleBitrates(maximum, nominal, minimum int32) (int32, int32, int32)

	// ManglePacketStreamSerial overrides the Ogg serial number a given
	// output packet (0-based index in the optimized stream) is written
	// under.
	ManglePacketStreamSerial(original uint32, packetIndex int) uint32

	// ManglePacketPageEndInfo overrides the page-end policy computed for
	// a given output packet.
	ManglePacketPageEndInfo(original ogg.PageEndPolicy, packetIndex int) ogg.PageEndPolicy

	// MangleGranulePosition overrides the granule position computed for
	// a given output packet.
	MangleGranulePosition(original uint64, packetIndex int) uint64
}

// PassthroughMangler implements OggVorbisStreamMangler with identity
// behavior on every hook, the default when no mangler is configured.
type PassthroughMangler struct{}

func (PassthroughMangler) MangleSamplingFrequency(original uint32) uint32 { return original }

func (PassthroughMangler) MangleBitrates(maximum, nominal, minimum int32) (int32, int32, int32) {
	return maximum, nominal, minimum
}

func (PassthroughMangler) ManglePacketStreamSerial(original uint32, packetIndex int) uint32 {
	return original
}

func (PassthroughMangler) ManglePacketPageEndInfo(original ogg.PageEndPolicy, packetIndex int) ogg.PageEndPolicy {
	return original
}

func (PassthroughMangler) MangleGranulePosition(original uint64, packetIndex int) uint64 {
	return original
}

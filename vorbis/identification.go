package vorbis

import (
	"bytes"
	"fmt"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// identificationHeaderMinSize is the fixed wire size of the identification
// header (§8 Boundary behaviors: length 30 accepted, length 29 rejected).
const identificationHeaderMinSize = 30

// ParseIdentificationHeader validates and decodes the identification
// header packet (§4.9): packet type 1, signature "vorbis", packet length
// >= 30, version field 0, channels > 0, sampling frequency > 0, both
// blocksizes a power of two in [64, 8192] with blocksize_0 <= blocksize_1.
// The framing byte's content is ignored, matching the real decoder's own
// tolerance of it.
func ParseIdentificationHeader(packet []byte) (IdentificationData, error) {
	if len(packet) < identificationHeaderMinSize {
		return IdentificationData{}, ErrPacketTooSmall
	}

	r := bitpack.NewReader(bytes.NewReader(packet))

	packetType, err := r.ReadUnsignedInteger(w(8))
	if err != nil {
		return IdentificationData{}, err
	}
	if PacketType(packetType) != PacketIdentification {
		return IdentificationData{}, ErrInvalidPacketType
	}

	sig := make([]byte, len(headerSignature))
	for i := range sig {
		b, err := r.ReadUnsignedInteger(w(8))
		if err != nil {
			return IdentificationData{}, err
		}
		sig[i] = byte(b)
	}
	if string(sig) != headerSignature {
		return IdentificationData{}, ErrInvalidSignature
	}

	version, err := r.ReadUnsignedInteger(w(32))
	if err != nil {
		return IdentificationData{}, err
	}
	if version != 0 {
		return IdentificationData{}, ErrUnsupportedVersion
	}

	channels, err := r.ReadUnsignedInteger(w(8))
	if err != nil {
		return IdentificationData{}, err
	}
	if channels == 0 {
		return IdentificationData{}, ErrInvalidChannelCount
	}

	sampleRate, err := r.ReadUnsignedInteger(w(32))
	if err != nil {
		return IdentificationData{}, err
	}
	if sampleRate == 0 {
		return IdentificationData{}, ErrInvalidSampleRate
	}

	bitrateMax, err := r.ReadSignedInteger(w(32))
	if err != nil {
		return IdentificationData{}, err
	}
	bitrateNominal, err := r.ReadSignedInteger(w(32))
	if err != nil {
		return IdentificationData{}, err
	}
	bitrateMin, err := r.ReadSignedInteger(w(32))
	if err != nil {
		return IdentificationData{}, err
	}

	bs0Exp, err := r.ReadUnsignedInteger(w(4))
	if err != nil {
		return IdentificationData{}, err
	}
	bs1Exp, err := r.ReadUnsignedInteger(w(4))
	if err != nil {
		return IdentificationData{}, err
	}
	blocksize0 := uint32(1) << bs0Exp
	blocksize1 := uint32(1) << bs1Exp

	if err := validateBlocksize(blocksize0); err != nil {
		return IdentificationData{}, err
	}
	if err := validateBlocksize(blocksize1); err != nil {
		return IdentificationData{}, err
	}
	if blocksize0 > blocksize1 {
		return IdentificationData{}, ErrInvalidBlocksize
	}

	// Framing bit: present on the wire but its value is not checked here,
	// matching §4.9's "framing-byte content ignored".
	if _, err := r.ReadFlag(); err != nil {
		return IdentificationData{}, err
	}

	return IdentificationData{
		Channels:       uint8(channels),
		SampleRate:     sampleRate,
		BitrateMaximum: bitrateMax,
		BitrateNominal: bitrateNominal,
		BitrateMinimum: bitrateMin,
		Blocksize0:     blocksize0,
		Blocksize1:     blocksize1,
	}, nil
}

// EncodeIdentificationHeader serializes data into the standard 30-byte
// identification header layout, forcing the framing bit to 1 and emitting
// nothing beyond that layout — this is the IdentificationHeaderCopy state's
// contract (§4.6): sampling frequency and the three bitrate fields are
// re-emitted from data (permitting a mangler to have overridden them before
// this call), and any trailing bytes the source packet carried are dropped.
func EncodeIdentificationHeader(data IdentificationData) []byte {
	var buf bytes.Buffer
	out := bitpack.NewWriter(&buf)

	out.WriteUnsignedInteger(uint32(PacketIdentification), w(8))
	for i := 0; i < len(headerSignature); i++ {
		out.WriteUnsignedInteger(uint32(headerSignature[i]), w(8))
	}
	out.WriteUnsignedInteger(0, w(32)) // version
	out.WriteUnsignedInteger(uint32(data.Channels), w(8))
	out.WriteUnsignedInteger(data.SampleRate, w(32))
	out.WriteSignedInteger(data.BitrateMaximum, w(32))
	out.WriteSignedInteger(data.BitrateNominal, w(32))
	out.WriteSignedInteger(data.BitrateMinimum, w(32))
	out.WriteUnsignedInteger(uint32(ilog(data.Blocksize0)-1), w(4))
	out.WriteUnsignedInteger(uint32(ilog(data.Blocksize1)-1), w(4))
	out.WriteFlag(true)

	out.Flush()
	return buf.Bytes()
}

func validateBlocksize(bs uint32) error {
	if bs < 64 || bs > 8192 || !isPowerOfTwo(bs) {
		return fmt.Errorf("%w: %d", ErrInvalidBlocksize, bs)
	}
	return nil
}

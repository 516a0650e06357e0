package vorbis

import (
	"bytes"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// EncodeSetupHeader serializes data into the standard setup-header wire
// layout (§4.5 setup-header writer / §4.6 SetupHeaderRewrite): codebooks
// re-emitted with whatever Lengths each CodebookConfiguration currently
// carries (the optimizer overwrites these with recomputed optimal lengths
// before calling this), floors/residues/mappings/modes re-serialized
// unchanged from the parsed model, framing bit forced to 1. channels is
// the stream's channel count, needed to size mapping coupling-step
// fields identically to ParseSetupHeader.
func EncodeSetupHeader(data *SetupData, channels int) []byte {
	var buf bytes.Buffer
	out := bitpack.NewWriter(&buf)

	out.WriteUnsignedInteger(uint32(PacketSetup), w(8))
	for i := 0; i < len(headerSignature); i++ {
		out.WriteUnsignedInteger(uint32(headerSignature[i]), w(8))
	}

	out.WriteUnsignedInteger(uint32(len(data.Codebooks))-1, w(8))
	for _, cb := range data.Codebooks {
		encodeCodebookConfiguration(out, cb)
	}

	// Time-domain transform placeholder list: always a single zero entry.
	out.WriteUnsignedInteger(0, w(6))
	out.WriteUnsignedInteger(0, w(16))

	out.WriteUnsignedInteger(uint32(len(data.Floors))-1, w(6))
	for _, floor := range data.Floors {
		out.WriteUnsignedInteger(1, w(16)) // floor type, always 1
		encodeFloor1(out, floor)
	}

	out.WriteUnsignedInteger(uint32(len(data.Residues))-1, w(6))
	for _, res := range data.Residues {
		encodeResidue(out, res)
	}

	out.WriteUnsignedInteger(uint32(len(data.Mappings))-1, w(6))
	for _, m := range data.Mappings {
		out.WriteUnsignedInteger(0, w(16)) // mapping type, always 0
		encodeMapping(out, m, channels)
	}

	out.WriteUnsignedInteger(uint32(len(data.Modes))-1, w(6))
	for _, m := range data.Modes {
		encodeMode(out, m)
	}

	out.WriteFlag(true)
	out.Flush()
	return buf.Bytes()
}

func encodeCodebookConfiguration(out *bitpack.Writer, cfg CodebookConfiguration) {
	out.WriteUnsignedInteger(codebookSyncPattern, w(24))
	out.WriteUnsignedInteger(uint32(cfg.Dimensions), w(16))
	out.WriteUnsignedInteger(cfg.Entries, w(24))

	encodeCodewordLengths(out, cfg.Lengths)

	out.WriteUnsignedInteger(uint32(cfg.LookupType), w(4))
	if cfg.LookupType == VectorLookupNone {
		return
	}

	out.WriteFloat32(cfg.Minimum)
	out.WriteFloat32(cfg.Delta)
	out.WriteUnsignedInteger(uint32(cfg.ValueBits)-1, w(4))
	out.WriteFlag(cfg.Sequence)
	for _, m := range cfg.Multiplicands {
		out.WriteUnsignedInteger(m, w(int(cfg.ValueBits)))
	}
}

// encodeCodewordLengths picks the ordered run-length encoding when lengths
// is entirely nonzero and non-decreasing (the only shape the ordered
// format can represent), falling back to the dense or sparse unordered
// encoding otherwise (§4.6 SetupHeaderRewrite's ordered/unordered rule).
func encodeCodewordLengths(out *bitpack.Writer, lengths []uint8) {
	if canEncodeOrdered(lengths) {
		out.WriteFlag(true)
		encodeOrderedLengths(out, lengths)
		return
	}

	out.WriteFlag(false)

	sparse := false
	for _, l := range lengths {
		if l == 0 {
			sparse = true
			break
		}
	}
	out.WriteFlag(sparse)

	for _, l := range lengths {
		if sparse {
			used := l != 0
			out.WriteFlag(used)
			if used {
				out.WriteUnsignedInteger(uint32(l)-1, w(5))
			}
			continue
		}
		out.WriteUnsignedInteger(uint32(l)-1, w(5))
	}
}

func canEncodeOrdered(lengths []uint8) bool {
	if len(lengths) == 0 {
		return false
	}
	prev := uint8(0)
	for _, l := range lengths {
		if l == 0 || l < prev {
			return false
		}
		prev = l
	}
	return true
}

func encodeOrderedLengths(out *bitpack.Writer, lengths []uint8) {
	entries := uint32(len(lengths))
	currentLength := uint32(lengths[0])
	out.WriteUnsignedInteger(currentLength-1, w(5))

	count := uint32(0)
	for count < entries {
		number := uint32(0)
		for count+number < entries && uint32(lengths[count+number]) == currentLength {
			number++
		}
		bitsNeeded := ilog(entries - count)
		out.WriteUnsignedInteger(number, w(int(bitsNeeded)))
		count += number
		currentLength++
	}
}

func encodeFloor1(out *bitpack.Writer, floor FloorConfiguration) {
	out.WriteUnsignedInteger(uint32(len(floor.PartitionClassList)), w(5))
	for _, c := range floor.PartitionClassList {
		out.WriteUnsignedInteger(uint32(c), w(4))
	}

	for _, cls := range floor.Classes {
		out.WriteUnsignedInteger(uint32(cls.Dimensions)-1, w(3))
		out.WriteUnsignedInteger(uint32(cls.SubclassBits), w(2))
		if cls.SubclassBits != 0 {
			out.WriteUnsignedInteger(uint32(cls.MasterBook), w(8))
		}
		for _, b := range cls.SubclassBooks {
			out.WriteUnsignedInteger(uint32(b+1), w(8))
		}
	}

	out.WriteUnsignedInteger(uint32(floor.Multiplier)-1, w(2))
	out.WriteUnsignedInteger(uint32(floor.RangeBits), w(4))
	for _, x := range floor.XList {
		out.WriteUnsignedInteger(x, w(int(floor.RangeBits)))
	}
}

func encodeResidue(out *bitpack.Writer, res ResidueConfiguration) {
	out.WriteUnsignedInteger(uint32(res.Type), w(16))
	out.WriteUnsignedInteger(res.Begin, w(24))
	out.WriteUnsignedInteger(res.End, w(24))
	out.WriteUnsignedInteger(res.PartitionSize-1, w(24))
	out.WriteUnsignedInteger(uint32(res.Classifications)-1, w(6))
	out.WriteUnsignedInteger(uint32(res.ClassBook), w(8))

	cascade := make([]uint8, len(res.Books))
	for i, books := range res.Books {
		var c uint8
		for pass := 0; pass < 8; pass++ {
			if books[pass] >= 0 {
				c |= 1 << uint(pass)
			}
		}
		cascade[i] = c
	}
	for _, c := range cascade {
		out.WriteUnsignedInteger(uint32(c&0x7), w(3))
		high := c >> 3
		out.WriteFlag(high != 0)
		if high != 0 {
			out.WriteUnsignedInteger(uint32(high), w(5))
		}
	}

	for _, books := range res.Books {
		for pass := 0; pass < 8; pass++ {
			if books[pass] >= 0 {
				out.WriteUnsignedInteger(uint32(books[pass]), w(8))
			}
		}
	}
}

func encodeMapping(out *bitpack.Writer, m MappingConfiguration, channels int) {
	submapCount := len(m.Submaps)
	out.WriteFlag(submapCount > 1)
	if submapCount > 1 {
		out.WriteUnsignedInteger(uint32(submapCount)-1, w(4))
	}

	out.WriteFlag(len(m.Couplings) > 0)
	if len(m.Couplings) > 0 {
		out.WriteUnsignedInteger(uint32(len(m.Couplings))-1, w(8))
		bits := ilog(uint32(channels - 1))
		for _, c := range m.Couplings {
			out.WriteUnsignedInteger(uint32(c.Magnitude), w(int(bits)))
			out.WriteUnsignedInteger(uint32(c.Angle), w(int(bits)))
		}
	}

	out.WriteUnsignedInteger(0, w(2)) // reserved

	if submapCount > 1 {
		for _, mux := range m.Mux {
			out.WriteUnsignedInteger(uint32(mux), w(4))
		}
	}

	for _, s := range m.Submaps {
		out.WriteUnsignedInteger(0, w(8)) // discarded time-domain placeholder
		out.WriteUnsignedInteger(uint32(s.Floor), w(8))
		out.WriteUnsignedInteger(uint32(s.Residue), w(8))
	}
}

func encodeMode(out *bitpack.Writer, m ModeConfiguration) {
	out.WriteFlag(m.BlockFlag)
	out.WriteUnsignedInteger(0, w(16)) // windowtype
	out.WriteUnsignedInteger(0, w(16)) // transformtype
	out.WriteUnsignedInteger(uint32(m.Mapping), w(8))
}

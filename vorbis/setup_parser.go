package vorbis

import (
	"bytes"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// codebookSyncPattern is the 24-bit marker every codebook configuration
// begins with: 0x564342, "VCB" read big-endian.
const codebookSyncPattern = 0x564342

// maxCodewordLength is the widest codeword length a codebook's 5-bit
// length field (or an ordered run) may produce before the entry is
// unrepresentable.
const maxCodewordLength = 32

// ParseSetupHeader decodes the setup header packet (§4.4): codebooks,
// time-domain transform placeholders, floors, residues, mappings and
// modes, in that order. channels is the identification header's channel
// count, needed to validate mapping coupling steps. debug enables the
// strict checks release decoders skip: codebook sync pattern, reserved
// time-domain-transform values, and the trailing framing bit.
func ParseSetupHeader(packet []byte, channels int, debug bool) (*SetupData, error) {
	r := bitpack.NewReader(bytes.NewReader(packet))

	packetType, err := r.ReadUnsignedInteger(w(8))
	if err != nil {
		return nil, ErrPacketTooSmall
	}
	if PacketType(packetType) != PacketSetup {
		return nil, ErrInvalidPacketType
	}

	sig := make([]byte, len(headerSignature))
	for i := range sig {
		b, err := r.ReadUnsignedInteger(w(8))
		if err != nil {
			return nil, ErrPacketTooSmall
		}
		sig[i] = byte(b)
	}
	if string(sig) != headerSignature {
		return nil, ErrInvalidSignature
	}

	codebooks, err := parseCodebooks(r, debug)
	if err != nil {
		return nil, err
	}

	if err := skipTimeDomainTransforms(r, debug); err != nil {
		return nil, err
	}

	floors, err := parseFloors(r)
	if err != nil {
		return nil, err
	}

	residues, err := parseResidues(r, codebooks)
	if err != nil {
		return nil, err
	}

	mappings, err := parseMappings(r, channels, len(floors), len(residues), len(codebooks))
	if err != nil {
		return nil, err
	}

	modes, err := parseModes(r, len(mappings))
	if err != nil {
		return nil, err
	}

	framing, err := r.ReadFlag()
	if err != nil {
		return nil, err
	}
	if debug && !framing {
		return nil, ErrInvalidFraming
	}

	return &SetupData{
		Codebooks: codebooks,
		Floors:    floors,
		Residues:  residues,
		Mappings:  mappings,
		Modes:     modes,
	}, nil
}

func parseCodebooks(r *bitpack.Reader, debug bool) ([]CodebookConfiguration, error) {
	countRaw, err := r.ReadUnsignedInteger(w(8))
	if err != nil {
		return nil, err
	}
	count := int(countRaw) + 1

	codebooks := make([]CodebookConfiguration, count)
	for i := range codebooks {
		cb, err := parseCodebookConfiguration(r, debug)
		if err != nil {
			return nil, err
		}
		codebooks[i] = cb
	}
	return codebooks, nil
}

func parseCodebookConfiguration(r *bitpack.Reader, debug bool) (CodebookConfiguration, error) {
	sync, err := r.ReadUnsignedInteger(w(24))
	if err != nil {
		return CodebookConfiguration{}, err
	}
	if debug && sync != codebookSyncPattern {
		return CodebookConfiguration{}, ErrInvalidCodebookSync
	}

	dimensions, err := r.ReadUnsignedInteger(w(16))
	if err != nil {
		return CodebookConfiguration{}, err
	}
	entries, err := r.ReadUnsignedInteger(w(24))
	if err != nil {
		return CodebookConfiguration{}, err
	}

	ordered, err := r.ReadFlag()
	if err != nil {
		return CodebookConfiguration{}, err
	}

	lengths := make([]uint8, entries)
	if ordered {
		if err := parseOrderedLengths(r, lengths); err != nil {
			return CodebookConfiguration{}, err
		}
	} else {
		if err := parseUnorderedLengths(r, lengths); err != nil {
			return CodebookConfiguration{}, err
		}
	}

	lookupTypeRaw, err := r.ReadUnsignedInteger(w(4))
	if err != nil {
		return CodebookConfiguration{}, err
	}
	lookupType := VectorLookupType(lookupTypeRaw)
	if lookupType != VectorLookupNone && lookupType != VectorLookupImplicit && lookupType != VectorLookupExplicit {
		return CodebookConfiguration{}, ErrInvalidLookupType
	}

	cfg := CodebookConfiguration{
		Dimensions: uint16(dimensions),
		Entries:    entries,
		Lengths:    lengths,
		LookupType: lookupType,
	}

	if lookupType == VectorLookupNone {
		return cfg, nil
	}

	minimum, err := r.ReadFloat32(w(32))
	if err != nil {
		return CodebookConfiguration{}, err
	}
	delta, err := r.ReadFloat32(w(32))
	if err != nil {
		return CodebookConfiguration{}, err
	}
	valueBitsRaw, err := r.ReadUnsignedInteger(w(4))
	if err != nil {
		return CodebookConfiguration{}, err
	}
	valueBits := uint8(valueBitsRaw) + 1
	sequence, err := r.ReadFlag()
	if err != nil {
		return CodebookConfiguration{}, err
	}

	var numValues uint32
	if lookupType == VectorLookupImplicit {
		numValues = lookup1Values(entries, uint16(dimensions))
	} else {
		numValues = entries * dimensions
	}

	multiplicands := make([]uint32, numValues)
	for i := range multiplicands {
		v, err := r.ReadUnsignedInteger(w(int(valueBits)))
		if err != nil {
			return CodebookConfiguration{}, err
		}
		multiplicands[i] = v
	}

	cfg.Minimum = minimum
	cfg.Delta = delta
	cfg.ValueBits = valueBits
	cfg.Sequence = sequence
	cfg.Multiplicands = multiplicands
	return cfg, nil
}

// parseOrderedLengths reads the run-length-encoded ordered codeword-length
// list: each run states how many consecutive entries (starting at the
// count already assigned) share the current length, then the length
// increments (§4.4 item 1).
func parseOrderedLengths(r *bitpack.Reader, lengths []uint8) error {
	entries := uint32(len(lengths))

	currentLengthRaw, err := r.ReadUnsignedInteger(w(5))
	if err != nil {
		return err
	}
	currentLength := uint32(currentLengthRaw) + 1

	count := uint32(0)
	for count < entries {
		if currentLength > maxCodewordLength {
			return ErrTooBigCodewordLength
		}

		bitsNeeded := ilog(entries - count)
		number, err := r.ReadUnsignedInteger(w(int(bitsNeeded)))
		if err != nil {
			return err
		}
		if count+number > entries {
			return ErrTooManyCodewords
		}

		for i := count; i < count+number; i++ {
			lengths[i] = uint8(currentLength)
		}
		count += number
		currentLength++
	}
	return nil
}

// parseUnorderedLengths reads either a dense (every entry has an explicit
// 5-bit length) or sparse (each entry first flagged used/unused) codeword
// length list (§4.4 item 1).
func parseUnorderedLengths(r *bitpack.Reader, lengths []uint8) error {
	sparse, err := r.ReadFlag()
	if err != nil {
		return err
	}

	for i := range lengths {
		if sparse {
			used, err := r.ReadFlag()
			if err != nil {
				return err
			}
			if !used {
				continue
			}
		}

		l, err := r.ReadUnsignedInteger(w(5))
		if err != nil {
			return err
		}
		length := uint8(l) + 1
		if length > maxCodewordLength {
			return ErrTooBigCodewordLength
		}
		lengths[i] = length
	}
	return nil
}

// skipTimeDomainTransforms reads and discards the setup header's
// vestigial time-domain transform placeholder list (§4.4 item 2): every
// standard-compliant encoder writes count-1 zeros here, and the field is
// retained on the wire purely for forward compatibility.
func skipTimeDomainTransforms(r *bitpack.Reader, debug bool) error {
	countRaw, err := r.ReadUnsignedInteger(w(6))
	if err != nil {
		return err
	}
	count := int(countRaw) + 1

	for i := 0; i < count; i++ {
		v, err := r.ReadUnsignedInteger(w(16))
		if err != nil {
			return err
		}
		if debug && v != 0 {
			return ErrInvalidMappingType
		}
	}
	return nil
}

func parseFloors(r *bitpack.Reader) ([]FloorConfiguration, error) {
	countRaw, err := r.ReadUnsignedInteger(w(6))
	if err != nil {
		return nil, err
	}
	count := int(countRaw) + 1

	floors := make([]FloorConfiguration, count)
	for i := range floors {
		floorType, err := r.ReadUnsignedInteger(w(16))
		if err != nil {
			return nil, err
		}
		if floorType != 1 {
			return nil, ErrUnsupportedFloorType
		}

		floor, err := parseFloor1(r)
		if err != nil {
			return nil, err
		}
		floors[i] = floor
	}
	return floors, nil
}

func parseFloor1(r *bitpack.Reader) (FloorConfiguration, error) {
	partitionsRaw, err := r.ReadUnsignedInteger(w(5))
	if err != nil {
		return FloorConfiguration{}, err
	}
	partitions := int(partitionsRaw)

	partitionClassList := make([]uint8, partitions)
	maxClass := 0
	for i := range partitionClassList {
		c, err := r.ReadUnsignedInteger(w(4))
		if err != nil {
			return FloorConfiguration{}, err
		}
		partitionClassList[i] = uint8(c)
		if int(c) > maxClass {
			maxClass = int(c)
		}
	}

	classes := make([]FloorClass, maxClass+1)
	for i := range classes {
		dims, err := r.ReadUnsignedInteger(w(3))
		if err != nil {
			return FloorConfiguration{}, err
		}
		classes[i].Dimensions = uint8(dims) + 1

		subclassBits, err := r.ReadUnsignedInteger(w(2))
		if err != nil {
			return FloorConfiguration{}, err
		}
		classes[i].SubclassBits = uint8(subclassBits)

		classes[i].MasterBook = -1
		if subclassBits != 0 {
			mb, err := r.ReadUnsignedInteger(w(8))
			if err != nil {
				return FloorConfiguration{}, err
			}
			classes[i].MasterBook = int16(mb)
		}

		n := 1 << subclassBits
		classes[i].SubclassBooks = make([]int16, n)
		for j := 0; j < n; j++ {
			b, err := r.ReadUnsignedInteger(w(8))
			if err != nil {
				return FloorConfiguration{}, err
			}
			classes[i].SubclassBooks[j] = int16(b) - 1
		}
	}

	multiplierRaw, err := r.ReadUnsignedInteger(w(2))
	if err != nil {
		return FloorConfiguration{}, err
	}
	multiplier := uint8(multiplierRaw) + 1

	rangeBitsRaw, err := r.ReadUnsignedInteger(w(4))
	if err != nil {
		return FloorConfiguration{}, err
	}
	rangeBits := uint8(rangeBitsRaw)

	var xlist []uint32
	for _, classIdx := range partitionClassList {
		cls := classes[classIdx]
		for d := uint8(0); d < cls.Dimensions; d++ {
			x, err := r.ReadUnsignedInteger(w(int(rangeBits)))
			if err != nil {
				return FloorConfiguration{}, err
			}
			xlist = append(xlist, x)
		}
	}

	seen := make(map[uint32]bool, len(xlist))
	for _, x := range xlist {
		if seen[x] {
			return FloorConfiguration{}, ErrDuplicateFloorXValue
		}
		seen[x] = true
	}

	return FloorConfiguration{
		PartitionClassList: partitionClassList,
		Classes:            classes,
		Multiplier:         multiplier,
		RangeBits:          rangeBits,
		XList:              xlist,
	}, nil
}

func parseResidues(r *bitpack.Reader, codebooks []CodebookConfiguration) ([]ResidueConfiguration, error) {
	countRaw, err := r.ReadUnsignedInteger(w(6))
	if err != nil {
		return nil, err
	}
	count := int(countRaw) + 1

	residues := make([]ResidueConfiguration, count)
	for i := range residues {
		typeRaw, err := r.ReadUnsignedInteger(w(16))
		if err != nil {
			return nil, err
		}
		if typeRaw > 2 {
			return nil, ErrInvalidResidueType
		}

		res, err := parseResidue(r, ResidueType(typeRaw), len(codebooks))
		if err != nil {
			return nil, err
		}

		classbook := codebooks[res.ClassBook]
		required := intPow(uint32(res.Classifications), classbook.Dimensions)
		if classbook.Entries < required {
			return nil, ErrInvalidClassbook
		}

		residues[i] = res
	}
	return residues, nil
}

func parseResidue(r *bitpack.Reader, residueType ResidueType, codebookCount int) (ResidueConfiguration, error) {
	begin, err := r.ReadUnsignedInteger(w(24))
	if err != nil {
		return ResidueConfiguration{}, err
	}
	end, err := r.ReadUnsignedInteger(w(24))
	if err != nil {
		return ResidueConfiguration{}, err
	}
	if end < begin {
		logger.Printf("residue end %d precedes begin %d, clamping end to begin", end, begin)
		end = begin
	}

	partitionSizeRaw, err := r.ReadUnsignedInteger(w(24))
	if err != nil {
		return ResidueConfiguration{}, err
	}
	partitionSize := partitionSizeRaw + 1

	classificationsRaw, err := r.ReadUnsignedInteger(w(6))
	if err != nil {
		return ResidueConfiguration{}, err
	}
	classifications := uint8(classificationsRaw) + 1

	classbookRaw, err := r.ReadUnsignedInteger(w(8))
	if err != nil {
		return ResidueConfiguration{}, err
	}
	if int(classbookRaw) >= codebookCount {
		return ResidueConfiguration{}, ErrInvalidClassbook
	}

	cascade := make([]uint8, classifications)
	for i := range cascade {
		low, err := r.ReadUnsignedInteger(w(3))
		if err != nil {
			return ResidueConfiguration{}, err
		}
		flagged, err := r.ReadFlag()
		if err != nil {
			return ResidueConfiguration{}, err
		}
		high := uint32(0)
		if flagged {
			high, err = r.ReadUnsignedInteger(w(5))
			if err != nil {
				return ResidueConfiguration{}, err
			}
		}
		cascade[i] = uint8(high<<3 | low)
	}

	books := make([][8]int16, classifications)
	for i := range books {
		for pass := 0; pass < 8; pass++ {
			books[i][pass] = -1
			if cascade[i]&(1<<uint(pass)) == 0 {
				continue
			}
			b, err := r.ReadUnsignedInteger(w(8))
			if err != nil {
				return ResidueConfiguration{}, err
			}
			if int(b) >= codebookCount {
				return ResidueConfiguration{}, newInvalidCodebookIndexError(int(b), codebookCount)
			}
			books[i][pass] = int16(b)
		}
	}

	return ResidueConfiguration{
		Type:            residueType,
		Begin:           begin,
		End:             end,
		PartitionSize:   partitionSize,
		Classifications: classifications,
		ClassBook:       uint8(classbookRaw),
		Books:           books,
	}, nil
}

func parseMappings(r *bitpack.Reader, channels, floorCount, residueCount, codebookCount int) ([]MappingConfiguration, error) {
	countRaw, err := r.ReadUnsignedInteger(w(6))
	if err != nil {
		return nil, err
	}
	count := int(countRaw) + 1

	mappings := make([]MappingConfiguration, count)
	for i := range mappings {
		mapType, err := r.ReadUnsignedInteger(w(16))
		if err != nil {
			return nil, err
		}
		if mapType != 0 {
			return nil, ErrInvalidMappingType
		}

		m, err := parseMapping(r, channels, floorCount, residueCount, codebookCount)
		if err != nil {
			return nil, err
		}
		mappings[i] = m
	}
	return mappings, nil
}

func parseMapping(r *bitpack.Reader, channels, floorCount, residueCount, codebookCount int) (MappingConfiguration, error) {
	submapFlag, err := r.ReadFlag()
	if err != nil {
		return MappingConfiguration{}, err
	}
	submapCount := 1
	if submapFlag {
		n, err := r.ReadUnsignedInteger(w(4))
		if err != nil {
			return MappingConfiguration{}, err
		}
		submapCount = int(n) + 1
	}

	squarePolar, err := r.ReadFlag()
	if err != nil {
		return MappingConfiguration{}, err
	}

	var couplings []CouplingStep
	if squarePolar {
		stepsRaw, err := r.ReadUnsignedInteger(w(8))
		if err != nil {
			return MappingConfiguration{}, err
		}
		steps := int(stepsRaw) + 1

		bits := ilog(uint32(channels - 1))
		couplings = make([]CouplingStep, steps)
		for i := range couplings {
			mag, err := r.ReadUnsignedInteger(w(int(bits)))
			if err != nil {
				return MappingConfiguration{}, err
			}
			ang, err := r.ReadUnsignedInteger(w(int(bits)))
			if err != nil {
				return MappingConfiguration{}, err
			}
			if int(mag) >= channels || int(ang) >= channels || mag == ang {
				return MappingConfiguration{}, ErrInvalidChannelMapping
			}
			couplings[i] = CouplingStep{Magnitude: uint8(mag), Angle: uint8(ang)}
		}
	}

	reserved, err := r.ReadUnsignedInteger(w(2))
	if err != nil {
		return MappingConfiguration{}, err
	}
	if reserved != 0 {
		return MappingConfiguration{}, ErrInvalidMappingType
	}

	var mux []uint8
	if submapCount > 1 {
		mux = make([]uint8, channels)
		for i := range mux {
			m, err := r.ReadUnsignedInteger(w(4))
			if err != nil {
				return MappingConfiguration{}, err
			}
			if int(m) >= submapCount {
				return MappingConfiguration{}, ErrInvalidChannelMapping
			}
			mux[i] = uint8(m)
		}
	}

	submaps := make([]SubmapEntry, submapCount)
	for i := range submaps {
		// Discarded time-domain-transform placeholder index, kept on the
		// wire for forward compatibility alongside the setup header's
		// own transform list (skipTimeDomainTransforms).
		if _, err := r.ReadUnsignedInteger(w(8)); err != nil {
			return MappingConfiguration{}, err
		}

		floorNum, err := r.ReadUnsignedInteger(w(8))
		if err != nil {
			return MappingConfiguration{}, err
		}
		residueNum, err := r.ReadUnsignedInteger(w(8))
		if err != nil {
			return MappingConfiguration{}, err
		}
		if int(floorNum) >= floorCount || int(residueNum) >= residueCount {
			return MappingConfiguration{}, ErrInvalidChannelMapping
		}
		submaps[i] = SubmapEntry{Floor: uint8(floorNum), Residue: uint8(residueNum)}
	}

	return MappingConfiguration{Couplings: couplings, Mux: mux, Submaps: submaps}, nil
}

func parseModes(r *bitpack.Reader, mappingCount int) ([]ModeConfiguration, error) {
	countRaw, err := r.ReadUnsignedInteger(w(6))
	if err != nil {
		return nil, err
	}
	count := int(countRaw) + 1

	modes := make([]ModeConfiguration, count)
	for i := range modes {
		m, err := parseMode(r, mappingCount)
		if err != nil {
			return nil, err
		}
		modes[i] = m
	}
	return modes, nil
}

func parseMode(r *bitpack.Reader, mappingCount int) (ModeConfiguration, error) {
	blockFlag, err := r.ReadFlag()
	if err != nil {
		return ModeConfiguration{}, err
	}

	// windowtype and transformtype are always 0 in every deployed Vorbis I
	// stream; read and discarded rather than validated, since a nonzero
	// value here does not make the bitstream unparseable.
	if _, err := r.ReadUnsignedInteger(w(16)); err != nil {
		return ModeConfiguration{}, err
	}
	if _, err := r.ReadUnsignedInteger(w(16)); err != nil {
		return ModeConfiguration{}, err
	}

	mapping, err := r.ReadUnsignedInteger(w(8))
	if err != nil {
		return ModeConfiguration{}, err
	}
	if int(mapping) >= mappingCount {
		return ModeConfiguration{}, newInvalidModeIndexError(int(mapping), mappingCount)
	}

	return ModeConfiguration{BlockFlag: blockFlag, Mapping: uint8(mapping)}, nil
}

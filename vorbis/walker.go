package vorbis

import (
	"errors"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// floor1RangeBits is indexed by (multiplier-1) and holds ilog(range-1) for
// the four range values the Vorbis I specification assigns to floor-1
// multipliers 1..4 (§7.2.3): 256, 128, 86, 64.
var floor1RangeBits = [4]uint8{8, 7, 7, 6}

// WalkAudioPacket re-walks one audio packet's floor and residue decode
// paths without synthesizing samples (§4.5), invoking onBitRead for every
// generic bit-field read and onCodebookDecode for every codebook entry
// decode. codebooks must be indexed identically to setup.Codebooks.
//
// kept reports whether the packet should be kept in the output stream. An
// end-of-packet condition on the leading packet-type bit or while reading
// the mode/window fields makes the packet discardable: kept is false and
// err is nil. An end-of-packet condition once floor decode has begun is a
// normal tail condition in bitrate-limited streams: kept is true,
// blocksize is valid, and err is nil, but the caller must not assume the
// rest of the packet was walked.
func WalkAudioPacket(
	r *bitpack.Reader,
	ident IdentificationData,
	setup *SetupData,
	codebooks []*Codebook,
	onBitRead func(value uint32, width uint8) error,
	onCodebookDecode func(codebook int, entry uint32) error,
) (kept bool, blocksize uint32, err error) {
	packetType, err := r.ReadUnsignedInteger(w(1))
	if err != nil {
		if errors.Is(err, bitpack.ErrUnexpectedEOF) {
			return false, 0, nil
		}
		return false, 0, err
	}
	if err := onBitRead(packetType, 1); err != nil {
		return false, 0, err
	}

	mode, blocksize, err := walkModeAndWindow(r, ident, setup, onBitRead)
	if err != nil {
		if errors.Is(err, bitpack.ErrUnexpectedEOF) {
			return false, 0, nil
		}
		return false, 0, err
	}

	if err := walkFloorsAndResidues(r, setup, codebooks, mode, blocksize, int(ident.Channels), onBitRead, onCodebookDecode); err != nil {
		if errors.Is(err, bitpack.ErrUnexpectedEOF) || errors.Is(err, ErrEndOfPacketDecodingEntry) {
			return true, blocksize, nil
		}
		return true, blocksize, err
	}

	return true, blocksize, nil
}

func walkModeAndWindow(r *bitpack.Reader, ident IdentificationData, setup *SetupData, onBitRead func(uint32, uint8) error) (ModeConfiguration, uint32, error) {
	modeBits := ilog(uint32(len(setup.Modes) - 1))

	modeRaw, err := r.ReadUnsignedInteger(w(int(modeBits)))
	if err != nil {
		return ModeConfiguration{}, 0, err
	}
	if int(modeRaw) >= len(setup.Modes) {
		return ModeConfiguration{}, 0, newInvalidModeIndexError(int(modeRaw), len(setup.Modes))
	}
	if err := onBitRead(modeRaw, modeBits); err != nil {
		return ModeConfiguration{}, 0, err
	}

	mode := setup.Modes[modeRaw]

	blocksize := ident.Blocksize0
	if mode.BlockFlag {
		blocksize = ident.Blocksize1

		for i := 0; i < 2; i++ {
			flag, err := r.ReadFlag()
			if err != nil {
				return ModeConfiguration{}, 0, err
			}
			value := uint32(0)
			if flag {
				value = 1
			}
			if err := onBitRead(value, 1); err != nil {
				return ModeConfiguration{}, 0, err
			}
		}
	}

	return mode, blocksize, nil
}

func walkFloorsAndResidues(
	r *bitpack.Reader,
	setup *SetupData,
	codebooks []*Codebook,
	mode ModeConfiguration,
	blocksize uint32,
	channelCount int,
	onBitRead func(uint32, uint8) error,
	onCodebookDecode func(int, uint32) error,
) error {
	mapping := setup.Mappings[mode.Mapping]

	noResidue := make([]bool, channelCount)
	for channel := 0; channel < channelCount; channel++ {
		submap := mapping.SubmapFor(channel)
		floorIndex := mapping.Submaps[submap].Floor
		floor := setup.Floors[floorIndex]

		hasAudioEnergy, err := walkFloor1(r, floor, codebooks, onBitRead, onCodebookDecode)
		if err != nil {
			return err
		}
		noResidue[channel] = !hasAudioEnergy
	}

	for _, coupling := range mapping.Couplings {
		propagated := noResidue[coupling.Magnitude] && noResidue[coupling.Angle]
		noResidue[coupling.Magnitude] = propagated
		noResidue[coupling.Angle] = propagated
	}

	for submapIndex, submap := range mapping.Submaps {
		var masks []bool
		allMasked := true
		for channel := 0; channel < channelCount; channel++ {
			if int(mapping.SubmapFor(channel)) != submapIndex {
				continue
			}
			masks = append(masks, noResidue[channel])
			if !noResidue[channel] {
				allMasked = false
			}
		}
		if allMasked {
			continue
		}

		residue := setup.Residues[submap.Residue]
		if err := walkResidue(r, residue, setup.Codebooks, codebooks, masks, blocksize, onCodebookDecode); err != nil {
			return err
		}
	}

	return nil
}

func walkFloor1(
	r *bitpack.Reader,
	floor FloorConfiguration,
	codebooks []*Codebook,
	onBitRead func(uint32, uint8) error,
	onCodebookDecode func(int, uint32) error,
) (bool, error) {
	flag, err := r.ReadFlag()
	if err != nil {
		return false, err
	}
	hasAudioEnergy := uint32(0)
	if flag {
		hasAudioEnergy = 1
	}
	if err := onBitRead(hasAudioEnergy, 1); err != nil {
		return false, err
	}
	if !flag {
		return false, nil
	}

	rangeBits := floor1RangeBits[floor.Multiplier-1]
	for i := 0; i < 2; i++ {
		v, err := r.ReadUnsignedInteger(w(int(rangeBits)))
		if err != nil {
			return true, err
		}
		if err := onBitRead(v, rangeBits); err != nil {
			return true, err
		}
	}

	for _, classIdx := range floor.PartitionClassList {
		cls := floor.Classes[classIdx]
		csub := uint32(1<<cls.SubclassBits) - 1

		var cval uint32
		if cls.SubclassBits > 0 {
			entry, err := decodeCodebookEntry(r, codebooks, int(cls.MasterBook), onCodebookDecode)
			if err != nil {
				return true, err
			}
			cval = entry
		}

		for d := uint8(0); d < cls.Dimensions; d++ {
			book := cls.SubclassBooks[cval&csub]
			cval >>= cls.SubclassBits

			if book < 0 {
				continue
			}
			if _, err := decodeCodebookEntry(r, codebooks, int(book), onCodebookDecode); err != nil {
				return true, err
			}
		}
	}

	return true, nil
}

func walkResidue(
	r *bitpack.Reader,
	residue ResidueConfiguration,
	configs []CodebookConfiguration,
	codebooks []*Codebook,
	originalMasks []bool,
	blocksize uint32,
	onCodebookDecode func(int, uint32) error,
) error {
	var masks []bool
	var vectorSize uint32
	if residue.Type == ResidueInterleavedVectors {
		masks = []bool{false}
		vectorSize = blocksize / 2 * uint32(len(originalMasks))
	} else {
		masks = originalMasks
		vectorSize = blocksize / 2
	}

	begin := min32(residue.Begin, vectorSize)
	end := min32(residue.End, vectorSize)
	if end <= begin {
		return nil
	}
	toRead := end - begin

	classbookConfig := configs[residue.ClassBook]
	classwordsPerCodeword := uint32(classbookConfig.Dimensions)
	partitionsToRead := toRead / residue.PartitionSize
	if partitionsToRead == 0 {
		return nil
	}

	vectorCount := len(masks)
	stride := int(classwordsPerCodeword) + int(partitionsToRead)
	classifications := make([]uint32, vectorCount*stride)

	for pass := 0; pass < 8; pass++ {
		partitionCount := 0
		for partitionCount < int(partitionsToRead) {
			if pass == 0 {
				for j, doNotDecode := range masks {
					if doNotDecode {
						continue
					}
					temp, err := decodeCodebookEntry(r, codebooks, int(residue.ClassBook), onCodebookDecode)
					if err != nil {
						return err
					}
					for i := int(classwordsPerCodeword) - 1; i >= 0; i-- {
						classifications[j*stride+i+partitionCount] = temp % uint32(residue.Classifications)
						temp /= uint32(residue.Classifications)
					}
				}
			}

			for cw := uint32(0); cw < classwordsPerCodeword; cw++ {
				for j, doNotDecode := range masks {
					if doNotDecode {
						continue
					}

					vqClass := classifications[j*stride+partitionCount]
					vqBook := residue.Books[vqClass][pass]
					if vqBook < 0 {
						continue
					}

					vqBookConfig := configs[vqBook]
					if vqBookConfig.LookupType == VectorLookupNone {
						return ErrVectorLookupRequired
					}
					if residue.PartitionSize%uint32(vqBookConfig.Dimensions) != 0 {
						return ErrPartitionSizeNotMultiple
					}

					vectorsToDecode := residue.PartitionSize / uint32(vqBookConfig.Dimensions)
					for k := uint32(0); k < vectorsToDecode; k++ {
						if _, err := decodeCodebookEntry(r, codebooks, int(vqBook), onCodebookDecode); err != nil {
							return err
						}
					}
				}

				partitionCount++
				if partitionCount >= int(partitionsToRead) {
					break
				}
			}
		}
	}

	return nil
}

func decodeCodebookEntry(r *bitpack.Reader, codebooks []*Codebook, index int, onCodebookDecode func(int, uint32) error) (uint32, error) {
	entry, err := codebooks[index].DecodeEntryNumber(r)
	if err != nil {
		return 0, err
	}
	if err := onCodebookDecode(index, entry); err != nil {
		return 0, err
	}
	return entry, nil
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

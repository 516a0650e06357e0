package vorbis

// PacketType is the leading tag byte of every Vorbis header packet (audio
// packets instead begin with a single zero bit, handled separately by the
// walker).
type PacketType uint8

const (
	PacketAudio          PacketType = 0
	PacketIdentification PacketType = 1
	PacketComment        PacketType = 3
	PacketSetup          PacketType = 5
)

const headerSignature = "vorbis"

// IdentificationData is the validated content of the identification
// header (§4.9).
type IdentificationData struct {
	Channels        uint8
	SampleRate      uint32
	BitrateMaximum  int32
	BitrateNominal  int32
	BitrateMinimum  int32
	Blocksize0      uint32
	Blocksize1      uint32
}

// CommentData is the parsed content of the comment header. Vendor and
// Comments are kept as raw bytes: UTF-8 validity is deliberately not
// enforced, so a byte-identical copy never mangles the source data.
type CommentData struct {
	Vendor   []byte
	Comments [][]byte
}

// FloorClass is one partition class of a floor-1 configuration.
type FloorClass struct {
	Dimensions    uint8
	SubclassBits  uint8
	MasterBook    int16   // -1 if this class has no masterbook (SubclassBits == 0)
	SubclassBooks []int16 // length 2^SubclassBits; -1 means no book for that subclass
}

// FloorConfiguration is a parsed floor-type-1 configuration (§4.4 item 4,
// floor type 0 is unsupported and rejected at parse time).
type FloorConfiguration struct {
	PartitionClassList []uint8 // length = partition count, each a class index
	Classes            []FloorClass
	Multiplier         uint8
	RangeBits          uint8
	XList              []uint32
}

// ResidueType enumerates the residue encoding strategy (§3 Residue
// configuration).
type ResidueType uint8

const (
	ResidueInterleaved        ResidueType = 0
	ResidueOrdered            ResidueType = 1
	ResidueInterleavedVectors ResidueType = 2
)

// ResidueConfiguration is a parsed residue configuration (§4.4 item 5).
type ResidueConfiguration struct {
	Type            ResidueType
	Begin           uint32
	End             uint32
	PartitionSize   uint32
	Classifications uint8 // <= 64
	ClassBook       uint8
	// Books[classification][pass] is the codebook number for that pass, or
	// -1 if the cascade bit for that pass was not set.
	Books [][8]int16
}

// CouplingStep is one magnitude/angle channel-coupling pair (§3 Mapping
// configuration).
type CouplingStep struct {
	Magnitude uint8
	Angle     uint8
}

// SubmapEntry is one submap's (floor, residue) index pair.
type SubmapEntry struct {
	Floor   uint8
	Residue uint8
}

// MappingConfiguration is a parsed mapping-type-0 configuration (§4.4 item 6,
// mapping type must always be 0).
type MappingConfiguration struct {
	Couplings []CouplingStep
	// Mux is per-channel submap assignment. When len(Submaps) == 1, this
	// is nil and every channel is implicitly assigned submap 0 (the setup
	// header never encodes a mux array in that case, per the resolved
	// Open Question in DESIGN.md).
	Mux     []uint8
	Submaps []SubmapEntry
}

// SubmapFor returns the submap index for channel, honoring the implicit
// single-submap case.
func (m MappingConfiguration) SubmapFor(channel int) uint8 {
	if m.Mux == nil {
		return 0
	}
	return m.Mux[channel]
}

// ModeConfiguration is a parsed mode entry (§4.4 item 7).
type ModeConfiguration struct {
	BlockFlag bool
	Mapping   uint8
}

// SetupData is the fully parsed setup header: every codebook, floor,
// residue, mapping and mode it declares, in declaration order.
type SetupData struct {
	Codebooks []CodebookConfiguration
	Floors    []FloorConfiguration
	Residues  []ResidueConfiguration
	Mappings  []MappingConfiguration
	Modes     []ModeConfiguration
}

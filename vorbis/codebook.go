package vorbis

import (
	"errors"
	"fmt"
	"math"
)

// VectorLookupType enumerates a codebook's vector-quantization lookup
// kind, read as a 4-bit field in the setup header.
type VectorLookupType uint8

const (
	VectorLookupNone VectorLookupType = iota
	VectorLookupImplicit
	VectorLookupExplicit
)

// CodebookConfiguration is the parsed setup-header description of one
// codebook: its entry codeword lengths plus, for lookup types other than
// VectorLookupNone, the vector-quantization lookup table parameters.
type CodebookConfiguration struct {
	Dimensions uint16
	Entries    uint32

	// Lengths has length Entries; a zero entry means unused.
	Lengths []uint8

	LookupType    VectorLookupType
	Minimum       float64
	Delta         float64
	ValueBits     uint8
	Sequence      bool
	Multiplicands []uint32
}

// ErrEndOfPacketDecodingEntry is returned by (*Codebook).DecodeEntryNumber
// when the bit source runs out mid-codeword — a dedicated error kind kept
// distinct from bitpack.ErrUnexpectedEOF so callers can classify it as the
// Vorbis-specific "end of packet while decoding entry" condition.
var ErrEndOfPacketDecodingEntry = errors.New("vorbis: end of packet while decoding codebook entry")

// errCodebookAlreadyOptimizing is the panic value used when Transition is
// called twice; this is a programmer error, not a data error, since no
// correctly sequenced caller transitions the same codebook more than once.
const errCodebookAlreadyOptimizing = "vorbis: codebook already transitioned to optimizing mode"

// Codebook is the runtime companion to a CodebookConfiguration: a decode
// tree plus either a recording-mode usage histogram (pass 1) or, after
// Transition, an optimizing-mode wire codeword table (pass 2).
type Codebook struct {
	config CodebookConfiguration
	tree   *huffmanTree

	freq           []uint64      // non-nil while recording
	optimal        CodewordTable // non-nil once optimizing
	optimalLengths []uint8       // non-nil once optimizing
}

// NewCodebook builds the decode tree for config and returns a Codebook
// ready to record usage frequencies.
func NewCodebook(config CodebookConfiguration) (*Codebook, error) {
	tree, err := buildHuffmanTree(config.Lengths)
	if err != nil {
		return nil, err
	}
	return &Codebook{
		config: config,
		tree:   tree,
		freq:   make([]uint64, len(config.Lengths)),
	}, nil
}

// Config returns the codebook's parsed setup-header configuration.
func (c *Codebook) Config() CodebookConfiguration { return c.config }

// HasVectorLookup reports whether this codebook carries vector
// quantization lookup data, required before it may be used in a residue
// or floor vector-decode context.
func (c *Codebook) HasVectorLookup() bool { return c.config.LookupType != VectorLookupNone }

// DecodeEntryNumber reads one codeword from r and returns its entry
// number. While the codebook is in recording mode, this also tallies the
// entry's usage (saturating at math.MaxUint64, never wrapping).
func (c *Codebook) DecodeEntryNumber(r bitReader) (uint32, error) {
	entry, err := c.tree.decodeEntry(r)
	if err != nil {
		if errors.Is(err, ErrUnderspecifiedTree) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrEndOfPacketDecodingEntry, err)
	}

	if c.freq != nil {
		if c.freq[entry] < math.MaxUint64 {
			c.freq[entry]++
		}
	}

	return entry, nil
}

// Transition moves the codebook from recording to optimizing mode: it
// computes optimal codeword lengths from the tallied frequencies and
// precomputes the wire codeword table those lengths imply. One-way;
// calling it a second time is a programmer error, matching the reference
// optimizer's one-way recording-to-optimizing transition.
func (c *Codebook) Transition() error {
	if c.freq == nil {
		panic(errCodebookAlreadyOptimizing)
	}

	lengths := CodewordLengths(c.freq)
	table, err := NewCodewordTable(lengths)
	if err != nil {
		return err
	}

	c.optimal = table
	c.optimalLengths = lengths
	c.freq = nil
	return nil
}

// OptimalCodewords returns the precomputed wire codeword table. Valid
// only once Transition has been called.
func (c *Codebook) OptimalCodewords() CodewordTable { return c.optimal }

// OptimalLengths returns the codeword lengths Transition computed, the
// same lengths the setup-header rewriter re-serializes. Valid only once
// Transition has been called.
func (c *Codebook) OptimalLengths() []uint8 { return c.optimalLengths }

// lookup1Values computes lookup1_values(entries, dimensions) as the
// Vorbis I specification defines it: floor(entries^(1/dimensions)), with
// dimensions=0 sentinel to math.MaxUint32 and entries=0 to 0.
//
// The floating-point power is only a starting estimate: pow/powf are not
// exact at integer boundaries, so the result is nudged to the true
// integer floor via repeated-multiplication verification, the way a
// careful Vorbis implementation confirms lookup table sizing rather than
// trusting float rounding at a power-law boundary.
func lookup1Values(entries uint32, dimensions uint16) uint32 {
	if dimensions == 0 {
		return math.MaxUint32
	}
	if entries == 0 {
		return 0
	}

	candidate := uint32(math.Floor(math.Pow(float64(entries), 1.0/float64(dimensions))))

	for candidate > 0 && intPow(candidate, dimensions) > entries {
		candidate--
	}
	for intPow(candidate+1, dimensions) <= entries {
		candidate++
	}

	return candidate
}

// intPow computes base^exp, saturating to math.MaxUint32 on overflow so
// lookup1Values's adjustment loop always terminates quickly even for
// pathological (base, exponent) pairs drawn from a corrupt setup header.
func intPow(base uint32, exp uint16) uint32 {
	result := uint64(1)
	b := uint64(base)
	for i := uint16(0); i < exp; i++ {
		result *= b
		if result > math.MaxUint32 {
			return math.MaxUint32
		}
	}
	return uint32(result)
}

package vorbis

import (
	"errors"
	"fmt"
)

// Errors surfaced while parsing Vorbis headers and packets, grouped per the
// taxonomy: vorbis identification errors, setup-value errors, and
// end-of-packet conditions distinct from the Huffman-tree errors in
// huffman.go and the codebook errors in codebook.go.
var (
	// ErrInvalidPacketType indicates a header packet's leading type byte
	// did not match the expected value for that header.
	ErrInvalidPacketType = errors.New("vorbis: invalid packet type")

	// ErrInvalidSignature indicates a header packet's six-byte "vorbis"
	// signature did not match.
	ErrInvalidSignature = errors.New("vorbis: invalid header signature")

	// ErrPacketTooSmall indicates a header packet was shorter than its
	// minimum fixed-size layout requires.
	ErrPacketTooSmall = errors.New("vorbis: packet too small")

	// ErrUnsupportedVersion indicates a nonzero Vorbis version field.
	ErrUnsupportedVersion = errors.New("vorbis: unsupported version")

	// ErrInvalidChannelCount indicates a zero channel count.
	ErrInvalidChannelCount = errors.New("vorbis: invalid channel count")

	// ErrInvalidSampleRate indicates a zero sampling frequency.
	ErrInvalidSampleRate = errors.New("vorbis: invalid sample rate")

	// ErrInvalidBlocksize indicates a blocksize that is not a power of
	// two in [64, 8192], or blocksize_0 > blocksize_1.
	ErrInvalidBlocksize = errors.New("vorbis: invalid blocksize")

	// ErrInvalidFraming indicates a header or setup framing bit was not 1.
	ErrInvalidFraming = errors.New("vorbis: invalid framing bit")

	// ErrInvalidLookupType indicates a codebook vector-lookup type field
	// outside {None, Implicit, Explicit}.
	ErrInvalidLookupType = errors.New("vorbis: invalid vector lookup type")

	// ErrTooBigCodewordLength indicates an ordered codeword-length run
	// pushed a length past the 32-bit ceiling, or an unordered entry's
	// length field did so directly.
	ErrTooBigCodewordLength = errors.New("vorbis: codeword length exceeds 32 bits")

	// ErrTooManyCodewords indicates an ordered codeword-length run's
	// cumulative entry count exceeded the codebook's declared entries.
	ErrTooManyCodewords = errors.New("vorbis: ordered codeword run exceeds entry count")

	// ErrUnsupportedFloorType indicates a floor type other than 1.
	ErrUnsupportedFloorType = errors.New("vorbis: unsupported floor type")

	// ErrDuplicateFloorXValue indicates a floor-1 X-coordinate list
	// contained a repeated value.
	ErrDuplicateFloorXValue = errors.New("vorbis: duplicate floor X coordinate")

	// ErrInvalidResidueType indicates a residue type outside {0, 1, 2}.
	ErrInvalidResidueType = errors.New("vorbis: invalid residue type")

	// ErrInvalidClassbook indicates a residue's classbook index is out of
	// range, or the classbook's entry count cannot cover
	// classifications^dimensions.
	ErrInvalidClassbook = errors.New("vorbis: invalid residue classbook")

	// ErrInvalidMappingType indicates a mapping type other than 0.
	ErrInvalidMappingType = errors.New("vorbis: invalid mapping type")

	// ErrInvalidChannelMapping indicates a coupling step referenced a
	// channel index out of range, or a duplicate/identical pair.
	ErrInvalidChannelMapping = errors.New("vorbis: invalid channel mapping")

	// ErrInvalidCodebookIndex indicates a reference to a codebook number
	// at or beyond the parsed codebook count.
	ErrInvalidCodebookIndex = errors.New("vorbis: invalid codebook index")

	// ErrInvalidModeIndex indicates an audio packet's mode field selected
	// a mode beyond the parsed mode count, or a setup-header mode entry
	// named a mapping beyond the parsed mapping count.
	ErrInvalidModeIndex = errors.New("vorbis: invalid mode index")

	// ErrVectorLookupRequired indicates a codebook used in a vector
	// decode context (floor subclass/masterbook, residue classbook or
	// pass book) carries no vector-lookup data.
	ErrVectorLookupRequired = errors.New("vorbis: codebook used in vector context has no vector lookup")

	// ErrPartitionSizeNotMultiple indicates a residue partition size is
	// not a multiple of its codebook's vector dimension.
	ErrPartitionSizeNotMultiple = errors.New("vorbis: residue partition size not a multiple of codebook dimension")

	// ErrInvalidCodebookSync indicates a codebook's 24-bit sync pattern
	// did not match 0x564342. Only checked when the parser is run in
	// debug/strict mode (§9: "not validated in release builds").
	ErrInvalidCodebookSync = errors.New("vorbis: invalid codebook sync pattern")

	// ErrMissingOptimalCodeword indicates the audio-packet rewrite pass
	// decoded a codebook entry that has no entry in that codebook's
	// optimal codeword table — only reachable if a codebook's entry
	// count changed between the analyze and rewrite passes, which a
	// correctly sequenced Optimizer never does.
	ErrMissingOptimalCodeword = errors.New("vorbis: no optimal codeword for decoded entry")
)

// OptimizerErrorKind classifies an OptimizerError's underlying sentinel,
// letting callers branch on the failure category without string-matching
// Error().
type OptimizerErrorKind uint8

const (
	KindInvalidCodebookIndex OptimizerErrorKind = iota
	KindInvalidModeIndex
)

// OptimizerError carries the structured fields the bare sentinels above
// don't: which index was out of range, and against what bound, mirroring
// the payload-carrying variants of the Rust original's
// VorbisOptimizerError enum (§4.10). Most parse errors here stay plain
// sentinels wrapped with fmt.Errorf, matching the teacher's own error
// style; OptimizerError is reserved for the handful of cases where a
// caller plausibly wants the numbers, not just the message.
type OptimizerError struct {
	Kind  OptimizerErrorKind
	Index int
	Bound int

	err error // the sentinel this wraps, for errors.Is
}

func (e *OptimizerError) Error() string {
	return fmt.Sprintf("%v: index %d, bound %d", e.err, e.Index, e.Bound)
}

func (e *OptimizerError) Unwrap() error { return e.err }

// Is reports whether target is the sentinel this error wraps, so
// errors.Is(err, ErrInvalidCodebookIndex) keeps working against an
// OptimizerError the same as it does against the bare sentinel.
func (e *OptimizerError) Is(target error) bool { return e.err == target }

func newInvalidCodebookIndexError(index, bound int) *OptimizerError {
	return &OptimizerError{Kind: KindInvalidCodebookIndex, Index: index, Bound: bound, err: ErrInvalidCodebookIndex}
}

func newInvalidModeIndexError(index, bound int) *OptimizerError {
	return &OptimizerError{Kind: KindInvalidModeIndex, Index: index, Bound: bound, err: ErrInvalidModeIndex}
}

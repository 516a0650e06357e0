package remux

import "errors"

var (
	// ErrNoVorbisStreams indicates no logical Vorbis bitstream was found
	// in the source and Settings.ErrorOnNoVorbisStreams is set.
	ErrNoVorbisStreams = errors.New("remux: no Vorbis streams found")

	// ErrMultiplexedVorbisStreams indicates a second Vorbis logical
	// stream began while another was still open — grouped logical
	// bitstreams (true multiplexing, as opposed to chaining) are not
	// supported.
	ErrMultiplexedVorbisStreams = errors.New("remux: grouped Vorbis logical bitstreams are not supported")

	// ErrInvalidSourceDateEpoch indicates SOURCE_DATE_EPOCH was set but
	// is not a valid ASCII signed integer.
	ErrInvalidSourceDateEpoch = errors.New("remux: invalid SOURCE_DATE_EPOCH")
)

package remux

import "github.com/optivorbis/optivorbis-go/vorbis"

// Settings configures one OggToOgg remux operation (§6 "OggToOgg
// settings").
type Settings struct {
	// RandomizeStreamSerials picks fresh, unpredictable Ogg serial
	// numbers for the output streams instead of reusing the source's
	// (default true — matches the reference tool's stance that reusing
	// source serials verbatim is rarely what a caller wants).
	RandomizeStreamSerials bool

	// FirstStreamSerialOffset is added to the randomly (or
	// deterministically, see SelectSerials) selected first serial.
	FirstStreamSerialOffset uint32

	// IgnoreStartSampleOffset disables carrying the source's initial
	// sample offset (from a non-zero first-page granule position) into
	// the output (§4.8).
	IgnoreStartSampleOffset bool

	// ErrorOnNoVorbisStreams fails the remux if the source contains no
	// logical Vorbis bitstream (default true).
	ErrorOnNoVorbisStreams bool

	// Comment configures the comment-header rewrite (vendor string and
	// comment-field handling) applied to every Vorbis stream.
	Comment vorbis.CommentRewriteSettings

	// Debug enables the setup-header parser's debug-only checks for
	// every Vorbis stream (see vorbis.OptimizerSettings.Debug).
	Debug bool

	// Mangler, if non-nil, overrides specific output fields; a nil
	// Mangler behaves as PassthroughMangler.
	Mangler OggVorbisStreamMangler
}

// DefaultSettings returns the settings a caller gets from
// NewWithDefaults: randomized serials, errors on an all-non-Vorbis
// source, passthrough comment/mangler behavior.
func DefaultSettings() Settings {
	return Settings{
		RandomizeStreamSerials: true,
		ErrorOnNoVorbisStreams: true,
		Mangler:                PassthroughMangler{},
	}
}

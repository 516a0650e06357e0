// Package ogg implements Ogg page framing, CRC-32 checksumming, and a
// codec-agnostic packet reader/writer pair (§6 of the design). It knows
// nothing about the payload of any packet; codec-specific header parsing
// lives in the vorbis package.
package ogg

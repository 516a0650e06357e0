package ogg

import "errors"

// Package-level errors for Ogg parsing and encoding.
var (
	// ErrInvalidPage indicates the page structure is malformed.
	// This includes missing "OggS" magic, invalid version, or truncated data.
	ErrInvalidPage = errors.New("ogg: invalid page structure")

	// ErrInvalidHeader indicates a malformed header. No function in this
	// package returns it; a write to a stream serial already closed by
	// EndStream returns ErrUnexpectedEOS.
	ErrInvalidHeader = errors.New("ogg: invalid header")

	// ErrBadCRC indicates the page CRC checksum does not match the computed value.
	// This typically indicates data corruption.
	ErrBadCRC = errors.New("ogg: CRC mismatch")

	// ErrUnexpectedEOS indicates a packet was written to a stream serial
	// after that stream was closed by an EndStream packet.
	ErrUnexpectedEOS = errors.New("ogg: unexpected end of stream")
)

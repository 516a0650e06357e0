package vorbis

import (
	"bytes"
	"errors"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// VendorStringAction selects how CommentHeaderCopy treats the vendor
// string when rebuilding the comment header (§4.12).
type VendorStringAction uint8

const (
	VendorCopy           VendorStringAction = iota
	VendorReplace
	VendorAppendTag
	VendorAppendShortTag
	VendorEmpty
)

// CommentFieldsAction selects how CommentHeaderCopy treats the user
// comment list.
type CommentFieldsAction uint8

const (
	CommentFieldsCopy CommentFieldsAction = iota
	CommentFieldsDelete
)

// vendorTagSeparator precedes the tag appended by VendorAppendTag/
// VendorAppendShortTag, per §4.12's idempotent-suffix rule.
const vendorTagSeparator = "; "

// AppendVendorTag appends "; tag" to vendor unless vendor already ends in
// exactly that suffix, making repeated application idempotent (§8 Vendor-tag
// idempotence: AppendTag applied twice equals AppendTag applied once).
func AppendVendorTag(vendor []byte, tag string) []byte {
	suffix := []byte(vendorTagSeparator + tag)
	if bytes.HasSuffix(vendor, suffix) {
		return vendor
	}
	out := make([]byte, 0, len(vendor)+len(suffix))
	out = append(out, vendor...)
	out = append(out, suffix...)
	return out
}

// CommentRewriteSettings configures CommentHeaderCopy's vendor-string and
// comment-list handling.
type CommentRewriteSettings struct {
	VendorAction      VendorStringAction
	ReplacementVendor []byte // used when VendorAction == VendorReplace
	Tag               string // used when VendorAction == VendorAppendTag
	ShortTag          string // used when VendorAction == VendorAppendShortTag
	CommentsAction    CommentFieldsAction
}

// RewriteCommentHeader applies settings to source, producing the
// CommentData the CommentHeaderCopy state re-emits.
func RewriteCommentHeader(source CommentData, settings CommentRewriteSettings) CommentData {
	var vendor []byte
	switch settings.VendorAction {
	case VendorReplace:
		vendor = settings.ReplacementVendor
	case VendorAppendTag:
		vendor = AppendVendorTag(source.Vendor, settings.Tag)
	case VendorAppendShortTag:
		vendor = AppendVendorTag(source.Vendor, settings.ShortTag)
	case VendorEmpty:
		vendor = nil
	default: // VendorCopy
		vendor = source.Vendor
	}

	comments := source.Comments
	if settings.CommentsAction == CommentFieldsDelete {
		comments = nil
	}

	return CommentData{Vendor: vendor, Comments: comments}
}

// ParseCommentHeader decodes the comment header packet. Comment strings are
// kept as raw bytes: UTF-8 validity is never checked, so a Copy action
// round-trips the source bytes exactly. A packet truncated mid-comment-list
// is recovered locally (§7 Comment-header truncation): a warning is logged
// and whatever vendor/comments were read before the truncation is returned
// with a nil error.
func ParseCommentHeader(packet []byte) (CommentData, error) {
	r := bitpack.NewReader(bytes.NewReader(packet))

	packetType, err := r.ReadUnsignedInteger(w(8))
	if err != nil {
		return CommentData{}, ErrPacketTooSmall
	}
	if PacketType(packetType) != PacketComment {
		return CommentData{}, ErrInvalidPacketType
	}

	sig := make([]byte, len(headerSignature))
	for i := range sig {
		b, err := r.ReadUnsignedInteger(w(8))
		if err != nil {
			return CommentData{}, ErrPacketTooSmall
		}
		sig[i] = byte(b)
	}
	if string(sig) != headerSignature {
		return CommentData{}, ErrInvalidSignature
	}

	vendor, truncated, err := readLengthPrefixed(r)
	if err != nil {
		return CommentData{}, err
	}
	if truncated {
		logger.Printf("comment header truncated while reading vendor string")
		return CommentData{Vendor: vendor}, nil
	}

	count, err := r.ReadUnsignedInteger(w(32))
	if err != nil {
		logger.Printf("comment header truncated before comment count")
		return CommentData{Vendor: vendor}, nil
	}

	comments := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		comment, truncated, err := readLengthPrefixed(r)
		if err != nil {
			return CommentData{}, err
		}
		if truncated {
			logger.Printf("comment header truncated after %d of %d comments", len(comments), count)
			return CommentData{Vendor: vendor, Comments: comments}, nil
		}
		comments = append(comments, comment)
	}

	// Framing bit: its value is never checked, and a packet that ends
	// before it is only logged, not rejected.
	if _, err := r.ReadFlag(); err != nil {
		logger.Printf("comment header truncated at framing bit")
	}

	return CommentData{Vendor: vendor, Comments: comments}, nil
}

// readLengthPrefixed reads a u32-LE length followed by that many raw bytes.
// truncated is true (with a nil error) when EOF was hit reading the length
// prefix or the payload — the caller decides whether that is recoverable.
func readLengthPrefixed(r *bitpack.Reader) (data []byte, truncated bool, err error) {
	length, err := r.ReadUnsignedInteger(w(32))
	if err != nil {
		if errors.Is(err, bitpack.ErrUnexpectedEOF) {
			return nil, true, nil
		}
		return nil, false, err
	}

	buf := make([]byte, length)
	for i := range buf {
		b, err := r.ReadUnsignedInteger(w(8))
		if err != nil {
			if errors.Is(err, bitpack.ErrUnexpectedEOF) {
				return buf[:i], true, nil
			}
			return nil, false, err
		}
		buf[i] = byte(b)
	}
	return buf, false, nil
}

// EncodeCommentHeader serializes data into the standard comment-header wire
// layout: packet type 3, signature, length-prefixed vendor string,
// length-prefixed comment count and comments, framing byte 1.
func EncodeCommentHeader(data CommentData) []byte {
	var buf bytes.Buffer
	out := bitpack.NewWriter(&buf)

	out.WriteUnsignedInteger(uint32(PacketComment), w(8))
	for i := 0; i < len(headerSignature); i++ {
		out.WriteUnsignedInteger(uint32(headerSignature[i]), w(8))
	}

	writeLengthPrefixed(out, data.Vendor)

	out.WriteUnsignedInteger(uint32(len(data.Comments)), w(32))
	for _, c := range data.Comments {
		writeLengthPrefixed(out, c)
	}

	out.WriteFlag(true)
	out.Flush()
	return buf.Bytes()
}

func writeLengthPrefixed(w2 *bitpack.Writer, data []byte) {
	w2.WriteUnsignedInteger(uint32(len(data)), w(32))
	for _, b := range data {
		w2.WriteUnsignedInteger(uint32(b), w(8))
	}
}

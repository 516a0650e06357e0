// Package vorbis implements the Vorbis I codec model used by the
// optimizer: Huffman codebooks, the setup header, the audio packet walker
// and the analyze/rewrite state machine.
package vorbis

import "errors"

// ErrOverspecifiedTree indicates the codeword lengths supplied to a
// codebook describe a tree that overflows the available code space (too
// many entries claim the same depth). The Vorbis I specification treats
// this as a codebook-load-time error; it is never repaired.
var ErrOverspecifiedTree = errors.New("vorbis: overspecified huffman tree")

// ErrUnderspecifiedTree indicates a tree walk consumed a path that no
// codeword length ever assigned. An underspecified tree is tolerated at
// load time (NewCodebook accepts it) but fails decode
// the moment a packet actually walks into the missing branch.
var ErrUnderspecifiedTree = errors.New("vorbis: underspecified huffman tree (codeword unassigned)")

// codeword is the canonical, root-to-leaf bit path assigned to one
// codebook entry, expressed MSB-first: bit length-1 is the decision taken
// at the root, bit 0 the decision taken at the leaf's parent.
type codeword struct {
	bits   uint32
	length uint8
}

// buildCodewords assigns canonical Huffman codewords to entries from their
// bit lengths alone, using the leftmost-free-node-at-depth-length placement
// rule the Vorbis I specification mandates (§ 3.2.1) — the same marker-array
// technique used by the reference decoder's codebook loader. A zero length
// means the entry is unused and is left with the zero codeword.
func buildCodewords(lengths []uint8) ([]codeword, error) {
	out := make([]codeword, len(lengths))

	var marker [33]uint32

	for i, l := range lengths {
		if l == 0 {
			continue
		}
		length := int(l)

		entry := marker[length]
		if length < 32 && (entry>>uint(length)) != 0 {
			return nil, ErrOverspecifiedTree
		}
		out[i] = codeword{bits: entry, length: l}

		for j := length; j > 0; j-- {
			if marker[j]&1 != 0 {
				if j == 1 {
					marker[1]++
				} else {
					marker[j] = marker[j-1] << 1
				}
				break
			}
			marker[j]++
		}

		for j := length + 1; j < 33; j++ {
			if (marker[j] >> 1) == entry {
				entry = marker[j]
				marker[j] = marker[j-1] << 1
			} else {
				break
			}
		}
	}

	return out, nil
}

// reverseBits reverses the low `length` bits of v, used when emitting a
// canonical (MSB-first) codeword onto a bitpack.Writer, which writes
// LSB-first: the root decision must land in the stream's first-read bit.
func reverseBits(v uint32, length uint8) uint32 {
	var out uint32
	for i := uint8(0); i < length; i++ {
		out = (out << 1) | (v & 1)
		v >>= 1
	}
	return out
}

// huffmanNode is one node of the index-based prefix tree. children holds
// indices into the owning tree's nodes slice, -1 meaning absent. A node
// with both children absent and leaf set is a decodable entry; a node with
// both children absent and leaf unset is an unassigned (underspecified)
// branch.
type huffmanNode struct {
	children [2]int32
	leaf     bool
	entry    uint32
}

// huffmanTree is a growable array-backed Huffman decode tree, per the
// index-based design favored over a pointer tree: node 0 is always the
// root.
type huffmanTree struct {
	nodes []huffmanNode
}

func newEmptyHuffmanTree() *huffmanTree {
	return &huffmanTree{nodes: []huffmanNode{{children: [2]int32{-1, -1}}}}
}

// buildHuffmanTree constructs the decode tree for a codebook's entry
// lengths. It special-cases the single-used-entry, length-one codebook:
// the Vorbis I specification requires both possible values of the single
// bit read to resolve to that entry, which a plain canonical-codeword
// insertion would not produce (only the zero branch would be wired).
func buildHuffmanTree(lengths []uint8) (*huffmanTree, error) {
	usedCount := 0
	onlyUsed := -1
	for i, l := range lengths {
		if l > 0 {
			usedCount++
			onlyUsed = i
		}
	}

	t := newEmptyHuffmanTree()

	if usedCount == 0 {
		return t, nil
	}
	if usedCount == 1 && lengths[onlyUsed] == 1 {
		t.nodes[0].children[0] = 1
		t.nodes[0].children[1] = 1
		t.nodes = append(t.nodes, huffmanNode{children: [2]int32{-1, -1}, leaf: true, entry: uint32(onlyUsed)})
		return t, nil
	}

	codewords, err := buildCodewords(lengths)
	if err != nil {
		return nil, err
	}

	for entry, cw := range codewords {
		if cw.length == 0 {
			continue
		}
		t.insert(cw, uint32(entry))
	}

	return t, nil
}

// insert walks (creating nodes as needed) the path described by cw, from
// the most significant decision bit down to the least significant, and
// marks the final node as a leaf for entry.
func (t *huffmanTree) insert(cw codeword, entry uint32) {
	node := int32(0)
	for i := int(cw.length) - 1; i >= 0; i-- {
		bit := (cw.bits >> uint(i)) & 1
		next := t.nodes[node].children[bit]
		if next == -1 {
			t.nodes = append(t.nodes, huffmanNode{children: [2]int32{-1, -1}})
			next = int32(len(t.nodes) - 1)
			t.nodes[node].children[bit] = next
		}
		node = next
	}
	t.nodes[node].leaf = true
	t.nodes[node].entry = entry
}

// bitReader is the minimal interface the tree walk needs from a
// bitpack.Reader, kept narrow so tests can supply canned bit sequences.
type bitReader interface {
	ReadFlag() (bool, error)
}

// decodeEntry walks the tree one bit at a time, starting at the root,
// until it lands on a leaf, returning that leaf's entry number. Reaching
// an internal node whose required child is absent means the packet data
// references a codeword the setup header never defined: ErrUnderspecifiedTree.
func (t *huffmanTree) decodeEntry(r bitReader) (uint32, error) {
	node := int32(0)
	for {
		n := t.nodes[node]
		if n.leaf {
			return n.entry, nil
		}
		bit, err := r.ReadFlag()
		if err != nil {
			return 0, err
		}
		idx := 0
		if bit {
			idx = 1
		}
		next := n.children[idx]
		if next == -1 {
			return 0, ErrUnderspecifiedTree
		}
		node = next
	}
}

// wireCodeword is one entry's on-the-wire codeword: the bit pattern a
// bitpack.Writer should emit (already bit-reversed from canonical,
// LSB-first order) and its length. OK is false for unused entries.
type wireCodeword struct {
	bits   uint32
	length uint8
	ok     bool
}

// CodewordTable is a precomputed entry-number-to-codeword mapping, built
// once per codebook so the audio-packet rewrite pass does not reconstruct
// canonical codewords on every codebook decode — mirrors the reference
// optimizer's one-time codebook_optimal_codewords() precomputation.
type CodewordTable []wireCodeword

// NewCodewordTable builds the canonical codeword assignment for lengths
// and returns it as a table indexed by entry number.
func NewCodewordTable(lengths []uint8) (CodewordTable, error) {
	codewords, err := buildCodewords(lengths)
	if err != nil {
		return nil, err
	}

	table := make(CodewordTable, len(codewords))
	for i, cw := range codewords {
		if cw.length == 0 {
			continue
		}
		table[i] = wireCodeword{
			bits:   reverseBits(cw.bits, cw.length),
			length: cw.length,
			ok:     true,
		}
	}
	return table, nil
}

// Lookup returns the wire codeword for entry, or ok=false if entry is out
// of range or unused.
func (t CodewordTable) Lookup(entry uint32) (bits uint32, length uint8, ok bool) {
	if int(entry) >= len(t) {
		return 0, 0, false
	}
	wc := t[entry]
	return wc.bits, wc.length, wc.ok
}

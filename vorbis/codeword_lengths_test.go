package vorbis

import "testing"

// kraftSum returns sum(2^-length) over used entries, which must equal
// exactly 1 for a complete, optimal prefix code (the Kraft-McMillan
// equality), whatever tie-breaking the merge order chose.
func kraftSum(lengths []uint8) float64 {
	var sum float64
	for _, l := range lengths {
		if l == 0 {
			continue
		}
		sum += 1.0 / float64(uint64(1)<<uint(l))
	}
	return sum
}

func weightedPathLength(frequencies []uint64, lengths []uint8) uint64 {
	var total uint64
	for i, f := range frequencies {
		total += f * uint64(lengths[i])
	}
	return total
}

func TestCodewordLengthsKraftEquality(t *testing.T) {
	cases := [][]uint64{
		{20, 17, 6, 3, 2, 2, 2, 1, 1, 1},
		{1, 20, 2, 1, 6, 0, 2, 2, 3, 1, 17},
		{5, 5, 5, 5},
		{1, 1},
		{100, 1, 1, 1, 1, 1, 1, 1},
	}

	for _, freqs := range cases {
		lengths := CodewordLengths(freqs)
		if got, want := kraftSum(lengths), 1.0; absFloat(got-want) > 1e-9 {
			t.Errorf("CodewordLengths(%v) = %v, kraft sum = %v, want %v", freqs, lengths, got, want)
		}
	}
}

func TestCodewordLengthsZeroUsed(t *testing.T) {
	lengths := CodewordLengths([]uint64{0, 0, 0})
	for i, l := range lengths {
		if l != 0 {
			t.Fatalf("lengths[%d] = %d, want 0 for an all-unused codebook", i, l)
		}
	}
}

func TestCodewordLengthsSingleUsed(t *testing.T) {
	lengths := CodewordLengths([]uint64{0, 0, 42, 0})
	want := []uint8{0, 0, 1, 0}
	for i := range want {
		if lengths[i] != want[i] {
			t.Fatalf("lengths = %v, want %v", lengths, want)
		}
	}
}

func TestCodewordLengthsMonotonicWithFrequency(t *testing.T) {
	// A higher-frequency entry must never get a strictly longer codeword
	// than a lower-frequency one, a defining property of optimal
	// (minimum weighted path length) Huffman assignment.
	freqs := []uint64{20, 17, 6, 3, 2, 2, 2, 1, 1, 1}
	lengths := CodewordLengths(freqs)

	for i := 1; i < len(freqs); i++ {
		if freqs[i] < freqs[i-1] && lengths[i] < lengths[i-1] {
			t.Fatalf("entry %d has lower frequency (%d<%d) but shorter code (%d<%d)",
				i, freqs[i], freqs[i-1], lengths[i], lengths[i-1])
		}
	}
}

func TestCodewordLengthsBuildsValidTree(t *testing.T) {
	freqs := []uint64{20, 17, 6, 3, 2, 2, 2, 1, 1, 1}
	lengths := CodewordLengths(freqs)

	if _, err := buildHuffmanTree(lengths); err != nil {
		t.Fatalf("optimal lengths produced an invalid tree: %v", err)
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

package similarity

// hashBase is the polynomial base for k-gram hashing. Shared by the whole
// run so hashes are comparable across files. Arithmetic is uint64 with
// natural wraparound.
const hashBase uint64 = 0x100000001b3

// KGramHashes returns one hash per n-token window of the sequence, length
// max(0, len(tokens)-n+1). Position i hashes tokens[i..i+n) as a polynomial
// in hashBase, so the hash is position-sensitive within the window and
// identical windows hash identically across files. Each window after the
// first is computed incrementally from the previous one.
func KGramHashes(tokens []uint64, n int) []uint64 {
	if n < 1 || len(tokens) < n {
		return nil
	}

	// pow = hashBase^(n-1), the weight of the outgoing token.
	pow := uint64(1)
	for i := 0; i < n-1; i++ {
		pow *= hashBase
	}

	hashes := make([]uint64, len(tokens)-n+1)

	var h uint64
	for i := 0; i < n; i++ {
		h = h*hashBase + tokens[i]
	}
	hashes[0] = h

	for i := 1; i < len(hashes); i++ {
		h = (h-tokens[i-1]*pow)*hashBase + tokens[i+n-1]
		hashes[i] = h
	}

	return hashes
}

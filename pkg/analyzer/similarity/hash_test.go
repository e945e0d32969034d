package similarity

import (
	"testing"
)

// tokens builds a sequence from letters for readable cases.
func tokens(s string) []uint64 {
	out := make([]uint64, len(s))
	for i, c := range s {
		out[i] = uint64(c)
	}
	return out
}

func TestKGramHashesLength(t *testing.T) {
	tests := []struct {
		name string
		seq  []uint64
		n    int
		want int
	}{
		{"exact fit", tokens("ABC"), 3, 1},
		{"six tokens n3", tokens("ABCABC"), 3, 4},
		{"n1 is identity length", tokens("ABCD"), 1, 4},
		{"too short", tokens("AB"), 3, 0},
		{"empty", nil, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KGramHashes(tt.seq, tt.n)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestKGramHashesStability(t *testing.T) {
	// [A,B,C,A,B,C] with n=3: windows (A,B,C), (B,C,A), (C,A,B), (A,B,C).
	hashes := KGramHashes(tokens("ABCABC"), 3)
	if len(hashes) != 4 {
		t.Fatalf("len = %d, want 4", len(hashes))
	}
	if hashes[0] != hashes[3] {
		t.Errorf("identical windows hash differently: %x vs %x", hashes[0], hashes[3])
	}
	if hashes[0] == hashes[1] || hashes[1] == hashes[2] {
		t.Error("distinct windows should not collide here")
	}

	// Same window in a different file position and sequence.
	other := KGramHashes(tokens("XYABCZ"), 3)
	if other[2] != hashes[0] {
		t.Errorf("cross-sequence window (A,B,C) hash mismatch: %x vs %x", other[2], hashes[0])
	}
}

func TestKGramHashesPositionSensitive(t *testing.T) {
	forward := KGramHashes(tokens("ABC"), 3)
	reversed := KGramHashes(tokens("CBA"), 3)
	if forward[0] == reversed[0] {
		t.Error("reordered window must hash differently (not a multiset hash)")
	}
}

func TestKGramHashesRollingMatchesDirect(t *testing.T) {
	seq := tokens("GATTACAGATTACAXYZ")
	n := 4
	rolled := KGramHashes(seq, n)

	for i := range rolled {
		direct := KGramHashes(seq[i:i+n], n)[0]
		if rolled[i] != direct {
			t.Errorf("position %d: rolled %x != direct %x", i, rolled[i], direct)
		}
	}
}

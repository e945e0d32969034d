package similarity

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ErrConfig is returned by Validate for parameters the pipeline cannot run
// with. It is the only fatal error in this package; everything per-file or
// per-pair is recorded in the result stream instead.
var ErrConfig = errors.New("invalid fingerprint configuration")

// Config holds the winnowing pipeline parameters.
type Config struct {
	// KGramSize is the number of consecutive tokens hashed per k-gram (n).
	KGramSize int

	// WindowSize is the winnowing window width in hashes (w).
	WindowSize int

	// Workers bounds the parallel pool. 0 means NumCPU.
	Workers int
}

// DefaultConfig returns the reference tuning (n=5, w=10).
func DefaultConfig() Config {
	return Config{
		KGramSize:  5,
		WindowSize: 10,
		Workers:    0,
	}
}

// Validate fails fast before any file is processed.
func (c Config) Validate() error {
	if c.KGramSize < 1 {
		return fmt.Errorf("%w: k-gram size must be >= 1 (got %d)", ErrConfig, c.KGramSize)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: window size must be >= 1 (got %d)", ErrConfig, c.WindowSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0 (got %d)", ErrConfig, c.Workers)
	}
	return nil
}

// GuaranteeLength is the shortest shared token run that is certain to
// produce at least one shared fingerprint between two files.
func (c Config) GuaranteeLength() int {
	return c.KGramSize + c.WindowSize - 1
}

// Status is the terminal state of one submission file.
type Status string

const (
	// StatusOK means the file produced a non-empty fingerprint set.
	StatusOK Status = "ok"

	// StatusParseFailed means the file could not be read or parsed, or its
	// tree yielded no tokens. The file is excluded from scoring.
	StatusParseFailed Status = "parse_failed"

	// StatusTooShort means the token sequence was shorter than the k-gram
	// size; the fingerprint set is empty and pairs are incomparable.
	StatusTooShort Status = "too_short"

	// StatusIncomplete means the run was cancelled before the file was
	// fingerprinted.
	StatusIncomplete Status = "incomplete"
)

// FileRecord is one comparable submission. Immutable once its status is set.
type FileRecord struct {
	Path         string            `json:"path"`
	Status       Status            `json:"status"`
	TokenCount   int               `json:"token_count"`
	Fingerprints *roaring64.Bitmap `json:"-"`

	// Digest is a blake3 hash of the normalized token sequence; equal
	// digests mean structurally identical files.
	Digest [32]byte `json:"-"`
}

// Usable reports whether the record can be scored against another.
func (r *FileRecord) Usable() bool {
	return r != nil && (r.Status == StatusOK || r.Status == StatusTooShort)
}

// PairStatus classifies one scored pair.
type PairStatus string

const (
	// PairScored means both sides had fingerprints and Score is meaningful.
	PairScored PairStatus = "scored"

	// PairIncomparable means at least one side was too short to
	// fingerprint. Reported instead of a misleading 0.0.
	PairIncomparable PairStatus = "incomparable"

	// PairExcluded means at least one side failed to parse or was left
	// incomplete by cancellation.
	PairExcluded PairStatus = "excluded"
)

// Result is one scored unordered pair, A before B in first-seen file order.
type Result struct {
	FileA  string     `json:"file_a"`
	FileB  string     `json:"file_b"`
	Status PairStatus `json:"status"`
	Score  float64    `json:"score"`

	// Identical flags byte-equal normalized token sequences.
	Identical bool `json:"identical,omitempty"`
}

// Analysis is the full pairwise comparison output.
type Analysis struct {
	Files   []*FileRecord `json:"files"`
	Results []Result      `json:"results"`
	Summary Summary       `json:"summary"`
}

// Summary aggregates the run.
type Summary struct {
	TotalFiles  int `json:"total_files"`
	UsableFiles int `json:"usable_files"`
	ParseFailed int `json:"parse_failed"`
	TooShort    int `json:"too_short"`
	Incomplete  int `json:"incomplete,omitempty"`

	ScoredPairs       int `json:"scored_pairs"`
	IncomparablePairs int `json:"incomparable_pairs"`
	ExcludedPairs     int `json:"excluded_pairs"`

	MeanScore float64 `json:"mean_score"`
	P50Score  float64 `json:"p50_score"`
	P95Score  float64 `json:"p95_score"`
	MaxScore  float64 `json:"max_score"`
}

// Package similarity scores structural similarity between submissions. Each
// file's parse tree is linearized to a normalized token sequence, hashed
// over k-gram windows, and winnowed to a sparse fingerprint set; every
// unordered pair of files is then scored by approximate Jaccard similarity
// over those sets. Any shared token run of at least n+w-1 tokens is
// guaranteed to surface as at least one shared fingerprint.
package similarity

import (
	"context"
	"encoding/binary"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/zeebo/blake3"
	"gonum.org/v1/gonum/stat"

	"github.com/mquinn/doppel/internal/fileproc"
	"github.com/mquinn/doppel/pkg/parser"
	"github.com/mquinn/doppel/pkg/source"
	"github.com/mquinn/doppel/pkg/tree"
)

// Analyzer runs the fingerprint-and-score pipeline.
type Analyzer struct {
	config  Config
	cleaner *source.Cleaner
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig sets all pipeline parameters at once.
func WithConfig(cfg Config) Option {
	return func(a *Analyzer) {
		a.config = cfg
	}
}

// WithKGramSize sets the k-gram window length (n).
func WithKGramSize(n int) Option {
	return func(a *Analyzer) {
		a.config.KGramSize = n
	}
}

// WithWindowSize sets the winnowing window width (w).
func WithWindowSize(w int) Option {
	return func(a *Analyzer) {
		a.config.WindowSize = w
	}
}

// WithWorkers bounds the parallel pool.
func WithWorkers(workers int) Option {
	return func(a *Analyzer) {
		a.config.Workers = workers
	}
}

// WithCleaner strips template boilerplate from each submission before
// parsing.
func WithCleaner(c *source.Cleaner) Option {
	return func(a *Analyzer) {
		a.cleaner = c
	}
}

// New creates an analyzer with default config.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fingerprints every file and scores every unordered pair.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*Analysis, error) {
	return a.AnalyzeWithProgress(ctx, files, src, nil, nil)
}

// AnalyzeWithProgress is Analyze with per-phase progress callbacks.
//
// The per-file phase runs to completion before any pair is scored: scoring
// needs every fingerprint set terminal. Both phases fan out on a pool
// bounded by the configured worker count, and results are keyed by input
// position, never by completion order. A failed file is recorded and
// excluded without disturbing sibling tasks; cancellation abandons
// unfinished files, which surface as incomplete.
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, files []string, src source.ContentSource, onFile, onPair fileproc.ProgressFunc) (*Analysis, error) {
	if err := a.config.Validate(); err != nil {
		return nil, err
	}

	paths := dedupe(files)
	store := NewStore()

	records := fileproc.MapIndexed(paths, a.config.Workers, func(_ int, path string) *FileRecord {
		rec := a.fingerprintFile(ctx, path, src)
		store.Insert(rec)
		return rec
	}, onFile)

	type pairKey struct{ i, j int }
	var pairs []pairKey
	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			pairs = append(pairs, pairKey{i, j})
		}
	}

	results := fileproc.MapIndexed(pairs, a.config.Workers, func(_ int, p pairKey) Result {
		ra, _ := store.Get(paths[p.i])
		rb, _ := store.Get(paths[p.j])
		return scorePair(ra, rb)
	}, onPair)

	analysis := &Analysis{
		Files:   records,
		Results: results,
	}
	analysis.Summary = summarize(records, results)
	return analysis, nil
}

// fingerprintFile runs read -> clean -> parse -> ingest -> linearize ->
// hash -> winnow for one file. Never returns an error: every failure mode
// lands in the record's status.
func (a *Analyzer) fingerprintFile(ctx context.Context, path string, src source.ContentSource) (rec *FileRecord) {
	rec = &FileRecord{Path: path, Status: StatusParseFailed}

	// A grammar crash on malformed input must not take down the run.
	defer func() {
		if r := recover(); r != nil {
			rec = &FileRecord{Path: path, Status: StatusParseFailed}
		}
	}()

	if ctx.Err() != nil {
		rec.Status = StatusIncomplete
		return rec
	}

	content, err := src.Read(path)
	if err != nil {
		return rec
	}
	content = a.cleaner.Clean(content)

	psr := parser.New()
	defer psr.Close()

	parsed, err := psr.Parse(content, parser.DetectLanguage(path), path)
	if err != nil {
		return rec
	}

	tokens := Linearize(tree.FromSitter(parsed.Tree.RootNode(), path))
	if len(tokens) == 0 {
		return rec
	}

	rec.TokenCount = len(tokens)
	rec.Digest = sequenceDigest(tokens)
	rec.Fingerprints = Winnow(KGramHashes(tokens, a.config.KGramSize), a.config.WindowSize)

	if rec.Fingerprints.IsEmpty() {
		rec.Status = StatusTooShort
	} else {
		rec.Status = StatusOK
	}
	return rec
}

// scorePair produces the result for one unordered pair of terminal records.
func scorePair(ra, rb *FileRecord) Result {
	r := Result{FileA: ra.Path, FileB: rb.Path}

	switch {
	case !ra.Usable() || !rb.Usable():
		r.Status = PairExcluded
	case ra.Status == StatusTooShort || rb.Status == StatusTooShort:
		r.Status = PairIncomparable
	default:
		r.Status = PairScored
		r.Score = Jaccard(ra.Fingerprints, rb.Fingerprints)
		r.Identical = ra.Digest == rb.Digest
	}
	return r
}

// Jaccard computes |A∩B| / |A∪B| over two fingerprint sets. Both sets must
// be non-empty; callers gate empty sets to the incomparable status instead.
func Jaccard(a, b *roaring64.Bitmap) float64 {
	inter := roaring64.And(a, b).GetCardinality()
	union := a.GetCardinality() + b.GetCardinality() - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// sequenceDigest hashes the whole normalized token sequence. Equal digests
// identify structurally identical submissions without set comparison.
func sequenceDigest(tokens []uint64) [32]byte {
	h := blake3.New()
	var buf [8]byte
	for _, t := range tokens {
		binary.LittleEndian.PutUint64(buf[:], t)
		h.Write(buf[:])
	}
	var d [32]byte
	copy(d[:], h.Sum(nil))
	return d
}

// summarize aggregates file statuses and the scored-pair distribution.
func summarize(records []*FileRecord, results []Result) Summary {
	s := Summary{TotalFiles: len(records)}

	for _, rec := range records {
		switch rec.Status {
		case StatusOK:
			s.UsableFiles++
		case StatusTooShort:
			s.UsableFiles++
			s.TooShort++
		case StatusParseFailed:
			s.ParseFailed++
		case StatusIncomplete:
			s.Incomplete++
		}
	}

	var scores []float64
	for _, r := range results {
		switch r.Status {
		case PairScored:
			s.ScoredPairs++
			scores = append(scores, r.Score)
			if r.Score > s.MaxScore {
				s.MaxScore = r.Score
			}
		case PairIncomparable:
			s.IncomparablePairs++
		case PairExcluded:
			s.ExcludedPairs++
		}
	}

	if len(scores) > 0 {
		s.MeanScore = stat.Mean(scores, nil)
		sort.Float64s(scores)
		s.P50Score = stat.Quantile(0.5, stat.Empirical, scores, nil)
		s.P95Score = stat.Quantile(0.95, stat.Empirical, scores, nil)
	}

	return s
}

// dedupe drops repeated paths, keeping first-seen order.
func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Package report persists one scan's pairwise results as a timestamped file
// under the configured report directory, and builds the renderable summary
// shown on the terminal.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mquinn/doppel/internal/output"
	"github.com/mquinn/doppel/pkg/analyzer/similarity"
)

const timestampLayout = "2006_01_02_15_04_05"

// Writer persists scan reports.
type Writer struct {
	dir       string
	threshold float64
	now       func() time.Time
}

// NewWriter creates a report writer for dir. Scored pairs at or above
// threshold are flagged in the report body.
func NewWriter(dir string, threshold float64) *Writer {
	return &Writer{dir: dir, threshold: threshold, now: time.Now}
}

// Save writes the pairwise report to a timestamped file and returns its
// path. Scored pairs are listed highest first; excluded and incomparable
// pairs follow with their reason.
func (w *Writer) Save(analysis *similarity.Analysis) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("pairwise_report_%s.txt", w.now().Format(timestampLayout)))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	b.WriteString("Pairwise Structural Similarity Report\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")

	for _, r := range sortedByScore(analysis.Results) {
		switch r.Status {
		case similarity.PairScored:
			flag := ""
			if r.Score >= w.threshold {
				flag = "  [FLAGGED]"
			}
			if r.Identical {
				flag += " [IDENTICAL]"
			}
			fmt.Fprintf(&b, "Similarity between %s and %s: %.4f%s\n", r.FileA, r.FileB, r.Score, flag)
		case similarity.PairIncomparable:
			fmt.Fprintf(&b, "Incomparable pair %s and %s: a side was too short to fingerprint\n", r.FileA, r.FileB)
		case similarity.PairExcluded:
			fmt.Fprintf(&b, "Excluded pair %s and %s: a side failed to parse\n", r.FileA, r.FileB)
		}
	}

	var failed []string
	for _, rec := range analysis.Files {
		if rec.Status == similarity.StatusParseFailed {
			failed = append(failed, rec.Path)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\nFailed to parse:\n")
		for _, p := range failed {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}

	b.WriteString("\n")
	writeSummary(&b, analysis.Summary)

	if _, err := f.WriteString(b.String()); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func writeSummary(b *strings.Builder, s similarity.Summary) {
	b.WriteString("Summary\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(b, "Files:        %d total, %d usable, %d parse failed, %d too short\n",
		s.TotalFiles, s.UsableFiles, s.ParseFailed, s.TooShort)
	if s.Incomplete > 0 {
		fmt.Fprintf(b, "Incomplete:   %d (run cancelled)\n", s.Incomplete)
	}
	fmt.Fprintf(b, "Pairs:        %d scored, %d incomparable, %d excluded\n",
		s.ScoredPairs, s.IncomparablePairs, s.ExcludedPairs)
	if s.ScoredPairs > 0 {
		fmt.Fprintf(b, "Scores:       mean %.4f, p50 %.4f, p95 %.4f, max %.4f\n",
			s.MeanScore, s.P50Score, s.P95Score, s.MaxScore)
	}
}

// sortedByScore orders scored pairs highest first, keeping non-scored pairs
// after them in their original order.
func sortedByScore(results []similarity.Result) []similarity.Result {
	out := make([]similarity.Result, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Status == similarity.PairScored, out[j].Status == similarity.PairScored
		if si != sj {
			return si
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Summarize builds the terminal table for an analysis, scored pairs first.
func Summarize(analysis *similarity.Analysis, threshold float64, colored bool) *output.Table {
	rows := make([][]string, 0, len(analysis.Results))
	for _, r := range sortedByScore(analysis.Results) {
		score := "-"
		if r.Status == similarity.PairScored {
			score = fmt.Sprintf("%.4f", r.Score)
			if colored {
				score = output.ScoreColor(score, r.Score, threshold)
			}
		}
		status := string(r.Status)
		if r.Identical {
			status = "identical"
		}
		rows = append(rows, []string{r.FileA, r.FileB, score, status})
	}

	s := analysis.Summary
	footer := []string{
		fmt.Sprintf("%d files", s.TotalFiles), "",
		fmt.Sprintf("max %.4f", s.MaxScore),
		fmt.Sprintf("%d scored", s.ScoredPairs),
	}

	return output.NewTable("Pairwise Structural Similarity",
		[]string{"File A", "File B", "Score", "Status"},
		rows, footer, analysis)
}

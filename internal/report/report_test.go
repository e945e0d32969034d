package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquinn/doppel/pkg/analyzer/similarity"
)

func sampleAnalysis() *similarity.Analysis {
	return &similarity.Analysis{
		Files: []*similarity.FileRecord{
			{Path: "alice/top.v", Status: similarity.StatusOK},
			{Path: "bob/top.v", Status: similarity.StatusOK},
			{Path: "carol/top.v", Status: similarity.StatusOK},
			{Path: "dave/top.v", Status: similarity.StatusParseFailed},
			{Path: "eve/top.v", Status: similarity.StatusTooShort},
		},
		Results: []similarity.Result{
			{FileA: "alice/top.v", FileB: "bob/top.v", Status: similarity.PairScored, Score: 0.92},
			{FileA: "alice/top.v", FileB: "carol/top.v", Status: similarity.PairScored, Score: 0.12},
			{FileA: "bob/top.v", FileB: "carol/top.v", Status: similarity.PairScored, Score: 1.0, Identical: true},
			{FileA: "alice/top.v", FileB: "dave/top.v", Status: similarity.PairExcluded},
			{FileA: "bob/top.v", FileB: "eve/top.v", Status: similarity.PairIncomparable},
		},
		Summary: similarity.Summary{
			TotalFiles:  5,
			UsableFiles: 4,
			ParseFailed: 1,
			TooShort:    1,
			ScoredPairs: 3, IncomparablePairs: 1, ExcludedPairs: 1,
			MeanScore: 0.68, P50Score: 0.92, P95Score: 1.0, MaxScore: 1.0,
		},
	}
}

func TestSaveWritesTimestampedReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 0.8)
	w.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	path, err := w.Save(sampleAnalysis())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pairwise_report_2026_03_14_09_26_53.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(content)

	assert.Contains(t, body, "Pairwise Structural Similarity Report")
	assert.Contains(t, body, "Similarity between alice/top.v and bob/top.v: 0.9200  [FLAGGED]")
	assert.Contains(t, body, "[IDENTICAL]")
	assert.Contains(t, body, "Excluded pair alice/top.v and dave/top.v")
	assert.Contains(t, body, "Incomparable pair bob/top.v and eve/top.v")
	assert.Contains(t, body, "3 scored, 1 incomparable, 1 excluded")
	assert.Contains(t, body, "Failed to parse:\n  dave/top.v")

	// Low score, no flag.
	assert.Contains(t, body, "carol/top.v: 0.1200\n")
}

func TestSaveOrdersScoresDescending(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 0.8)

	path, err := w.Save(sampleAnalysis())
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	first := strings.Index(string(content), "1.0000")
	second := strings.Index(string(content), "0.9200")
	third := strings.Index(string(content), "0.1200")
	assert.True(t, first < second && second < third, "scores not descending")
}

func TestSaveCreatesReportDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "report")
	w := NewWriter(dir, 0.8)

	_, err := w.Save(sampleAnalysis())
	require.NoError(t, err)
	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr)
}

func TestSummarizeTable(t *testing.T) {
	table := Summarize(sampleAnalysis(), 0.8, false)

	require.Len(t, table.Rows, 5)
	// Scored rows first, highest score leading.
	assert.Equal(t, "1.0000", table.Rows[0][2])
	assert.Equal(t, "identical", table.Rows[0][3])
	assert.Equal(t, "0.9200", table.Rows[1][2])
	// Non-scored rows carry a placeholder score.
	assert.Equal(t, "-", table.Rows[3][2])

	var buf bytes.Buffer
	require.NoError(t, table.RenderText(&buf, false))
	assert.Contains(t, buf.String(), "alice/top.v")
}

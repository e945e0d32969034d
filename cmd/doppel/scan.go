package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mquinn/doppel/internal/archive"
	"github.com/mquinn/doppel/internal/output"
	"github.com/mquinn/doppel/internal/progress"
	"github.com/mquinn/doppel/internal/report"
	"github.com/mquinn/doppel/pkg/analyzer/similarity"
	"github.com/mquinn/doppel/pkg/source"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Aliases:   []string{"check"},
		Usage:     "Score every pair of submissions under a directory",
		ArgsUsage: "[submission-dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target-file",
				Aliases: []string{"t"},
				Usage:   "Submission file name to compare (e.g. alu.v)",
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: "Instructor template whose lines are stripped before parsing",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Value: -1,
				Usage: "Flag pairs at or above this score (overrides config)",
			},
			&cli.IntFlag{
				Name:    "kgram",
				Aliases: []string{"n"},
				Usage:   "K-gram size in tokens (overrides config)",
			},
			&cli.IntFlag{
				Name:    "window",
				Aliases: []string{"w"},
				Usage:   "Winnowing window size in hashes (overrides config)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Worker pool size, 0 = NumCPU (overrides config)",
			},
			&cli.StringFlag{
				Name:  "report-dir",
				Usage: "Directory for the persisted report (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "keep-extracted",
				Usage: "Leave extracted archive directories on disk",
			},
			&cli.BoolFlag{
				Name:  "no-report",
				Usage: "Skip writing the report file",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	dir := "."
	if c.Args().Len() > 0 {
		dir = c.Args().First()
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", dir, err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("target-file") {
		cfg.Scan.TargetFile = c.String("target-file")
	}
	if c.IsSet("template") {
		cfg.Scan.TemplateFile = c.String("template")
	}
	if c.IsSet("kgram") {
		cfg.Fingerprint.KGramSize = c.Int("kgram")
	}
	if c.IsSet("window") {
		cfg.Fingerprint.WindowSize = c.Int("window")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("report-dir") {
		cfg.Report.Dir = c.String("report-dir")
	}
	if t := c.Float64("threshold"); t >= 0 {
		cfg.Report.Threshold = t
	}
	if c.Bool("keep-extracted") {
		cfg.Scan.KeepExtracted = true
	}
	if cfg.Scan.TargetFile == "" {
		return fmt.Errorf("no target file: pass --target-file or set scan.target_file in config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	quiet := c.Bool("quiet")

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	archives, err := archive.Discover(absDir)
	if err != nil {
		return err
	}

	var files []string
	if len(archives) > 0 {
		tracker := progress.NewTracker("Extracting submissions...", len(archives), quiet)
		dirs, extractErrs := archive.ExtractAll(archives, cfg.WorkerCount(), tracker.Tick)
		if extractErrs != nil {
			tracker.FinishError(extractErrs)
			for _, e := range extractErrs.Errors {
				formatter.Warning("Skipping archive %s: %v", e.Path, e.Err)
			}
		} else {
			tracker.FinishSuccess()
		}
		if !cfg.Scan.KeepExtracted {
			defer archive.Cleanup(dirs, cfg.WorkerCount())
		}
		files = archive.CollectTargets(dirs, cfg.Scan.TargetFile, cfg.ShouldSkip)
	} else {
		// No archives: treat the directory itself as extracted submissions.
		if formatter.Format() == output.FormatText {
			formatter.Info("No archives found, scanning %s directly", absDir)
		}
		files = collectLoose(absDir, cfg.Scan.TargetFile, cfg.ShouldSkip)
	}

	if len(files) == 0 {
		formatter.Warning("No %s files found under %s", cfg.Scan.TargetFile, absDir)
		return nil
	}

	var opts []similarity.Option
	opts = append(opts, similarity.WithConfig(similarity.Config{
		KGramSize:  cfg.Fingerprint.KGramSize,
		WindowSize: cfg.Fingerprint.WindowSize,
		Workers:    cfg.Workers,
	}))
	if cfg.Scan.TemplateFile != "" {
		cleaner, err := source.LoadCleaner(cfg.Scan.TemplateFile)
		if err != nil {
			return err
		}
		opts = append(opts, similarity.WithCleaner(cleaner))
	}
	analyzer := similarity.New(opts...)

	pairCount := len(files) * (len(files) - 1) / 2
	fileTracker := progress.NewTracker("Fingerprinting...", len(files), quiet)
	pairTracker := progress.NewTracker("Scoring pairs...", pairCount, quiet)

	analysis, err := analyzer.AnalyzeWithProgress(c.Context, files, source.NewFilesystem(),
		fileTracker.Tick, pairTracker.Tick)
	if err != nil {
		fileTracker.FinishError(err)
		pairTracker.FinishSuccess()
		return err
	}
	fileTracker.FinishSuccess()
	pairTracker.FinishSuccess()

	table := report.Summarize(analysis, cfg.Report.Threshold, formatter.Format() == output.FormatText)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if analysis.Summary.ParseFailed > 0 && formatter.Format() == output.FormatText {
		formatter.Warning("%d file(s) failed to parse and were excluded from scoring", analysis.Summary.ParseFailed)
	}

	if !c.Bool("no-report") {
		path, err := report.NewWriter(cfg.Report.Dir, cfg.Report.Threshold).Save(analysis)
		if err != nil {
			return err
		}
		if formatter.Format() == output.FormatText {
			formatter.Success("Report saved to %s", path)
		}
	}
	return nil
}

// collectLoose gathers target files straight from a directory tree when the
// submissions are not archived.
func collectLoose(dir, targetName string, skip func(string) bool) []string {
	var files []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), targetName) {
			return nil
		}
		if skip != nil && skip(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files
}

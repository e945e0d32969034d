package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mquinn/doppel/internal/output"
	"github.com/mquinn/doppel/pkg/analyzer/similarity"
	"github.com/mquinn/doppel/pkg/source"
)

func compareCmd() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Aliases:   []string{"cmp"},
		Usage:     "Score one pair of files",
		ArgsUsage: "<file-a> <file-b>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "template",
				Usage: "Instructor template whose lines are stripped before parsing",
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
		},
		Action: runCompareCmd,
	}
}

func runCompareCmd(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("compare takes exactly two files")
	}
	fileA, fileB := c.Args().Get(0), c.Args().Get(1)
	if fileA == fileB {
		return fmt.Errorf("compare needs two distinct files (got %s twice)", fileA)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("kgram") {
		cfg.Fingerprint.KGramSize = c.Int("kgram")
	}
	if c.IsSet("window") {
		cfg.Fingerprint.WindowSize = c.Int("window")
	}
	if c.IsSet("template") {
		cfg.Scan.TemplateFile = c.String("template")
	}
	if err := cfg.Validate(); err != nil {
		return err
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

	analysis, err := similarity.New(opts...).
		Analyze(c.Context, []string{fileA, fileB}, source.NewFilesystem())
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() != output.FormatText {
		return formatter.Output(analysis)
	}

	if len(analysis.Results) == 0 {
		return fmt.Errorf("no comparable pair produced for %s and %s", fileA, fileB)
	}
	r := analysis.Results[0]
	switch r.Status {
	case similarity.PairScored:
		line := fmt.Sprintf("Similarity between %s and %s: %.4f", r.FileA, r.FileB, r.Score)
		fmt.Fprintln(formatter.Writer(), output.ScoreColor(line, r.Score, cfg.Report.Threshold))
		if r.Identical {
			formatter.Error("Submissions are structurally identical")
		}
	case similarity.PairIncomparable:
		formatter.Warning("Files are too short to fingerprint at n=%d, w=%d",
			cfg.Fingerprint.KGramSize, cfg.Fingerprint.WindowSize)
	case similarity.PairExcluded:
		for _, f := range analysis.Files {
			if f.Status == similarity.StatusParseFailed {
				formatter.Error("Failed to parse %s", f.Path)
			}
		}
	}
	return nil
}

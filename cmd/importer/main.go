package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/korjavin/foodatease/internal/config"
	"github.com/korjavin/foodatease/internal/importer"
	"github.com/korjavin/foodatease/internal/rating"
)

func main() {
	dump := flag.String("dump", "", "path to gzip-compressed JSONL dump (required)")
	out := flag.String("out", "", "output data directory (required)")
	verbose := flag.Bool("v", false, "print progress every 100k products")
	configPath := flag.String("config", "", "optional YAML config; scoring.daily_limits rate the products")
	flag.Parse()

	if *dump == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: foodatease-importer -dump <path> -out <dir> [-config <file>] [-v]")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	engine, err := rating.NewEngine(cfg.Scoring.DailyLimits)
	if err != nil {
		slog.Error("invalid daily limits", "error", err)
		os.Exit(1)
	}

	slog.Info("starting import", "dump", *dump, "out", *out)

	m, err := importer.Import(*dump, *out, importer.Options{Verbose: *verbose, Engine: engine})
	if err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}

	slog.Info("import complete",
		"products", m.ProductCount,
		"indexed", m.IndexedCount,
		"rated", m.RatedCount,
		"skipped", m.SkippedCount,
		"build_time", m.BuildTime,
	)
	fmt.Printf("Output: %s\n  Products stored : %d\n  Names indexed   : %d\n  Rated           : %d\n  Skipped         : %d\n",
		*out, m.ProductCount, m.IndexedCount, m.RatedCount, m.SkippedCount)

	printCounts("Stars", m.StarCounts)
	printCounts("Skip reasons", m.SkipReasons)
}

func printCounts(title string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("  %s:\n", title)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("    %-20s: %d\n", k, counts[k])
	}
}

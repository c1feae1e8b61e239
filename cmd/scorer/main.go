// Command scorer rescores a product catalog file: every product gets a fresh
// foodatease_score and safe_limit computed from its nutrients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/korjavin/foodatease/internal/catalog"
	"github.com/korjavin/foodatease/internal/config"
	"github.com/korjavin/foodatease/internal/rating"
)

func main() {
	workers := flag.Int("workers", 0, "scoring goroutines (0 = GOMAXPROCS)")
	configPath := flag.String("config", "", "optional YAML config; scoring.daily_limits rate the products")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: foodatease-scorer [-workers n] [-config file] input.json [output.json]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)
	output := input
	if flag.NArg() == 2 {
		output = flag.Arg(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, engine, input, output, *workers))
}

// run rescores input into output and returns the process exit code.
func run(ctx context.Context, engine *rating.Engine, input, output string, workers int) int {
	slog.Info("reading products", "path", input)
	doc, err := catalog.Read(input)
	if err != nil {
		slog.Error("failed to read catalog", "error", err)
		return 1
	}
	slog.Info("found products", "count", len(doc.Products))

	res, err := catalog.Rescore(ctx, engine, doc, workers)
	if err != nil {
		slog.Error("rescoring interrupted, nothing written", "error", err)
		return 1
	}
	for _, f := range res.Failures {
		slog.Warn("product not scored", "index", f.Index, "id", f.ID, "name", f.Name, "error", f.Err)
	}

	if err := catalog.Write(output, doc); err != nil {
		slog.Error("failed to write catalog", "error", err)
		return 1
	}

	fmt.Printf("Saved %d scored products to %s\n", res.Scored, output)
	stars := make([]int, 0, len(res.StarCounts))
	for s := range res.StarCounts {
		stars = append(stars, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stars)))
	for _, s := range stars {
		fmt.Printf("  %d stars: %d\n", s, res.StarCounts[s])
	}

	if len(res.Failures) > 0 {
		fmt.Printf("  failed : %d\n", len(res.Failures))
		return 1
	}
	return 0
}

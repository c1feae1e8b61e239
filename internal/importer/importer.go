package importer

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/foodatease/internal/rating"
	"github.com/korjavin/foodatease/internal/store"
	"github.com/korjavin/foodatease/internal/textfold"
)

const (
	maxBarcodeLen = 100
	batchSize     = 5_000
)

// Skip reasons recorded in the manifest.
const (
	skipParseError     = "parse_error"
	skipEmptyBarcode   = "empty_barcode"
	skipBarcodeTooLong = "barcode_too_long"
	skipNoNutrition    = "no_nutrition"
	skipNonFood        = "non_food"
	skipDuplicate      = "duplicate_barcode"
)

// Options controls an import run.
type Options struct {
	// Verbose logs progress every 100k products.
	Verbose bool

	// Engine rates each product. DefaultEngine is used when nil.
	Engine *rating.Engine
}

// Import reads a gzip-compressed JSONL Open Food Facts dump, rates every
// usable product, builds a Pebble KV store and Bleve full-text index inside
// outputDir, and returns the resulting manifest.
//
// Records are skipped when they fail to parse, have an empty or over-long
// barcode, carry no energy/protein data, are not food, or repeat a barcode
// already stored. Products whose resolved name is non-empty are also indexed
// in Bleve.
func Import(dumpPath, outputDir string, opts Options) (*store.Manifest, error) {
	engine := opts.Engine
	if engine == nil {
		engine = rating.DefaultEngine()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	s, err := store.Create(outputDir)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	defer s.Close()

	f, err := os.Open(dumpPath)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer gz.Close()

	var (
		productCount int64
		indexedCount int64
		skippedCount int64
		skipReasons  = make(map[string]int64)
		starCounts   = make(map[string]int64)
		slugs        textfold.SlugSet
		stored       = make(map[string]struct{})
		startTime    = time.Now()
	)
	skip := func(reason string) {
		skippedCount++
		skipReasons[reason]++
	}

	batch := s.NewWriteBatch()

	scanner := bufio.NewScanner(gz)
	// Some OFF lines can be very large; allocate a generous buffer.
	buf := make([]byte, 0, 4*1024*1024)
	scanner.Buffer(buf, 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var off OFFProduct
		if err := json.Unmarshal(line, &off); err != nil {
			skip(skipParseError)
			slog.Debug("json unmarshal error, skipping line", "error", err)
			continue
		}

		barcode := strings.TrimSpace(off.Code)
		switch {
		case barcode == "":
			skip(skipEmptyBarcode)
			continue
		case len(barcode) > maxBarcodeLen:
			skip(skipBarcodeTooLong)
			continue
		case !off.HasNutrition():
			skip(skipNoNutrition)
			continue
		case !off.IsFood():
			skip(skipNonFood)
			continue
		}
		// Each barcode is stored once, under the slug of its first record.
		if _, dup := stored[barcode]; dup {
			skip(skipDuplicate)
			continue
		}

		p := toProduct(barcode, &off, &slugs)
		ev, err := engine.Evaluate(p.Nutrients, p.PackageSizeG)
		if err != nil {
			// PackageSizeG never returns less than 1g.
			return nil, fmt.Errorf("rate %s: %w", barcode, err)
		}
		p.Score = &ev.Score
		p.SafeLimit = &ev.SafeLimit
		starCounts[strconv.Itoa(ev.Score.Stars)]++

		if err := batch.Put(p); err != nil {
			return nil, fmt.Errorf("batch put: %w", err)
		}
		stored[barcode] = struct{}{}
		productCount++
		if p.Name != "" {
			indexedCount++
		}

		if batch.Len() >= batchSize {
			if err := batch.Flush(); err != nil {
				return nil, fmt.Errorf("batch flush: %w", err)
			}
		}

		if opts.Verbose && productCount%100_000 == 0 {
			elapsed := time.Since(startTime)
			rate := float64(productCount) / elapsed.Seconds()
			slog.Info("import progress",
				"products", productCount,
				"indexed", indexedCount,
				"skipped", skippedCount,
				"rate_per_s", int(rate),
				"elapsed", elapsed.Round(time.Second),
			)
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	if err := batch.Close(); err != nil {
		return nil, fmt.Errorf("final batch flush: %w", err)
	}

	limits := engine.Limits()
	m := &store.Manifest{
		BuildTime:     time.Now().UTC(),
		DumpSource:    dumpPath,
		ProductCount:  productCount,
		IndexedCount:  indexedCount,
		RatedCount:    productCount,
		SkippedCount:  skippedCount,
		SchemaVersion: store.SchemaVersion,
		SkipReasons:   skipReasons,
		StarCounts:    starCounts,
		DailyLimits:   &limits,
	}

	if err := store.WriteManifest(outputDir, m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return m, nil
}

// toProduct maps an OFF record to an unrated store.Product. The display name
// is "<brand> <name>" with a duplicated brand prefix removed from the name.
func toProduct(barcode string, off *OFFProduct, slugs *textfold.SlugSet) store.Product {
	brand := off.Brand()
	name := off.Name()
	if brand != "" && len(name) > len(brand) && strings.EqualFold(name[:len(brand)], brand) {
		if trimmed := strings.Trim(name[len(brand):], " -:"); trimmed != "" {
			name = trimmed
		}
	}

	full := strings.TrimSpace(brand + " " + name)
	base := textfold.Slugify(full)
	if base == "" {
		base = "product-" + textfold.Slugify(barcode)
	}

	return store.Product{
		Barcode:      barcode,
		Slug:         slugs.Unique(base),
		Name:         name,
		Brand:        brand,
		Category:     off.Category(),
		PackageSizeG: off.PackageSizeG(),
		Nutrients:    off.Profile(),
	}
}

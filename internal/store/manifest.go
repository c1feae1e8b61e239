package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/korjavin/foodatease/internal/rating"
)

const manifestFile = "manifest.json"

// Manifest records metadata about a built data directory.
type Manifest struct {
	BuildTime     time.Time        `json:"build_time"`
	DumpSource    string           `json:"dump_source"`
	ProductCount  int64            `json:"product_count"`
	IndexedCount  int64            `json:"indexed_count"`
	RatedCount    int64            `json:"rated_count"`
	SkippedCount  int64            `json:"skipped_count"`
	SchemaVersion int              `json:"schema_version"`
	SkipReasons   map[string]int64 `json:"skip_reasons,omitempty"`

	// StarCounts is the number of rated products per star rating, keyed
	// "1" through "5".
	StarCounts map[string]int64 `json:"star_counts,omitempty"`

	// DailyLimits is the reference table the products were rated against.
	DailyLimits *rating.DailyLimits `json:"daily_limits,omitempty"`
}

// ReadManifest loads the manifest.json from the given data directory.
func ReadManifest(dataDir string) (*Manifest, error) {
	path := filepath.Join(dataDir, manifestFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("manifest schema version %d, want %d", m.SchemaVersion, SchemaVersion)
	}
	return &m, nil
}

// WriteManifest serialises m to manifest.json inside dataDir.
func WriteManifest(dataDir string, m *Manifest) error {
	path := filepath.Join(dataDir, manifestFile)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

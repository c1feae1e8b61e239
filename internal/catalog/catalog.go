// Package catalog reads, rescores and writes the product catalog document,
// a JSON object of the form {"products": [...], "last_updated", "total_count"}.
//
// Products are kept as raw JSON so that fields this package does not know
// about survive a rescore untouched. Only foodatease_score and safe_limit are
// rewritten.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/korjavin/foodatease/internal/rating"
)

// Product field names read or written by this package.
const (
	fieldID        = "id"
	fieldName      = "name"
	fieldNutrients = "nutrients"
	fieldPackage   = "package_size_g"
	fieldScore     = "foodatease_score"
	fieldSafeLimit = "safe_limit"
	fieldProducts  = "products"
)

// DefaultPackageSizeG is assumed when a product has no package_size_g.
const DefaultPackageSizeG = 100

// Product is one catalog entry.
type Product struct {
	fields map[string]json.RawMessage
}

// UnmarshalJSON keeps every field of the entry.
func (p *Product) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("product is not a JSON object")
	}
	p.fields = fields
	return nil
}

// MarshalJSON writes every field back, including the ones this package never
// reads.
func (p Product) MarshalJSON() ([]byte, error) {
	if p.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.fields)
}

// ID returns the product id, or "" when it is missing or not a string.
func (p *Product) ID() string { return p.str(fieldID) }

// Name returns the product name, or "" when it is missing or not a string.
func (p *Product) Name() string { return p.str(fieldName) }

func (p *Product) str(key string) string {
	var s string
	if raw, ok := p.fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Nutrients decodes the nutrients object leniently. A missing or malformed
// object yields the zero profile.
func (p *Product) Nutrients() rating.NutrientProfile {
	raw, ok := p.fields[fieldNutrients]
	if !ok {
		return rating.NutrientProfile{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return rating.NutrientProfile{}
	}
	return rating.ProfileFromMap(m)
}

// PackageSizeG returns package_size_g, or DefaultPackageSizeG when the field
// is absent or null. A value that is present but not a positive number comes
// back as 0 so that the engine rejects it.
func (p *Product) PackageSizeG() float64 {
	raw, ok := p.fields[fieldPackage]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return DefaultPackageSizeG
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0
	}
	return rating.ParseAmount(v)
}

// Score returns the stored foodatease_score, or nil when the product has not
// been scored or the stored value is unreadable.
func (p *Product) Score() *rating.Score {
	raw, ok := p.fields[fieldScore]
	if !ok {
		return nil
	}
	var s rating.Score
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// SafeLimit returns the stored safe_limit, or nil.
func (p *Product) SafeLimit() *rating.SafeLimitResult {
	raw, ok := p.fields[fieldSafeLimit]
	if !ok {
		return nil
	}
	var sl rating.SafeLimitResult
	if err := json.Unmarshal(raw, &sl); err != nil {
		return nil
	}
	return &sl
}

// SetEvaluation replaces foodatease_score and safe_limit with ev.
func (p *Product) SetEvaluation(ev rating.Evaluation) error {
	score, err := json.Marshal(ev.Score)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	safe, err := json.Marshal(ev.SafeLimit)
	if err != nil {
		return fmt.Errorf("encode safe limit: %w", err)
	}
	if p.fields == nil {
		p.fields = make(map[string]json.RawMessage)
	}
	p.fields[fieldScore] = score
	p.fields[fieldSafeLimit] = safe
	return nil
}

// Document is the whole catalog file.
type Document struct {
	Products []*Product

	// rest holds the top-level fields other than products.
	rest map[string]json.RawMessage
}

// UnmarshalJSON decodes the products array and keeps the other top-level
// fields as they are.
func (d *Document) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	if top == nil {
		return fmt.Errorf("catalog is not a JSON object")
	}
	var products []*Product
	if raw, ok := top[fieldProducts]; ok {
		if err := json.Unmarshal(raw, &products); err != nil {
			return fmt.Errorf("decode products: %w", err)
		}
		for i, p := range products {
			if p == nil {
				return fmt.Errorf("decode products: entry %d is null", i)
			}
		}
	}
	delete(top, fieldProducts)
	d.Products = products
	d.rest = top
	return nil
}

// MarshalJSON writes the products array next to the preserved top-level
// fields.
func (d Document) MarshalJSON() ([]byte, error) {
	top := make(map[string]json.RawMessage, len(d.rest)+1)
	for k, v := range d.rest {
		top[k] = v
	}
	products := d.Products
	if products == nil {
		products = []*Product{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return nil, err
	}
	top[fieldProducts] = raw
	return json.Marshal(top)
}

// Read loads the catalog at path.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return &d, nil
}

// Write stores d at path with two-space indentation and non-ASCII text left
// unescaped. The file is replaced atomically.
func Write(path string, d *Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

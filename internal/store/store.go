package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/cockroachdb/pebble"

	"github.com/korjavin/foodatease/internal/textfold"
)

const (
	pebbleDir = "pebble"
	bleveDir  = "bleve"

	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// Pebble key layout:
//
//	p/<barcode>  encoded Product
//	s/<slug>     barcode
const (
	productPrefix = "p/"
	slugPrefix    = "s/"
)

func productKey(barcode string) []byte { return []byte(productPrefix + barcode) }
func slugKey(slug string) []byte       { return []byte(slugPrefix + slug) }

// Bleve field names.
const (
	fieldName     = "name_folded"
	fieldStars    = "stars"
	fieldCategory = "category"
)

// searchDoc is what gets indexed per product: folded "brand name", the star
// rating (0 when unrated) and the category slug.
type searchDoc struct {
	NameFolded string  `json:"name_folded"`
	Stars      float64 `json:"stars"`
	Category   string  `json:"category"`
}

func newSearchDoc(p Product) searchDoc {
	doc := searchDoc{
		NameFolded: textfold.Fold(strings.TrimSpace(p.Brand + " " + p.Name)),
		Category:   p.Category,
	}
	if p.Score != nil {
		doc.Stars = float64(p.Score.Stars)
	}
	return doc
}

// Store keeps rated products in Pebble, keyed by barcode with a secondary
// slug key, and indexes their names in Bleve. It is safe for concurrent
// readers.
type Store struct {
	db    *pebble.DB
	index bleve.Index
}

// OpenReadOnly opens a data directory built by the importer.
func OpenReadOnly(dataDir string) (*Store, error) {
	db, err := pebble.Open(filepath.Join(dataDir, pebbleDir), &pebble.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open pebble (read-only): %w", err)
	}
	idx, err := bleve.Open(filepath.Join(dataDir, bleveDir))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open bleve index: %w", err), db.Close())
	}
	return &Store{db: db, index: idx}, nil
}

// Create initialises a fresh data directory. The pebble and bleve
// sub-directories must not already exist.
func Create(dataDir string) (*Store, error) {
	db, err := pebble.Open(filepath.Join(dataDir, pebbleDir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("create pebble: %w", err)
	}
	idx, err := bleve.New(filepath.Join(dataDir, bleveDir), newIndexMapping())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create bleve index: %w", err), db.Close())
	}
	return &Store{db: db, index: idx}, nil
}

// Close releases the index and the database.
func (s *Store) Close() error {
	var errs []error
	if err := s.index.Close(); err != nil {
		errs = append(errs, fmt.Errorf("bleve: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("pebble: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}

// Put writes a single product. Products without a name are stored but not
// searchable.
func (s *Store) Put(p Product) error {
	b := s.NewWriteBatch()
	if err := b.Put(p); err != nil {
		b.Close()
		return err
	}
	return b.Close()
}

// WriteBatch accumulates products for batched writes to Pebble and Bleve.
type WriteBatch struct {
	s     *Store
	pb    *pebble.Batch
	bb    *bleve.Batch
	count int
}

// NewWriteBatch creates a new WriteBatch backed by the given store.
func (s *Store) NewWriteBatch() *WriteBatch {
	return &WriteBatch{
		s:  s,
		pb: s.db.NewBatch(),
		bb: s.index.NewBatch(),
	}
}

// Put adds a product to the batch without flushing.
func (b *WriteBatch) Put(p Product) error {
	if p.Barcode == "" {
		return fmt.Errorf("product has empty barcode")
	}
	if err := b.pb.Set(productKey(p.Barcode), p.Encode(), nil); err != nil {
		return fmt.Errorf("pebble set %s: %w", p.Barcode, err)
	}
	if p.Slug != "" {
		if err := b.pb.Set(slugKey(p.Slug), []byte(p.Barcode), nil); err != nil {
			return fmt.Errorf("pebble set slug %s: %w", p.Slug, err)
		}
	}
	if p.Name != "" {
		if err := b.bb.Index(p.Barcode, newSearchDoc(p)); err != nil {
			return fmt.Errorf("bleve index %s: %w", p.Barcode, err)
		}
	}
	b.count++
	return nil
}

// Flush commits both batches and resets them.
func (b *WriteBatch) Flush() error {
	if err := b.pb.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("pebble batch commit: %w", err)
	}
	if err := b.s.index.Batch(b.bb); err != nil {
		return fmt.Errorf("bleve batch commit: %w", err)
	}
	b.pb.Reset()
	b.bb = b.s.index.NewBatch()
	b.count = 0
	return nil
}

// Close flushes anything pending and releases the pebble batch.
func (b *WriteBatch) Close() error {
	var err error
	if b.count > 0 {
		err = b.Flush()
	}
	return errors.Join(err, b.pb.Close())
}

// Len returns the number of products added since the last flush.
func (b *WriteBatch) Len() int {
	return b.count
}

// get copies the value stored under key. found is false when the key is
// absent.
func (s *Store) get(key []byte) (val []byte, found bool, err error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

// Get retrieves a product by barcode.
// Returns (Product, false, nil) when the barcode is not found.
func (s *Store) Get(barcode string) (Product, bool, error) {
	data, found, err := s.get(productKey(barcode))
	if err != nil || !found {
		return Product{}, false, err
	}
	var p Product
	if err := p.Decode(data); err != nil {
		return Product{}, false, fmt.Errorf("decode product %s: %w", barcode, err)
	}
	p.Barcode = barcode
	return p, true, nil
}

// GetBySlug retrieves a product by its URL slug.
func (s *Store) GetBySlug(slug string) (Product, bool, error) {
	barcode, found, err := s.get(slugKey(slug))
	if err != nil || !found {
		return Product{}, false, err
	}
	return s.Get(string(barcode))
}

// SearchOptions narrows a name search.
type SearchOptions struct {
	// Limit caps the number of results (default 20, max 100).
	Limit int

	// MinStars, when positive, keeps only rated products with at least this
	// many stars.
	MinStars int

	// Category, when set, keeps only products of that category slug.
	Category string
}

// Search runs a Bleve query and fetches the matching products from Pebble.
// A query with no letters or digits returns no results.
func (s *Store) Search(q string, opts SearchOptions) ([]Product, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	folded := textfold.Fold(q)
	if folded == "" {
		return nil, nil
	}

	conjuncts := []query.Query{nameQuery(folded)}
	if opts.MinStars > 0 {
		minStars := float64(opts.MinStars)
		inclusive := true
		starsQ := bleve.NewNumericRangeInclusiveQuery(&minStars, nil, &inclusive, nil)
		starsQ.SetField(fieldStars)
		conjuncts = append(conjuncts, starsQ)
	}
	if opts.Category != "" {
		catQ := bleve.NewTermQuery(opts.Category)
		catQ.SetField(fieldCategory)
		conjuncts = append(conjuncts, catQ)
	}

	var root query.Query = conjuncts[0]
	if len(conjuncts) > 1 {
		root = bleve.NewConjunctionQuery(conjuncts...)
	}

	res, err := s.index.Search(bleve.NewSearchRequestOptions(root, limit, 0, false))
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	products := make([]Product, 0, len(res.Hits))
	for _, hit := range res.Hits {
		p, found, err := s.Get(hit.ID)
		if err != nil {
			return nil, err
		}
		if found {
			products = append(products, p)
		}
	}
	return products, nil
}

// nameQuery matches a folded query against the folded name: exact phrase and
// prefix score highest, then per-token fuzzy matches for tokens of 4+ chars.
func nameQuery(folded string) *query.BooleanQuery {
	boolQ := bleve.NewBooleanQuery()

	phraseQ := bleve.NewMatchPhraseQuery(folded)
	phraseQ.SetField(fieldName)
	phraseQ.SetBoost(10)
	boolQ.AddShould(phraseQ)

	prefixQ := bleve.NewPrefixQuery(folded)
	prefixQ.SetField(fieldName)
	prefixQ.SetBoost(5)
	boolQ.AddShould(prefixQ)

	for _, token := range strings.Fields(folded) {
		n := len([]rune(token))
		if n < 4 {
			continue
		}
		fuzzyQ := bleve.NewFuzzyQuery(token)
		fuzzyQ.SetField(fieldName)
		fuzzyQ.Fuzziness = 1
		if n >= 8 {
			fuzzyQ.Fuzziness = 2
		}
		boolQ.AddShould(fuzzyQ)
	}
	return boolQ
}

// newIndexMapping builds the mapping for a fresh index: the simple analyzer
// on names, a numeric star field and an exact-match category field.
func newIndexMapping() mapping.IndexMapping {
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = simple.Name
	nameField.Store = false

	starsField := bleve.NewNumericFieldMapping()
	starsField.Store = false

	categoryField := bleve.NewTextFieldMapping()
	categoryField.Analyzer = keyword.Name
	categoryField.Store = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldName, nameField)
	doc.AddFieldMappingsAt(fieldStars, starsField)
	doc.AddFieldMappingsAt(fieldCategory, categoryField)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

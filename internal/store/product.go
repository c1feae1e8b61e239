package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/korjavin/foodatease/internal/rating"
)

// Product is the record stored per barcode: identity, per-100g nutrients and,
// once rated, the score and safe limit.
type Product struct {
	Barcode      string
	Slug         string
	Name         string
	Brand        string
	Category     string
	PackageSizeG float64
	Nutrients    rating.NutrientProfile

	// Score and SafeLimit are nil until the product has been rated.
	Score     *rating.Score
	SafeLimit *rating.SafeLimitResult
}

// SchemaVersion is the version byte written at the head of every record.
const SchemaVersion = 3

const (
	flagScore     = 1 << 0
	flagSafeLimit = 1 << 1
)

// Encode serialises a Product into a compact binary format:
//
//	version      uvarint (=SchemaVersion)
//	slug, name, brand, category   uvarint length + UTF-8
//	package_g    float64 LE
//	nutrients    6 × float64 LE (energy, sodium, sugar, sat fat, protein, fiber)
//	flags        byte (bit0 score, bit1 safe limit)
//	[score]      stars uvarint, grade string, inr varint, baseline uvarint,
//	             modifying uvarint, factor count uvarint + strings
//	[safe limit] serving uvarint, limiting string, servings float64,
//	             4 × float64 percentages, explanation strings (en, hi)
//
// The barcode is the key and is not part of the value.
func (p Product) Encode() []byte {
	var buf bytes.Buffer
	writeUvarint(&buf, SchemaVersion)

	writeString(&buf, p.Slug)
	writeString(&buf, p.Name)
	writeString(&buf, p.Brand)
	writeString(&buf, p.Category)
	writeFloat64LE(&buf, p.PackageSizeG)

	n := p.Nutrients
	for _, v := range [...]float64{n.EnergyKcal, n.SodiumMg, n.SugarG, n.SaturatedFatG, n.ProteinG, n.FiberG} {
		writeFloat64LE(&buf, v)
	}

	var flags byte
	if p.Score != nil {
		flags |= flagScore
	}
	if p.SafeLimit != nil {
		flags |= flagSafeLimit
	}
	buf.WriteByte(flags)

	if s := p.Score; s != nil {
		writeUvarint(&buf, uint64(s.Stars))
		writeString(&buf, string(s.Grade))
		writeVarint(&buf, int64(s.INRScore))
		writeUvarint(&buf, uint64(s.BaselinePoints))
		writeUvarint(&buf, uint64(s.ModifyingPoints))
		writeUvarint(&buf, uint64(len(s.LimitingFactors)))
		for _, f := range s.LimitingFactors {
			writeString(&buf, f)
		}
	}

	if sl := p.SafeLimit; sl != nil {
		writeUvarint(&buf, uint64(sl.RecommendedServingG))
		writeString(&buf, string(sl.LimitingFactor))
		writeFloat64LE(&buf, sl.ServingsPerPackage)
		d := sl.DailyPercentages
		for _, v := range [...]float64{d.Sodium, d.Sugar, d.SaturatedFat, d.Calories} {
			writeFloat64LE(&buf, v)
		}
		writeString(&buf, sl.ExplanationEN)
		writeString(&buf, sl.ExplanationHI)
	}

	return buf.Bytes()
}

// Decode parses a binary blob produced by Encode and sets fields on p.
// The Barcode field is NOT stored in the blob; the caller must set it.
func (p *Product) Decode(data []byte) error {
	r := bytes.NewReader(data)

	ver, err := binary.ReadUvarint(r)
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if ver != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", ver)
	}

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"slug", &p.Slug},
		{"name", &p.Name},
		{"brand", &p.Brand},
		{"category", &p.Category},
	} {
		if *f.dst, err = readString(r); err != nil {
			return fmt.Errorf("read %s: %w", f.name, err)
		}
	}

	if p.PackageSizeG, err = readFloat64LE(r); err != nil {
		return fmt.Errorf("read package size: %w", err)
	}

	n := &p.Nutrients
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{rating.FieldEnergyKcal, &n.EnergyKcal},
		{rating.FieldSodiumMg, &n.SodiumMg},
		{rating.FieldSugarG, &n.SugarG},
		{rating.FieldSaturatedFatG, &n.SaturatedFatG},
		{rating.FieldProteinG, &n.ProteinG},
		{rating.FieldFiberG, &n.FiberG},
	} {
		if *f.dst, err = readFloat64LE(r); err != nil {
			return fmt.Errorf("read %s: %w", f.name, err)
		}
	}

	flags, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}

	p.Score = nil
	if flags&flagScore != 0 {
		s, err := decodeScore(r)
		if err != nil {
			return fmt.Errorf("read score: %w", err)
		}
		p.Score = s
	}

	p.SafeLimit = nil
	if flags&flagSafeLimit != 0 {
		sl, err := decodeSafeLimit(r)
		if err != nil {
			return fmt.Errorf("read safe limit: %w", err)
		}
		p.SafeLimit = sl
	}
	return nil
}

func decodeScore(r *bytes.Reader) (*rating.Score, error) {
	var s rating.Score
	stars, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("stars: %w", err)
	}
	s.Stars = int(stars)

	grade, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("grade: %w", err)
	}
	s.Grade = rating.Grade(grade)

	inr, err := binary.ReadVarint(r)
	if err != nil {
		return nil, fmt.Errorf("inr score: %w", err)
	}
	s.INRScore = int(inr)

	baseline, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("baseline points: %w", err)
	}
	s.BaselinePoints = int(baseline)

	modifying, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("modifying points: %w", err)
	}
	s.ModifyingPoints = int(modifying)

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("factor count: %w", err)
	}
	if count > uint64(r.Len()) {
		return nil, fmt.Errorf("factor count %d exceeds remaining data", count)
	}
	s.LimitingFactors = make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		f, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("factor %d: %w", i, err)
		}
		s.LimitingFactors = append(s.LimitingFactors, f)
	}
	return &s, nil
}

func decodeSafeLimit(r *bytes.Reader) (*rating.SafeLimitResult, error) {
	var sl rating.SafeLimitResult
	serving, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("serving: %w", err)
	}
	sl.RecommendedServingG = int(serving)

	limiting, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("limiting factor: %w", err)
	}
	sl.LimitingFactor = rating.Nutrient(limiting)

	if sl.ServingsPerPackage, err = readFloat64LE(r); err != nil {
		return nil, fmt.Errorf("servings per package: %w", err)
	}

	d := &sl.DailyPercentages
	for _, dst := range []*float64{&d.Sodium, &d.Sugar, &d.SaturatedFat, &d.Calories} {
		if *dst, err = readFloat64LE(r); err != nil {
			return nil, fmt.Errorf("daily percentages: %w", err)
		}
	}

	if sl.ExplanationEN, err = readString(r); err != nil {
		return nil, fmt.Errorf("explanation: %w", err)
	}
	if sl.ExplanationHI, err = readString(r); err != nil {
		return nil, fmt.Errorf("explanation hindi: %w", err)
	}
	return &sl, nil
}

func writeUvarint(w *bytes.Buffer, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	w.Write(buf[:n])
}

func writeVarint(w *bytes.Buffer, v int64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	w.Write(buf[:n])
}

func writeString(w *bytes.Buffer, s string) {
	writeUvarint(w, uint64(len(s)))
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > uint64(r.Len()) {
		return "", fmt.Errorf("string length %d exceeds remaining %d bytes", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeFloat64LE(w *bytes.Buffer, f float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	w.Write(b[:])
}

func readFloat64LE(r *bytes.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

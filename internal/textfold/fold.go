// Package textfold normalises product names for search indexing and builds
// URL slugs from them.
package textfold

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugRunes caps the length of a generated slug.
const maxSlugRunes = 50

// stripCombining removes Unicode combining marks (category M) after NFD
// decomposition.
type stripCombining struct{ transform.NopResetter }

func (stripCombining) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if unicode.Is(unicode.M, r) {
			nSrc += size
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}

// Fold lowercases s, maps ß to ss, strips accents, turns every rune that is
// neither a letter nor a digit into a space and collapses the spaces.
// Devanagari and other scripts keep their letters.
func Fold(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ß", "ss")

	t := transform.Chain(norm.NFD, stripCombining{}, norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	var sb strings.Builder
	sb.Grow(len(result))
	for _, r := range result {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Slugify turns a product name into a lowercase, dash-separated slug of at
// most 50 runes. It returns "" when the name has no letters or digits.
func Slugify(name string) string {
	slug := strings.ReplaceAll(Fold(name), " ", "-")
	if utf8.RuneCountInString(slug) > maxSlugRunes {
		slug = string([]rune(slug)[:maxSlugRunes])
	}
	return strings.Trim(slug, "-")
}

// SlugSet hands out unique slugs. The zero value is ready to use; it is not
// safe for concurrent use.
type SlugSet struct {
	seen map[string]struct{}
}

// Unique returns base if unused, otherwise base-1, base-2, … and records the
// returned slug.
func (s *SlugSet) Unique(base string) string {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	slug := base
	for i := 1; ; i++ {
		if _, taken := s.seen[slug]; !taken {
			break
		}
		slug = base + "-" + strconv.Itoa(i)
	}
	s.seen[slug] = struct{}{}
	return slug
}

// Len returns the number of slugs handed out.
func (s *SlugSet) Len() int { return len(s.seen) }

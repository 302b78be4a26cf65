// Package province maps free-form province names onto the canonical
// province list, ignoring diacritics, prefixes and trailing qualifiers.
package province

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFuzzyThreshold is the minimum Jaro-Winkler similarity accepted as a match.
const DefaultFuzzyThreshold = 0.92

var prefixes = []string{"tinh ", "thanh pho "}

type candidate struct {
	value      string
	normalized string
}

// Resolver is safe for concurrent use once built.
type Resolver struct {
	provinces []candidate
	threshold float64
}

// NewResolver indexes the canonical province names.
func NewResolver(names []string) *Resolver {
	r := &Resolver{threshold: DefaultFuzzyThreshold}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		r.provinces = append(r.provinces, candidate{value: name, normalized: Normalize(name)})
	}
	return r
}

// Len reports how many provinces are indexed.
func (r *Resolver) Len() int {
	return len(r.provinces)
}

// Resolve returns the canonical name for raw, or raw trimmed when nothing matches.
func (r *Resolver) Resolve(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if len(r.provinces) == 0 {
		return trimmed
	}

	key := stripPrefix(Normalize(cutQualifier(trimmed)))
	if key == "" {
		return trimmed
	}

	for _, p := range r.provinces {
		if p.normalized == key {
			return p.value
		}
	}
	for _, p := range r.provinces {
		if strings.Contains(p.normalized, key) || strings.Contains(key, p.normalized) {
			return p.value
		}
	}

	words := strings.Fields(key)
	for n := min(2, len(words)); n >= 1; n-- {
		tail := strings.Join(words[len(words)-n:], " ")
		for _, p := range r.provinces {
			if p.normalized == tail {
				return p.value
			}
		}
	}

	best, bestScore := "", 0.0
	for _, p := range r.provinces {
		score := matchr.JaroWinkler(key, p.normalized, false)
		if score > bestScore {
			best, bestScore = p.value, score
		}
	}
	if bestScore >= r.threshold {
		return best
	}
	return trimmed
}

// Normalize folds s to lowercase ASCII letters, digits and spaces.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == 'đ' || r == 'Đ':
			b.WriteByte('d')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stripPrefix(s string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimSpace(strings.TrimPrefix(s, p))
		}
	}
	return s
}

// cutQualifier drops anything after the first dash, comma or parenthesis,
// e.g. "Huế (cũ)" or "Quảng Nam - Đà Nẵng".
func cutQualifier(s string) string {
	if i := strings.IndexAny(s, "-,()"); i >= 0 {
		return s[:i]
	}
	return s
}

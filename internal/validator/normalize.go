package validator

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

var unitSuffixes = []string{"amount", "qty", "val", "cm", "mm", "id"}

// NormalizeKey folds case, drops underscores and spaces, and strips one
// trailing unit or id suffix.
func NormalizeKey(name string) string {
	key := compactKey(name)
	for _, suffix := range unitSuffixes {
		if len(key) > len(suffix) && strings.HasSuffix(key, suffix) {
			return strings.TrimSuffix(key, suffix)
		}
	}
	return key
}

// compactKey folds case and drops separators, keeping suffixes.
func compactKey(name string) string {
	folded := cases.Fold().String(name)
	return strings.Map(func(r rune) rune {
		if r == '_' || r == ' ' {
			return -1
		}
		return r
	}, folded)
}

type synonymGroup struct {
	terms    []string
	tokens   []string
	semantic schema.SemanticType
}

// A term containing one of terms resolves to the first column of the
// group's semantic type whose name contains one of tokens, falling back to
// the first column of that type.
var synonymGroups = []synonymGroup{
	{
		terms:    []string{"revenue", "sales", "income", "turnover", "amount"},
		tokens:   []string{"sales", "revenue", "amount", "income", "turnover"},
		semantic: schema.Numeric,
	},
	{
		terms:    []string{"quantity", "units", "volume"},
		tokens:   []string{"qty", "quantity", "units", "volume"},
		semantic: schema.Numeric,
	},
	{
		terms:    []string{"date", "when", "day", "time"},
		tokens:   []string{"date", "time", "day"},
		semantic: schema.Date,
	},
}

// minContainment is the shortest key that may match by substring.
const minContainment = 3

// resolver looks up schema columns by normalized and fuzzy keys.
type resolver struct {
	snap  *schema.Snapshot
	byKey map[string][]string
}

func newResolver(snap *schema.Snapshot) *resolver {
	r := &resolver{snap: snap, byKey: make(map[string][]string)}
	for _, name := range snap.Names() {
		k := NormalizeKey(name)
		r.byKey[k] = append(r.byKey[k], name)
	}
	return r
}

func (r *resolver) exact(term string) bool {
	return term == queryir.Star || r.snap.Has(term)
}

// normalized returns the single column sharing term's normalized key.
func (r *resolver) normalized(term string) (string, bool) {
	names := r.byKey[NormalizeKey(term)]
	if len(names) != 1 {
		return "", false
	}
	return names[0], true
}

// synonym resolves term by substring containment, then by synonym group.
// The returned reason describes which rule matched.
func (r *resolver) synonym(term string) (string, string, bool) {
	key := compactKey(term)
	if len(key) >= minContainment {
		for _, name := range r.snap.Names() {
			ck := compactKey(name)
			if len(ck) < minContainment {
				continue
			}
			if strings.Contains(ck, key) || strings.Contains(key, ck) {
				return name, "matched column by name containment", true
			}
		}
	}

	for _, g := range synonymGroups {
		if !containsAny(key, g.terms) {
			continue
		}
		if name, ok := r.firstOfType(g.semantic, g.tokens); ok {
			return name, "resolved synonym to " + g.semantic.String() + " column", true
		}
	}
	return "", "", false
}

// firstOfType returns the first column of the semantic type whose name
// contains a token, else the first column of that type.
func (r *resolver) firstOfType(t schema.SemanticType, tokens []string) (string, bool) {
	var fallback string
	for _, c := range r.snap.Columns() {
		if c.SemanticType != t {
			continue
		}
		if containsAny(strings.ToLower(c.Name), tokens) {
			return c.Name, true
		}
		if fallback == "" {
			fallback = c.Name
		}
	}
	return fallback, fallback != ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

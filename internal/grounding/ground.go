package grounding

import (
	"regexp"
	"sort"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// normalize lowercases name and strips every non-alphanumeric character,
// the third tier of the matching policy (spec.md §4.6).
func normalize(name string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "")
}

// maxLevenshteinDistance bounds the fuzzy tie-break tier: a match farther
// than this from every canonical name is rejected outright.
const maxLevenshteinDistance = 3

// resolveName maps a possibly fuzzy user-supplied name onto one of
// candidates (the canonical names of an Index's features or usage limits),
// following exact -> case-insensitive -> normalized-with-Levenshtein-tie-break.
func resolveName(want string, candidates map[string]struct{}) (string, bool) {
	if _, ok := candidates[want]; ok {
		return want, true
	}

	lowerWant := strings.ToLower(want)
	for c := range candidates {
		if strings.ToLower(c) == lowerWant {
			return c, true
		}
	}

	normWant := normalize(want)
	names := make([]string, 0, len(candidates))
	for c := range candidates {
		names = append(names, c)
	}
	sort.Strings(names)
	best := ""
	bestDist := maxLevenshteinDistance + 1
	tie := false
	for _, c := range names {
		if normalize(c) == normWant {
			// Multiple distinct canonical names can normalize identically
			// (e.g. two names differing only by punctuation); that is a
			// data-modeling problem in the YAML, not a grounding ambiguity,
			// so the first exact normalized match wins deterministically.
			return c, true
		}
		d := levenshtein(normWant, normalize(c))
		if d < bestDist {
			bestDist, best, tie = d, c, false
		} else if d == bestDist {
			tie = true
		}
	}
	if best == "" || bestDist > maxLevenshteinDistance || tie {
		return "", false
	}
	return best, true
}

func featureNameSet(idx *Index) map[string]struct{} {
	set := make(map[string]struct{}, len(idx.Features))
	for name := range idx.Features {
		set[name] = struct{}{}
	}
	return set
}

func limitNameSet(idx *Index) map[string]struct{} {
	set := make(map[string]struct{}, len(idx.Limits))
	for name := range idx.Limits {
		set[name] = struct{}{}
	}
	return set
}

// Ground resolves a raw Filter against idx, producing a Grounded filter with
// canonical names, or the first Error encountered (spec.md §4.6).
func Ground(idx *Index, f Filter) (*Grounded, error) {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return nil, &Error{Kind: KindInvalidRange, Detail: "minPrice must be non-negative"}
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return nil, &Error{Kind: KindInvalidRange, Detail: "maxPrice must be non-negative"}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, &Error{Kind: KindInvalidRange, Detail: "minPrice exceeds maxPrice"}
	}

	features := featureNameSet(idx)
	out := &Grounded{MinPrice: f.MinPrice, MaxPrice: f.MaxPrice, UsageLimits: map[string]float64{}}

	for _, want := range f.Features {
		canon, ok := resolveName(want, features)
		if !ok {
			return nil, &Error{Kind: KindUnknownFeature, Name: want}
		}
		if idx.Features[canon].ValueType != ValueBoolean {
			// Presence-means-true filters only make sense against boolean
			// features (spec.md §4.6); anything else is a unit mismatch.
			return nil, &Error{
				Kind:     KindUnitMismatch,
				Name:     want,
				Expected: string(idx.Features[canon].ValueType),
				Provided: string(ValueBoolean),
			}
		}
		out.Features = append(out.Features, canon)
	}

	limits := limitNameSet(idx)
	for want, req := range f.UsageLimits {
		canon, ok := resolveName(want, limits)
		if !ok {
			return nil, &Error{Kind: KindUnknownUsageLimit, Name: want}
		}
		canonUnit := idx.Limits[canon].Unit
		if req.Unit != "" && canonUnit != "" && !strings.EqualFold(req.Unit, canonUnit) {
			return nil, &Error{Kind: KindUnitMismatch, Name: want, Expected: canonUnit, Provided: req.Unit}
		}
		out.UsageLimits[canon] = req.Value
	}

	return out, nil
}

package match

import (
	"strings"
	"unicode/utf8"
)

// Similarity scores how alike two person names are, in [0, 1]. The first
// branch that applies wins:
//
//  1. either raw input empty -> 0.0
//  2. normalized forms equal -> 1.0
//  3. one normalized form contains the other -> 0.9
//  4. Dice-style token overlap: 2*matching / (len(a)+len(b)), where tokens
//     of two runes or fewer are discarded (initials and particles like
//     "de", "la") and a token of b may satisfy more than one token of a.
//
// The token pass intentionally does no bipartite matching; repeated tokens
// can overcount. That mirrors the behavior the directory has always had and
// downstream thresholds are tuned to it.
func Similarity(name1, name2 string) float64 {
	if name1 == "" || name2 == "" {
		return 0
	}

	n1 := Normalize(name1)
	n2 := Normalize(name2)

	if n1 == n2 {
		return 1.0
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return 0.9
	}

	t1 := longTokens(n1)
	t2 := longTokens(n2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}

	matching := 0
	for _, a := range t1 {
		for _, b := range t2 {
			if a == b {
				matching++
				break
			}
		}
	}
	return float64(2*matching) / float64(len(t1)+len(t2))
}

// longTokens splits a normalized name and keeps tokens longer than two runes.
func longTokens(s string) []string {
	fields := strings.Fields(s)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

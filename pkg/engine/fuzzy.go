package engine

import (
	"sort"
	"strings"
)

// Near-miss thresholds for unknown asset ids.
const (
	fuzzyMatchThreshold = 0.85
	fuzzyAmbiguityGap   = 0.10
)

// closestMatch returns the candidate most similar to id, searched after
// normalizing case and stripping whitespace, underscores and hyphens.
//  1. Normalized forms equal -> match
//  2. No candidate at or above the threshold -> no match
//  3. Single candidate, or a winner ahead by the ambiguity gap -> match
//  4. Otherwise ambiguous -> no match
func closestMatch(id string, candidates []string) (string, bool) {
	needle := normalizeID(id)
	if needle == "" {
		return "", false
	}

	type scoredCandidate struct {
		id    string
		score float64
	}

	var top []scoredCandidate
	for _, c := range candidates {
		normalized := normalizeID(c)
		if normalized == needle {
			return c, true
		}
		score := similarity(needle, normalized)
		if score >= fuzzyMatchThreshold {
			top = append(top, scoredCandidate{id: c, score: score})
		}
	}

	if len(top) == 0 {
		return "", false
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].score > top[j].score
	})

	if len(top) == 1 || top[0].score-top[1].score >= fuzzyAmbiguityGap {
		return top[0].id, true
	}
	return "", false
}

func normalizeID(id string) string {
	s := strings.ToUpper(strings.TrimSpace(id))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// levenshteinDistance is the number of single-rune insertions, deletions or
// substitutions turning a into b, computed with two rolling rows.
func levenshteinDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) > len(br) {
		ar, br = br, ar
	}
	if len(ar) == 0 {
		return len(br)
	}

	prev := make([]int, len(ar)+1)
	curr := make([]int, len(ar)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(br); j++ {
		curr[0] = j
		for i := 1; i <= len(ar); i++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ar)]
}

// similarity is 1 - distance/max(len(a), len(b)), in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

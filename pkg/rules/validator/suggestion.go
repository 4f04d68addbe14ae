package validator

import (
	"fmt"
	"strings"
)

// suggestID proposes the closest known ID for an unknown reference.
func suggestID(unknown string, known []string) string {
	if len(known) == 0 {
		return ""
	}

	best, bestDist := "", 1000
	for _, candidate := range known {
		if d := levenshteinDistance(unknown, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}

	// Only suggest if the distance is reasonable
	if bestDist < 4 {
		return fmt.Sprintf("did you mean %q?", best)
	}
	if len(known) > 5 {
		return fmt.Sprintf("known IDs include: %s, ...", strings.Join(known[:5], ", "))
	}
	return fmt.Sprintf("known IDs: %s", strings.Join(known, ", "))
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

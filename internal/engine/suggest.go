package engine

import (
	"sort"
	"strings"
)

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Suggest returns up to 3 candidates closest to input by case-insensitive
// edit distance. An exact case-insensitive match ranks first.
func Suggest(input string, candidates []string) []string {
	type candidate struct {
		name string
		dist int
	}

	maxDist := max(len(input)/2, 3)
	needle := strings.ToLower(input)

	var found []candidate
	for _, c := range candidates {
		if c == input {
			continue
		}
		d := levenshtein(needle, strings.ToLower(c))
		if d <= maxDist {
			found = append(found, candidate{name: c, dist: d})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].name < found[j].name
	})

	limit := min(3, len(found))
	out := make([]string, limit)
	for i := range limit {
		out[i] = found[i].name
	}
	return out
}

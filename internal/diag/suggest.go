package diag

import "sort"

// DidYouMean picks the candidate with the smallest edit distance to the
// attempted name. Ties resolve to whichever candidate sorts first by
// (distance, name); the sort is stable so equal entries keep their
// original order.
func DidYouMean(candidates []string, attempted string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	type match struct {
		dist int
		word string
	}
	matches := make([]match, 0, len(candidates))
	for _, word := range candidates {
		matches = append(matches, match{dist: Levenshtein(word, attempted), word: word})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].word < matches[j].word
	})
	return matches[0].word, true
}

// Levenshtein computes the edit distance between a and b with unit-cost
// insert/delete/substitute, using a single rolling vector so memory stays
// O(len(a)).
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	cache := make([]int, len(ra))
	for i := range cache {
		cache[i] = i + 1
	}

	var result int
	for ib, cb := range rb {
		result = ib
		distA := ib
		for ia, ca := range ra {
			distB := distA
			if ca != cb {
				distB = distA + 1
			}
			distA = cache[ia]

			if distA > result {
				if distB > result {
					result++
				} else {
					result = distB
				}
			} else if distB > distA {
				result = distA + 1
			} else {
				result = distB
			}
			cache[ia] = result
		}
	}
	return result
}

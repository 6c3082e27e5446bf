// Package similarity provides the string similarity metrics used for
// address and business-name comparison. All functions are pure.
package similarity

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Sequence computes the character-sequence similarity of two strings on a
// 0-100 scale: twice the total length of the longest common matching blocks
// divided by the combined length. Returns 0 when either input is empty.
func Sequence(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)

	matched := 0
	for _, block := range matchingBlocks(ra, rb) {
		matched += block.size
	}

	return 2.0 * float64(matched) / float64(len(ra)+len(rb)) * 100.0
}

// TokenSet computes the Jaccard index over the whitespace-delimited token
// sets of two strings. Returns 0 when either token set is empty.
func TokenSet(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	union := len(tokensA)
	for token := range tokensB {
		if tokensA[token] {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}

// EditRatio computes a Levenshtein-based similarity between 0 and 1. It is
// reported as supplementary comparison evidence and never drives thresholds.
func EditRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

// TokensOnlyIn returns the tokens of a that do not appear in b, sorted for
// deterministic reporting.
func TokensOnlyIn(a, b string) []string {
	tokensB := tokenSet(b)

	var only []string
	for token := range tokenSet(a) {
		if !tokensB[token] {
			only = append(only, token)
		}
	}

	sort.Strings(only)
	return only
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(s) {
		set[token] = true
	}
	return set
}

type block struct {
	aStart int
	bStart int
	size   int
}

// matchingBlocks finds the greedy longest-common-substring alignment of two
// rune slices: the longest match splits the problem into a left and a right
// half, each searched recursively.
func matchingBlocks(a, b []rune) []block {
	// Index positions of every rune in b.
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	var blocks []block

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if m.size == 0 {
			continue
		}

		blocks = append(blocks, m)
		if s.alo < m.aStart && s.blo < m.bStart {
			queue = append(queue, span{s.alo, m.aStart, s.blo, m.bStart})
		}
		if m.aStart+m.size < s.ahi && m.bStart+m.size < s.bhi {
			queue = append(queue, span{m.aStart + m.size, s.ahi, m.bStart + m.size, s.bhi})
		}
	}

	return blocks
}

// longestMatch finds the longest block of runes common to a[alo:ahi] and
// b[blo:bhi]. Of equally long matches the earliest in a, then in b, wins.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) block {
	best := block{aStart: alo, bStart: blo}

	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > best.size {
				best = block{aStart: i - k + 1, bStart: j - k + 1, size: k}
			}
		}
		j2len = newJ2len
	}

	return best
}

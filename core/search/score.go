package search

import (
	"math"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/writings/core/textfold"
)

// Score weights.
const (
	orderWeight     = 800.0
	proximityWeight = 600.0
	positionWeight  = 400.0
	exactLastWeight = 1000.0
	fuzzyWeight     = 500.0
)

// MinSimilarity is the lowest LCS similarity at which the last keyword
// still matches a word.
const MinSimilarity = 0.7

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]?\s*`)

// Sentences splits text into sentences, trimmed, without empty ones.
func Sentences(text string) []string {
	var out []string
	for _, m := range sentencePattern.FindAllString(text, -1) {
		if s := strings.TrimSpace(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Score returns the score of the best sentence of text for keywords, and
// that sentence. Every keyword but the last must occur in the sentence; the
// last may match approximately. ok is false when no sentence qualifies.
// Later sentences win ties.
func Score(text string, keywords []string) (score int, excerpt string, ok bool) {
	if len(keywords) == 0 {
		return 0, "", false
	}
	must := keywords[:len(keywords)-1]
	last := keywords[len(keywords)-1]

	score = -1
	for _, s := range Sentences(text) {
		folded := textfold.Fold(s)
		if !containsAll(folded, must) {
			continue
		}
		sc, matched := scoreSentence(textfold.Words(s), must, last)
		if matched && sc >= score {
			score, excerpt = sc, s
		}
	}
	if score < 0 {
		return 0, "", false
	}
	return score, excerpt, true
}

func containsAll(s string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(s, k) {
			return false
		}
	}
	return true
}

func indexOfWordContaining(words []string, kw string) int {
	for i, w := range words {
		if strings.Contains(w, kw) {
			return i
		}
	}
	return -1
}

func scoreSentence(words, must []string, last string) (int, bool) {
	positions := make([]int, 0, len(must)+1)
	for _, kw := range must {
		pos := indexOfWordContaining(words, kw)
		if pos < 0 {
			return 0, false
		}
		positions = append(positions, pos)
	}

	exact := 0.0
	fuzzy := 1.0
	lastPos := indexOfWordContaining(words, last)
	if lastPos >= 0 {
		exact = 1
	} else {
		best, bestPos := 0.0, 0
		for i, w := range words {
			if sim := Similarity(last, w); sim >= best {
				best, bestPos = sim, i
			}
		}
		if best < MinSimilarity {
			return 0, false
		}
		lastPos, fuzzy = bestPos, best
	}
	positions = append(positions, lastPos)

	var order, proximity float64
	for i := 1; i < len(positions); i++ {
		if positions[i] >= positions[i-1] {
			order++
		}
		proximity += 1 / (math.Abs(float64(positions[i]-positions[i-1])) + 1)
	}
	proximity /= math.Max(float64(len(positions)-1), 1)
	position := 1 / (float64(positions[0]) + 1)

	total := order*orderWeight +
		proximity*proximityWeight +
		position*positionWeight +
		exact*exactLastWeight +
		fuzzy*fuzzyWeight
	return int(math.Round(total)), true
}

// Similarity is the length of the longest common subsequence of a and b
// divided by the length of the longer one, in runes.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	return float64(lcs(ra, rb)) / float64(longest)
}

func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

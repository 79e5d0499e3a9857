// Package suggest implements the retrieval fallback for reply drafting:
// given an incoming message and a corpus of past sent replies, it returns
// the past reply most similar to the incoming text.
package suggest

import (
	"math"
	"strings"
	"unicode"
)

// minTokenLength filters out short noise tokens ("a", "to", "of" ...).
const minTokenLength = 3

// Engine scores past replies against an incoming message using cosine
// similarity over term-frequency vectors. It is deterministic and performs
// no I/O.
type Engine struct{}

// NewEngine returns a similarity engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Suggest returns the past reply most similar to the incoming body, or ""
// when the corpus is empty. Ties keep the first-seen reply.
func (e *Engine) Suggest(incoming string, pastReplies []string) string {
	if len(pastReplies) == 0 {
		return ""
	}

	incomingVec := Vectorize(incoming)
	bestScore := -1.0
	best := ""
	for _, reply := range pastReplies {
		score := Cosine(incomingVec, Vectorize(reply))
		if score > bestScore {
			bestScore = score
			best = reply
		}
	}
	return best
}

// Vectorize tokenizes text into a term-frequency map. Tokens are
// lowercased alphanumeric runs; tokens shorter than minTokenLength are
// discarded.
func Vectorize(text string) map[string]int {
	freq := make(map[string]int)
	for _, token := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if len(token) < minTokenLength {
			continue
		}
		freq[token]++
	}
	return freq
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Cosine computes the cosine similarity of two term-frequency vectors.
// It returns 0 when either vector is empty or all-zero.
func Cosine(a, b map[string]int) float64 {
	var dot, na, nb int
	for term, va := range a {
		dot += va * b[term]
		na += va * va
	}
	for _, vb := range b {
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float64(dot) / (math.Sqrt(float64(na)) * math.Sqrt(float64(nb)))
}

package suggest

import (
	"math"
	"testing"
)

func TestSuggestEmptyCorpus(t *testing.T) {
	e := NewEngine()
	if got := e.Suggest("can you send the invoice?", nil); got != "" {
		t.Errorf("expected empty suggestion for empty corpus, got %q", got)
	}
}

func TestSelfSimilarityIsOne(t *testing.T) {
	text := "please send the invoice for last month"
	v := Vectorize(text)
	if got := Cosine(v, v); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("self-similarity = %v, want 1.0", got)
	}
}

func TestCosineSymmetric(t *testing.T) {
	a := Vectorize("the invoice was sent yesterday morning")
	b := Vectorize("invoice arrived yesterday, thanks")
	if got, want := Cosine(a, b), Cosine(b, a); got != want {
		t.Errorf("cosine not symmetric: %v vs %v", got, want)
	}
}

func TestShortTokensIgnored(t *testing.T) {
	noisy := Vectorize("a b to email")
	clean := Vectorize("email")
	if got := Cosine(noisy, clean); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("short tokens affected score: got %v, want 1.0", got)
	}
}

func TestEmptyVectorScoresZero(t *testing.T) {
	if got := Cosine(Vectorize(""), Vectorize("hello world")); got != 0 {
		t.Errorf("empty vector score = %v, want 0", got)
	}
	if got := Cosine(Vectorize("hello world"), Vectorize("!!! ??")); got != 0 {
		t.Errorf("all-noise vector score = %v, want 0", got)
	}
}

func TestSuggestPicksMostSimilar(t *testing.T) {
	e := NewEngine()
	corpus := []string{
		"the meeting is scheduled for tuesday afternoon",
		"attached is the invoice you requested, let me know if anything is missing",
		"thanks for the update, talk soon",
	}
	got := e.Suggest("could you send over the invoice when you have a moment?", corpus)
	if got != corpus[1] {
		t.Errorf("Suggest picked %q, want the invoice reply", got)
	}
}

func TestSuggestTieKeepsFirst(t *testing.T) {
	e := NewEngine()
	// Both replies share no terms with the incoming text, so both score 0.
	corpus := []string{"alpha beta gamma", "delta epsilon zeta"}
	if got := e.Suggest("unrelated incoming message", corpus); got != corpus[0] {
		t.Errorf("tie-break picked %q, want first corpus entry", got)
	}
}

func TestSuggestDeterministic(t *testing.T) {
	e := NewEngine()
	corpus := []string{
		"following up on the contract draft",
		"the contract is ready for signature",
	}
	first := e.Suggest("where is the contract?", corpus)
	for i := 0; i < 10; i++ {
		if got := e.Suggest("where is the contract?", corpus); got != first {
			t.Fatalf("suggestion changed between identical runs: %q vs %q", got, first)
		}
	}
}

package similarity

import (
	"math"
	"reflect"
	"testing"
)

type lexiconScorer map[string]float64

func (l lexiconScorer) Score(word string) float64 { return l[word] }

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := Tokenize("Our customers' demand FELL 12% in 2023; we're cautious.")
	want := []string{"our", "customers'", "demand", "fell", "in", "we're", "cautious"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
}

func TestDistanceProperties(t *testing.T) {
	t.Parallel()

	seqs := [][]string{
		nil,
		{"the"},
		{"the", "quick", "fox"},
		{"the", "slow", "brown", "fox"},
		{"a", "quick", "fox", "jumps"},
		{"fox", "quick", "the"},
	}

	for _, a := range seqs {
		if d := Distance(a, a); d != 0 {
			t.Fatalf("Distance(%v, itself) = %d", a, d)
		}
		for _, b := range seqs {
			dab := Distance(a, b)
			if dab != Distance(b, a) {
				t.Fatalf("Distance not symmetric for %v and %v", a, b)
			}
			if dab > len(a)+len(b) {
				t.Fatalf("Distance(%v, %v) = %d exceeds combined length", a, b, dab)
			}
			for _, c := range seqs {
				if dab > Distance(a, c)+Distance(c, b) {
					t.Fatalf("triangle inequality violated for %v, %v, %v", a, b, c)
				}
			}
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b []string
		want int
	}{
		{a: []string{"kitten"}, b: []string{"sitting"}, want: 1},
		{a: []string{"we", "face", "new", "litigation", "risk"}, b: []string{"we", "face", "risk"}, want: 2},
		{a: []string{"a", "b", "c"}, b: []string{"c", "b", "a"}, want: 2},
		{a: nil, b: []string{"x", "y"}, want: 2},
	}

	for _, tc := range cases {
		if got := Distance(tc.a, tc.b); got != tc.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompareIdenticalText(t *testing.T) {
	t.Parallel()

	rec := NewEngine(lexiconScorer{"quick": 0.5}).Compare("the quick fox", "the quick fox")
	if rec.Distance != 0 || rec.Similarity != 1 || rec.Sentiment != 0 {
		t.Fatalf("unexpected record for identical text: %+v", rec)
	}
	if rec.LenA != 3 || rec.LenB != 3 {
		t.Fatalf("unexpected lengths: %+v", rec)
	}
}

func TestCompareNoveltySentiment(t *testing.T) {
	t.Parallel()

	engine := NewEngine(lexiconScorer{"new": 0.2, "litigation": -0.6, "risk": -0.4})
	rec := engine.Compare("we face new litigation risk", "we face risk")

	if rec.Distance != 2 || rec.LenA != 5 || rec.LenB != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Similarity <= 0 || rec.Similarity >= 1 {
		t.Fatalf("similarity out of (0,1): %v", rec.Similarity)
	}
	if want := 1 - 2.0/8.0; rec.Similarity != want {
		t.Fatalf("similarity = %v, want %v", rec.Similarity, want)
	}
	if want := -0.2; math.Abs(rec.Sentiment-want) > 1e-12 {
		t.Fatalf("sentiment = %v, want %v", rec.Sentiment, want)
	}
}

func TestNoveltyIsDistinctAndOrdered(t *testing.T) {
	t.Parallel()

	got := Novelty(
		[]string{"new", "risk", "new", "cyber", "we", "cyber"},
		[]string{"we", "risk"},
	)
	want := []string{"new", "cyber"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Novelty() = %v, want %v", got, want)
	}
}

func TestCompareBothEmpty(t *testing.T) {
	t.Parallel()

	rec := NewEngine(nil).Compare("", "12 345")
	if rec.Similarity != 1 || rec.Distance != 0 {
		t.Fatalf("expected two empty token sequences to be identical, got %+v", rec)
	}
}

package rank

import (
	"math"
	"testing"

	"github.com/akif987/papersearch/pkg/models"
)

func cand(id string, v []float32) Candidate {
	return Candidate{Vector: v, Chunk: models.RetrievedChunk{ChunkID: id}}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float32
		want   float64
		wantOK bool
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 1, wantOK: true},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0, wantOK: true},
		{name: "opposite", a: []float32{1, 1}, b: []float32{-1, -1}, want: -1, wantOK: true},
		{name: "scaled", a: []float32{2, 0}, b: []float32{5, 0}, want: 1, wantOK: true},
		{name: "zero left", a: []float32{0, 0}, b: []float32{1, 0}, wantOK: false},
		{name: "zero right", a: []float32{1, 0}, b: []float32{0, 0}, wantOK: false},
		{name: "length mismatch", a: []float32{1, 0, 0}, b: []float32{1, 0}, wantOK: false},
		{name: "both empty", a: nil, b: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Cosine(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("Cosine ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineBounds(t *testing.T) {
	vecs := [][]float32{
		{0.3, -0.7, 0.2},
		{1, 2, 3},
		{-5, 0.001, 4},
		{0.0001, 0.0001, 0.0001},
	}
	for _, a := range vecs {
		for _, b := range vecs {
			got, ok := Cosine(a, b)
			if !ok {
				t.Fatalf("Cosine(%v, %v) undefined", a, b)
			}
			if got < -1-1e-9 || got > 1+1e-9 {
				t.Errorf("Cosine(%v, %v) = %v out of [-1, 1]", a, b, got)
			}
		}
	}
}

func TestRankExcludesUndefined(t *testing.T) {
	candidates := []Candidate{
		cand("A", []float32{1, 0}),
		cand("B", []float32{0, 0}),
	}

	got := Rank([]float32{1, 0}, candidates, 5)

	if len(got) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(got), got)
	}
	if got[0].ChunkID != "A" {
		t.Errorf("top result = %q, want A", got[0].ChunkID)
	}
	if math.Abs(got[0].Score-1.0) > 1e-9 {
		t.Errorf("score = %v, want 1.0", got[0].Score)
	}
}

func TestRankDescendingOrder(t *testing.T) {
	candidates := []Candidate{
		cand("low", []float32{0, 1}),
		cand("high", []float32{1, 0}),
		cand("mid", []float32{1, 1}),
	}

	got := Rank([]float32{1, 0}, candidates, 3)

	want := []string{"high", "mid", "low"}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ChunkID != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i].ChunkID, want[i])
		}
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	candidates := []Candidate{
		cand("first", []float32{2, 0}),
		cand("second", []float32{5, 0}),
		cand("third", []float32{1, 0}),
	}

	got := Rank([]float32{1, 0}, candidates, 3)

	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ChunkID != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i].ChunkID, want[i])
		}
	}
}

func TestRankTruncatesToK(t *testing.T) {
	candidates := []Candidate{
		cand("a", []float32{1, 0}),
		cand("b", []float32{1, 1}),
		cand("c", []float32{0, 1}),
	}

	got := Rank([]float32{1, 0}, candidates, 2)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].ChunkID != "a" || got[1].ChunkID != "b" {
		t.Errorf("top two = %q, %q", got[0].ChunkID, got[1].ChunkID)
	}
}

func TestRankKLargerThanCandidates(t *testing.T) {
	candidates := []Candidate{
		cand("a", []float32{1, 0}),
		cand("b", []float32{0, 1}),
	}
	if got := Rank([]float32{1, 1}, candidates, 10); len(got) != 2 {
		t.Errorf("got %d results, want all 2", len(got))
	}
}

func TestRankEdgeCases(t *testing.T) {
	if got := Rank([]float32{1, 0}, nil, 5); got != nil {
		t.Errorf("no candidates: got %+v, want nil", got)
	}
	if got := Rank([]float32{1, 0}, []Candidate{cand("a", []float32{1, 0})}, 0); got != nil {
		t.Errorf("k=0: got %+v, want nil", got)
	}
	// Zero query vector leaves every similarity undefined.
	got := Rank([]float32{0, 0}, []Candidate{cand("a", []float32{1, 0})}, 5)
	if len(got) != 0 {
		t.Errorf("zero query: got %+v, want empty", got)
	}
}

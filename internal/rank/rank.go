// Package rank scores candidate chunks against a query vector by cosine
// similarity. It is a pure, brute-force ranker: every stored vector is
// scored on every query. An ANN index is deliberately out of scope.
package rank

import (
	"math"
	"sort"

	"github.com/akif987/papersearch/pkg/models"
)

// Candidate pairs a stored embedding with the chunk it belongs to.
type Candidate struct {
	Vector []float32
	Chunk  models.RetrievedChunk
}

// Cosine returns dot(a,b) / (|a|*|b|) and whether the value is defined.
// It is undefined when either vector has zero magnitude, or when the
// vectors differ in length.
func Cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0, false
	}
	return dot / denom, true
}

// Rank returns up to k candidates ordered by descending cosine similarity
// to query. Candidates whose similarity is undefined are excluded rather
// than scored. Ties keep input order, so results are deterministic. An
// empty result is a valid outcome, not an error.
func Rank(query []float32, candidates []Candidate, k int) []models.RetrievedChunk {
	if k <= 0 {
		return nil
	}

	scored := make([]models.RetrievedChunk, 0, len(candidates))
	for _, cand := range candidates {
		score, ok := Cosine(query, cand.Vector)
		if !ok {
			continue
		}
		m := cand.Chunk
		m.Score = score
		scored = append(scored, m)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

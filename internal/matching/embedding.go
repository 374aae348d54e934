// Package matching is the Match Engine: an Embedding Matcher (primary) and
// a Rule Matcher (fallback when either side lacks an embedding).
package matching

import (
	"fmt"
	"math"
)

// CosineThreshold is τ_sim from spec §4.5.1; cosine similarity at or above
// this value qualifies a candidate.
const CosineThreshold = 0.65

// Result is one scored candidate, common to both matchers.
type Result struct {
	Score   int // 0-100
	Reasons []string
}

// CosineSimilarity returns the cosine similarity of two equal-length
// vectors, or NaN if either is empty or their lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return math.NaN()
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MatchEmbedding scores a user embedding against a candidate embedding.
// ok is false when the cosine similarity is below CosineThreshold or either
// vector is unusable.
func MatchEmbedding(userVec, jobVec []float32) (Result, bool) {
	sim := CosineSimilarity(userVec, jobVec)
	if math.IsNaN(sim) || sim < CosineThreshold {
		return Result{}, false
	}
	score := int(math.Round(100 * sim))
	if score > 100 {
		score = 100
	}
	return Result{
		Score:   score,
		Reasons: []string{fmt.Sprintf("semantic similarity: %d%%", score)},
	}, true
}

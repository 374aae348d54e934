package matching

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_Invalid(t *testing.T) {
	if !math.IsNaN(CosineSimilarity(nil, []float32{1})) {
		t.Error("CosineSimilarity with empty vector should be NaN")
	}
	if !math.IsNaN(CosineSimilarity([]float32{1, 2}, []float32{1})) {
		t.Error("CosineSimilarity with mismatched lengths should be NaN")
	}
	if !math.IsNaN(CosineSimilarity([]float32{0, 0}, []float32{1, 1})) {
		t.Error("CosineSimilarity with a zero-norm vector should be NaN")
	}
}

func TestMatchEmbedding(t *testing.T) {
	strong := []float32{1, 0}
	_, ok := MatchEmbedding(strong, []float32{1, 0})
	if !ok {
		t.Error("MatchEmbedding should accept vectors above the cosine threshold")
	}
	_, ok = MatchEmbedding([]float32{1, 0}, []float32{0, 1})
	if ok {
		t.Error("MatchEmbedding should reject orthogonal vectors")
	}
}

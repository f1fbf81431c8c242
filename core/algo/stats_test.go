package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 12.0, Mean([]float64{10, 14}))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.True(t, math.IsNaN(Mean(nil)))
}

func TestStddevLike(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{
			name:     "two samples",
			values:   []float64{10, 14},
			expected: 0.25, // S = 8, n = 2
		},
		{
			name:     "three samples",
			values:   []float64{1, 2, 3},
			expected: math.Sqrt(1.0 / 6.0), // S = 2, n = 3
		},
		{
			name:     "wide spread is small",
			values:   []float64{0, 100},
			expected: math.Sqrt(1.0 / 10000.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, StddevLike(tt.values), 1e-12)
		})
	}
}

func TestStddevLikeDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"empty", nil},
		{"single sample", []float64{20}},
		{"identical samples", []float64{7, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, math.IsInf(StddevLike(tt.values), 1))
		})
	}
}

func TestStddevLikeOrderIndependent(t *testing.T) {
	a := StddevLike([]float64{3, 9, 4, 1})
	b := StddevLike([]float64{1, 4, 9, 3})
	assert.InDelta(t, a, b, 1e-12)
	assert.Greater(t, a, 0.0)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.True(t, IsFinite(-3.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
	assert.False(t, IsFinite(math.Inf(-1)))
}

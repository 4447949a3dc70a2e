package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
)

func TestComputeAverageFullPrecision(t *testing.T) {
	s := NewEvaluationService()

	assert.Equal(t, 8.125, s.ComputeAverage(9.25, 7.0))
	assert.Equal(t, 0.0, s.ComputeAverage(0.0, 0.0))
	assert.Equal(t, 10.0, s.ComputeAverage(10.0, 10.0))
	assert.Equal(t, 5.55, s.ComputeAverage(5.5, 5.6))
}

func TestIsApproved(t *testing.T) {
	s := NewEvaluationService()

	tests := []struct {
		name     string
		averages []float64
		expected int
		want     bool
	}{
		{"complete passing record", []float64{9.25, 7.0, 5.0, 6.0}, 4, true},
		{"mean exactly at threshold", []float64{6.0, 6.0, 6.0, 6.0}, 4, true},
		{"complete failing record", []float64{5.0, 5.0, 6.0, 7.0}, 4, false},
		{"incomplete record never passes", []float64{10.0, 10.0, 10.0}, 4, false},
		{"empty record", nil, 4, false},
		{"surplus entries", []float64{10.0, 10.0, 10.0, 10.0, 10.0}, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsApproved(tt.averages, tt.expected))
		})
	}
}

func TestEvaluate(t *testing.T) {
	s := NewEvaluationService()

	assert.Equal(t, models.StatusNotApproved, s.Evaluate(nil, 4))
	assert.Equal(t, models.StatusIncomplete, s.Evaluate([]float64{8.0, 9.0}, 4))
	assert.Equal(t, models.StatusApproved, s.Evaluate([]float64{9.25, 7.0, 5.0, 6.0}, 4))
	assert.Equal(t, models.StatusNotApproved, s.Evaluate([]float64{5.0, 5.0, 5.0, 5.0}, 4))
}

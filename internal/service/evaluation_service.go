package service

import "github.com/MarivaldoDev/sistema-escolar/internal/models"

// PassingMean is the minimum yearly mean required for approval.
const PassingMean = 6.0

// EvaluationService decides pass/fail outcomes from stored period averages.
// It is pure computation; callers fetch the averages.
type EvaluationService struct{}

// NewEvaluationService constructs an EvaluationService instance.
func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

// ComputeAverage derives the period average from the two scores. Full
// floating precision; no rounding at any point.
func (s *EvaluationService) ComputeAverage(activity, exam float64) float64 {
	return (activity + exam) / 2
}

// IsApproved reports whether a complete set of period averages passes. An
// incomplete record never passes: a missing period is treated as failure,
// not as a skipped term.
func (s *EvaluationService) IsApproved(averages []float64, expectedPeriods int) bool {
	if len(averages) == 0 || len(averages) != expectedPeriods {
		return false
	}
	var sum float64
	for _, avg := range averages {
		sum += avg
	}
	return sum/float64(len(averages)) >= PassingMean
}

// Evaluate classifies the record. An empty record means no evidence of
// passing, so it reads as not approved rather than pending.
func (s *EvaluationService) Evaluate(averages []float64, expectedPeriods int) models.ApprovalStatus {
	if len(averages) == 0 {
		return models.StatusNotApproved
	}
	if len(averages) != expectedPeriods {
		return models.StatusIncomplete
	}
	if s.IsApproved(averages, expectedPeriods) {
		return models.StatusApproved
	}
	return models.StatusNotApproved
}

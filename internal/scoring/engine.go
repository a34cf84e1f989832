package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroTotal is returned when a summary is requested for a quiz without questions.
	ErrZeroTotal = errors.New("total question count must be positive")
	// ErrInvalidCount is returned when the correct count is negative or exceeds the total.
	ErrInvalidCount = errors.New("correct count out of range")
)

// Grade letters.
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
	GradeF = "F"
)

// Band is an inclusive lower percentage bound for a grade.
type Band struct {
	MinPercentage int
	Grade         string
}

// ScoringConfig holds grade thresholds (defaults match the results screen).
type ScoringConfig struct {
	Bands                 []Band // highest band first
	FailGrade             string // default: F
	CelebrateAtPercentage int    // default: 60
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Bands: []Band{
			{MinPercentage: 90, Grade: GradeA},
			{MinPercentage: 80, Grade: GradeB},
			{MinPercentage: 70, Grade: GradeC},
			{MinPercentage: 60, Grade: GradeD},
		},
		FailGrade:             GradeF,
		CelebrateAtPercentage: 60,
	}
}

// Summary is the derived view of a finished quiz.
type Summary struct {
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
	Celebrate  bool   `json:"celebrate"`
}

// Engine turns (correct, total) pairs into summaries. It has no side effects.
type Engine struct {
	config ScoringConfig
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config ScoringConfig) *Engine {
	if len(config.Bands) == 0 {
		config.Bands = DefaultScoringConfig().Bands
	}
	if config.FailGrade == "" {
		config.FailGrade = GradeF
	}
	return &Engine{config: config}
}

var defaultEngine = NewEngine(DefaultScoringConfig())

// Summarize computes the percentage and grade using the default thresholds.
func Summarize(correct, total int) (Summary, error) {
	return defaultEngine.Summarize(correct, total)
}

// Summarize computes percentage = round(100*correct/total), rounding halves up,
// and picks the highest band the percentage reaches.
func (e *Engine) Summarize(correct, total int) (Summary, error) {
	if total <= 0 {
		return Summary{}, ErrZeroTotal
	}
	if correct < 0 || correct > total {
		return Summary{}, fmt.Errorf("%w: %d of %d", ErrInvalidCount, correct, total)
	}

	percentage := Percentage(correct, total)
	return Summary{
		Correct:    correct,
		Total:      total,
		Percentage: percentage,
		Grade:      e.Grade(percentage),
		Celebrate:  percentage >= e.config.CelebrateAtPercentage,
	}, nil
}

// Grade returns the letter for a percentage.
func (e *Engine) Grade(percentage int) string {
	for _, band := range e.config.Bands {
		if percentage >= band.MinPercentage {
			return band.Grade
		}
	}
	return e.config.FailGrade
}

// Percentage rounds 100*correct/total half up without floating point.
// total must be positive.
func Percentage(correct, total int) int {
	return (200*correct + total) / (2 * total)
}

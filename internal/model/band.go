package model

import (
	"math"
	"strconv"
)

// Band is a fractional score (e.g. 6.5) used for writing/speaking
// criteria and the overall result. Bands come from the grading payload
// and are surfaced, never computed locally.
type Band float64

// Rounded returns the band at one decimal of precision.
func (b Band) Rounded() float64 {
	return math.Round(float64(b)*10) / 10
}

// String renders the band with one decimal, e.g. "6.5".
func (b Band) String() string {
	return strconv.FormatFloat(b.Rounded(), 'f', 1, 64)
}

// CriterionBand is one scored criterion of a productive skill
// (e.g. coherence, lexical resource, fluency).
type CriterionBand struct {
	Criterion string `json:"criterion"`
	Band      Band   `json:"band"`
}

// SkillBands is the grading payload for one productive skill.
type SkillBands struct {
	Skill      Skill           `json:"skill"`
	Criteria   []CriterionBand `json:"criteria"`
	Overall    Band            `json:"overall"`
	Commentary string          `json:"commentary,omitempty"`
}

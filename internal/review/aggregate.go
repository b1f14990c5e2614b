package review

import (
	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// SkillSummary is the aggregated outcome for one skill. Receptive skills
// (reading/listening) carry counts and accuracy; productive skills
// (writing/speaking) surface criterion bands from the grading payload
// instead of a locally computed accuracy.
type SkillSummary struct {
	Skill    model.Skill       `json:"skill"`
	Total    int               `json:"total"`
	Answered int               `json:"answered"`
	Skipped  int               `json:"skipped"`
	Correct  int               `json:"correct"`
	Accuracy float64           `json:"accuracy"`
	Bands    *model.SkillBands `json:"bands,omitempty"`
}

// Summary is the aggregated result across all skills.
type Summary struct {
	Skills      []SkillSummary `json:"skills"`
	Total       int            `json:"total"`
	Answered    int            `json:"answered"`
	Skipped     int            `json:"skipped"`
	Correct     int            `json:"correct"`
	OverallBand *model.Band    `json:"overall_band,omitempty"`
}

// Aggregate computes per-skill counts from review items and attaches
// band scores for productive skills. Accuracy is correct/total, defined
// as 0 when a skill has no questions — never a division by zero.
func Aggregate(items []Item, bands []model.SkillBands, overall *model.Band) Summary {
	bandsBySkill := make(map[model.Skill]*model.SkillBands, len(bands))
	for i := range bands {
		bandsBySkill[bands[i].Skill] = &bands[i]
	}

	perSkill := make(map[model.Skill]*SkillSummary)
	order := make([]model.Skill, 0, len(model.AllSkills())+1)

	for _, sk := range model.AllSkills() {
		perSkill[sk] = &SkillSummary{Skill: sk}
		order = append(order, sk)
	}

	summary := Summary{OverallBand: overall}

	for _, item := range items {
		sk, ok := perSkill[item.Skill]
		if !ok {
			// Sentinel skill from malformed metadata: count it, keep rendering.
			sk = &SkillSummary{Skill: item.Skill}
			perSkill[item.Skill] = sk
			order = append(order, item.Skill)
		}

		sk.Total++
		summary.Total++
		if item.Answered {
			sk.Answered++
			summary.Answered++
		} else {
			sk.Skipped++
			summary.Skipped++
		}
		if item.IsCorrect != nil && *item.IsCorrect {
			sk.Correct++
			summary.Correct++
		}
	}

	for _, sk := range order {
		s := perSkill[sk]
		if s.Total > 0 {
			s.Accuracy = float64(s.Correct) / float64(s.Total)
		}
		if sk.IsProductive() {
			s.Bands = bandsBySkill[sk]
			s.Accuracy = 0 // banded, not accuracy-scored
		}
		summary.Skills = append(summary.Skills, *s)
	}

	return summary
}

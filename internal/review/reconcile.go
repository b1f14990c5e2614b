package review

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// displaySeparator joins multiple resolved selections for display.
const displaySeparator = ", "

// BuildOptionMap indexes a question's options by id.
func BuildOptionMap(options []model.Option) map[string]model.Option {
	m := make(map[string]model.Option, len(options))
	for _, o := range options {
		m[o.ID] = o
	}
	return m
}

// MapAnswerContent resolves a persisted answer into display text.
// Priority order:
//
//  1. an explicit option-id list maps each id through the option table;
//  2. a list-shaped fallback ("[...]") is decoded into ids and resolved
//     the same way — decode failure falls through silently;
//  3. a fallback that exactly matches a known option id resolves to
//     that option's text;
//  4. anything else is returned verbatim.
func MapAnswerContent(optionMap map[string]model.Option, ids []string, fallbackText string) string {
	if resolved, ok := resolveIDs(optionMap, ids); ok {
		return resolved
	}

	trimmed := strings.TrimSpace(fallbackText)
	if strings.HasPrefix(trimmed, "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			if resolved, ok := resolveIDs(optionMap, decoded); ok {
				return resolved
			}
		}
	}

	if opt, ok := optionMap[trimmed]; ok {
		return opt.Text
	}

	return fallbackText
}

// resolveIDs maps ids to option text, joining with the display
// separator. An id missing from the table falls back to the raw id so a
// partially known selection still renders.
func resolveIDs(optionMap map[string]model.Option, ids []string) (string, bool) {
	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if opt, ok := optionMap[id]; ok {
			texts = append(texts, opt.Text)
		} else {
			texts = append(texts, id)
		}
	}
	if len(texts) == 0 {
		return "", false
	}
	return strings.Join(texts, displaySeparator), true
}

// Item is one display-ready review row: the question joined with what
// the candidate selected and what was correct.
type Item struct {
	QuestionID      uuid.UUID          `json:"question_id"`
	Idx             int                `json:"idx"`
	Skill           model.Skill        `json:"skill"`
	Type            model.QuestionType `json:"type"`
	PromptText      string             `json:"prompt_text"`
	Options         []model.Option     `json:"options,omitempty"`
	SelectedText    string             `json:"selected_text"`
	CorrectText     string             `json:"correct_text"`
	Answered        bool               `json:"answered"`
	IsCorrect       *bool              `json:"is_correct"`
	ExplanationText string             `json:"explanation_text,omitempty"`
}

// BuildReview merges persisted answer records with the question bank
// into display-ready rows, one per question in paper order. Questions
// without a record render as skipped; records without question metadata
// render with sentinel skill/type so the review always displays.
func BuildReview(paper *model.Paper, records []model.AnswerRecord) []Item {
	recordsByQ := make(map[uuid.UUID]model.AnswerRecord, len(records))
	for _, r := range records {
		recordsByQ[r.QuestionID] = r
	}

	var items []Item
	seen := make(map[uuid.UUID]bool)

	if paper != nil {
		for _, sec := range paper.Sections {
			for _, grp := range sec.Groups {
				for _, q := range grp.Questions {
					seen[q.ID] = true
					items = append(items, buildItem(q, recordsByQ[q.ID]))
				}
			}
		}
	}

	// Records whose question vanished from the bank still render, with
	// sentinel metadata.
	for _, r := range records {
		if seen[r.QuestionID] {
			continue
		}
		items = append(items, buildItem(model.Question{
			ID:    r.QuestionID,
			Skill: model.SkillUnknown,
			Type:  model.QuestionTypeUnknown,
		}, r))
	}

	return items
}

func buildItem(q model.Question, rec model.AnswerRecord) Item {
	optionMap := BuildOptionMap(q.Options)

	selected := MapAnswerContent(optionMap, rec.SelectedOptionIDs, rec.SelectedText)
	correct := MapAnswerContent(optionMap, rec.CorrectOptionIDs, rec.CorrectText)

	answered := len(rec.SelectedOptionIDs) > 0 || strings.TrimSpace(rec.SelectedText) != ""

	skill := q.Skill
	if skill == "" {
		skill = model.SkillUnknown
	}
	qtype := q.Type
	if qtype == "" {
		qtype = model.QuestionTypeUnknown
	}

	return Item{
		QuestionID:      q.ID,
		Idx:             q.Idx,
		Skill:           skill,
		Type:            qtype,
		PromptText:      Clean(q.PromptText),
		Options:         q.Options,
		SelectedText:    Clean(selected),
		CorrectText:     Clean(correct),
		Answered:        answered,
		IsCorrect:       rec.IsCorrect,
		ExplanationText: rec.ExplanationText,
	}
}

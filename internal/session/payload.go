package session

import (
	"sort"
	"strings"
	"time"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// BuildPayload converts the current answer map snapshot into the wire
// format of the persistence service. Choice-family answers are emitted
// as selected_option_ids (split on the multi-select delimiter); all
// other answers as answer_text. A value never appears in both shapes.
// ClientRevision is the wall clock in milliseconds, the ordering hint
// persistence uses to discard stale pushes.
func (s *Session) BuildPayload() model.AutosavePayload {
	snapshot := s.answers.Snapshot()

	answers := make([]model.AnswerUpsert, 0, len(snapshot))
	for qid, value := range snapshot {
		q, ok := s.questions[qid]
		if !ok {
			// The capture layer rejects unknown ids, so restored state is
			// the only way to get here; drop rather than invent a section.
			continue
		}

		up := model.AnswerUpsert{
			QuestionID: qid,
			SectionID:  q.SectionID,
		}
		if q.Type.IsChoice() {
			if q.Type.IsMultiSelect() {
				up.SelectedOptionIDs = strings.Split(value, multiSelectDelimiter)
			} else {
				up.SelectedOptionIDs = []string{value}
			}
		} else {
			up.AnswerText = value
		}
		answers = append(answers, up)
	}

	// Deterministic order for the wire; correctness does not depend on it.
	sort.Slice(answers, func(i, j int) bool {
		qi, qj := s.questions[answers[i].QuestionID], s.questions[answers[j].QuestionID]
		if qi.Idx != qj.Idx {
			return qi.Idx < qj.Idx
		}
		return answers[i].QuestionID.String() < answers[j].QuestionID.String()
	})

	return model.AutosavePayload{
		AttemptID:      s.attempt.ID,
		Answers:        answers,
		ClientRevision: time.Now().UnixMilli(),
	}
}

package session

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/linguaprep/linguaprep-backend/internal/model"
)

// Capture errors.
var (
	ErrUnknownQuestion = errors.New("question does not belong to this attempt")
	ErrAttemptClosed   = errors.New("attempt is no longer accepting answers")
)

// multiSelectDelimiter joins option ids of a multi-select answer inside
// the single answer map value.
const multiSelectDelimiter = ","

// SetAnswer is the single mutation entry point of the answer map. Every
// capture transport (REST, WebSocket, media save) funnels through here;
// none of them holds answer state of its own. The raw value is
// normalized per question type before storage, and the debounced
// autosave is scheduled.
func (s *Session) SetAnswer(questionID uuid.UUID, raw string) error {
	if s.submit.active() {
		return ErrAttemptClosed
	}

	q, ok := s.questions[questionID]
	if !ok {
		return ErrUnknownQuestion
	}

	s.answers.Set(questionID, normalizeValue(q.Type, raw))
	s.debouncer.Run()
	return nil
}

// clearAnswer removes an entry without scheduling an autosave; used by
// the speaking recorder's reset path.
func (s *Session) clearAnswer(questionID uuid.UUID) {
	s.answers.Delete(questionID)
}

// normalizeValue canonicalizes a raw widget value for storage.
//   - Matching/heading answers keep only the option's leading token
//     ("B  The rise of rail" → "B") so the map stays small and
//     comparison-friendly.
//   - Multi-select answers become a canonical comma-joined id list.
//   - Free text (completion, essay, speaking tokens) is stored as given.
func normalizeValue(qtype model.QuestionType, raw string) string {
	switch qtype {
	case model.QuestionTypeMatching:
		return leadingToken(raw)
	case model.QuestionTypeMultiChoice:
		return canonicalIDList(raw)
	default:
		return raw
	}
}

// leadingToken extracts the first whitespace-separated field, trimming
// trailing option punctuation ("A.", "B)") to the bare id.
func leadingToken(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[0], ".):")
}

// canonicalIDList normalizes a delimiter-joined id set: trims each id,
// drops empties, de-duplicates preserving first occurrence.
func canonicalIDList(raw string) string {
	parts := strings.Split(raw, multiSelectDelimiter)
	seen := make(map[string]bool, len(parts))
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		id := strings.TrimSpace(p)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return strings.Join(ids, multiSelectDelimiter)
}

package model

// Skill enumerates the four exam skills. SkillUnknown is the sentinel
// for malformed or missing metadata so the review screen can always render.
type Skill string

const (
	SkillReading   Skill = "READING"
	SkillListening Skill = "LISTENING"
	SkillWriting   Skill = "WRITING"
	SkillSpeaking  Skill = "SPEAKING"
	SkillUnknown   Skill = "UNKNOWN"
)

// ParseSkill normalizes a raw skill string. Anything unrecognized maps to
// SkillUnknown rather than failing.
func ParseSkill(raw string) Skill {
	switch Skill(raw) {
	case SkillReading, SkillListening, SkillWriting, SkillSpeaking:
		return Skill(raw)
	default:
		return SkillUnknown
	}
}

// IsProductive reports whether the skill is graded with criterion bands
// (writing/speaking) instead of objective accuracy.
func (s Skill) IsProductive() bool {
	switch s {
	case SkillWriting, SkillSpeaking:
		return true
	case SkillReading, SkillListening, SkillUnknown:
		return false
	}
	return false
}

// AllSkills lists the four concrete skills in display order.
func AllSkills() []Skill {
	return []Skill{SkillListening, SkillReading, SkillWriting, SkillSpeaking}
}

// QuestionType enumerates gradable question kinds.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultiChoice  QuestionType = "MULTI_CHOICE"
	QuestionTypeMatching     QuestionType = "MATCHING"
	QuestionTypeCompletion   QuestionType = "COMPLETION"
	QuestionTypeEssay        QuestionType = "ESSAY"
	QuestionTypeSpeakingTask QuestionType = "SPEAKING_TASK"
	QuestionTypeUnknown      QuestionType = "UNKNOWN"
)

// ParseQuestionType normalizes a raw question type string.
func ParseQuestionType(raw string) QuestionType {
	switch QuestionType(raw) {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice, QuestionTypeMatching,
		QuestionTypeCompletion, QuestionTypeEssay, QuestionTypeSpeakingTask:
		return QuestionType(raw)
	default:
		return QuestionTypeUnknown
	}
}

// IsChoice reports whether answers for this type are option id selections.
// The payload builder uses this to discriminate selected_option_ids vs
// answer_text; a value is never emitted in both shapes.
func (t QuestionType) IsChoice() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice, QuestionTypeMatching:
		return true
	case QuestionTypeCompletion, QuestionTypeEssay, QuestionTypeSpeakingTask, QuestionTypeUnknown:
		return false
	}
	return false
}

// IsMultiSelect reports whether the answer value may carry several option ids.
func (t QuestionType) IsMultiSelect() bool {
	return t == QuestionTypeMultiChoice
}

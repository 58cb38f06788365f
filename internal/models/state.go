package models

// PromptKind enumerates what free-text input is currently expected
// from a user.
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptMoodScore
	PromptMoodNote
	PromptQuestionAnswer
)

func (k PromptKind) String() string {
	switch k {
	case PromptMoodScore:
		return "mood_score"
	case PromptMoodNote:
		return "mood_note"
	case PromptQuestionAnswer:
		return "question_answer"
	default:
		return "none"
	}
}

// PendingPrompt is the single outstanding free-text expectation for a
// user. Category and Question are set only for PromptQuestionAnswer.
// Held in memory only; a restart forgets in-flight prompts.
type PendingPrompt struct {
	Kind     PromptKind
	Category string
	Question string
}

// RitualKind distinguishes the two daily proactive messages.
type RitualKind string

const (
	RitualMorning RitualKind = "morning"
	RitualNight   RitualKind = "night"
)

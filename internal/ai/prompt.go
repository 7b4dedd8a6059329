package ai

import "strings"

// DefaultMaxPromptTurns bounds how many prior turns the prompt injects. This
// is deliberately independent of the context assembler's fetch limit: the
// assembler bounds what is read from the store, the builder bounds what goes
// to the model. There is no token budgeting beyond this fixed turn count.
const DefaultMaxPromptTurns = 3

// personaPrompt is constant across calls regardless of the caller's language
// configuration; the model may still reply in the student's language.
const personaPrompt = "You are an AI tutor helping a student prepare for competitive exams. " +
	"Stay on study topics, be factually accurate, and say so plainly when you are not sure. " +
	"Keep answers structured and concise so they are usable for revision. "

// Turn is one role-tagged unit of conversation as the prompt sees it.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildTutorPrompt renders the persona block, the optional subject line, up
// to maxTurns trailing turns and the new message into a single prompt string.
// maxTurns <= 0 falls back to DefaultMaxPromptTurns.
func BuildTutorPrompt(subject string, turns []Turn, message string, maxTurns int) string {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxPromptTurns
	}

	var b strings.Builder
	b.WriteString(personaPrompt)

	if subject != "" {
		b.WriteString("The subject being discussed is " + subject + ". ")
	}

	if len(turns) > 0 {
		b.WriteString("Previous context:\n")
		start := 0
		if len(turns) > maxTurns {
			start = len(turns) - maxTurns
		}
		for _, turn := range turns[start:] {
			b.WriteString(turn.Role + ": " + turn.Content + "\n")
		}
	}

	b.WriteString("\nStudent: " + message + "\nTutor:")
	return b.String()
}

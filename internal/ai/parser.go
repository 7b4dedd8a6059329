package ai

import "strings"

// Section labels the digest prompt asks the model to emit. Matching is exact
// prefix match on the trimmed line.
const (
	labelSummary            = "SUMMARY:"
	labelKeyConcepts        = "KEY CONCEPTS:"
	labelSyllabusConnection = "SYLLABUS CONNECTION:"
	labelPotentialQuestions = "POTENTIAL QUESTIONS:"
)

// StructuredResponse always carries all four fields; a malformed model reply
// degrades to empty fields rather than an error.
type StructuredResponse struct {
	Summary            string   `json:"summary"`
	KeyConcepts        []string `json:"key_concepts"`
	SyllabusConnection string   `json:"syllabus_connection"`
	PotentialQuestions []string `json:"potential_questions"`
}

// ParseStructured scans model output line by line, switching the current
// section on a label match and accumulating everything else into it. Text
// sections concatenate with a separating space; list sections take one entry
// per line that starts with the expected marker ("-" for concepts, a digit
// for questions), marker stripped. Lines before the first label or under an
// unknown label are dropped. Best effort by design, never an error.
func ParseStructured(text string) StructuredResponse {
	out := StructuredResponse{
		KeyConcepts:        []string{},
		PotentialQuestions: []string{},
	}

	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, labelSummary):
			section = labelSummary
		case strings.HasPrefix(line, labelKeyConcepts):
			section = labelKeyConcepts
		case strings.HasPrefix(line, labelSyllabusConnection):
			section = labelSyllabusConnection
		case strings.HasPrefix(line, labelPotentialQuestions):
			section = labelPotentialQuestions
		default:
			switch section {
			case labelSummary:
				out.Summary += line + " "
			case labelKeyConcepts:
				if strings.HasPrefix(line, "-") {
					out.KeyConcepts = append(out.KeyConcepts, strings.TrimSpace(line[1:]))
				}
			case labelSyllabusConnection:
				out.SyllabusConnection += line + " "
			case labelPotentialQuestions:
				if line[0] >= '0' && line[0] <= '9' {
					out.PotentialQuestions = append(out.PotentialQuestions, stripListNumber(line))
				}
			}
		}
	}

	out.Summary = strings.TrimSpace(out.Summary)
	out.SyllabusConnection = strings.TrimSpace(out.SyllabusConnection)
	return out
}

// IsEmpty reports whether nothing was recognized, which callers log as a
// parse degradation signal.
func (r StructuredResponse) IsEmpty() bool {
	return r.Summary == "" && r.SyllabusConnection == "" &&
		len(r.KeyConcepts) == 0 && len(r.PotentialQuestions) == 0
}

func stripListNumber(line string) string {
	trimmed := strings.TrimLeft(line, "0123456789")
	trimmed = strings.TrimPrefix(trimmed, ".")
	trimmed = strings.TrimPrefix(trimmed, ")")
	return strings.TrimSpace(trimmed)
}

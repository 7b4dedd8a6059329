package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const wellFormedDigest = `SUMMARY:
India and the US signed a defense agreement.
It covers technology transfer.

KEY CONCEPTS:
- Defense cooperation
- Technology transfer

SYLLABUS CONNECTION:
Relevant to GS Paper 2 international relations.

POTENTIAL QUESTIONS:
1. Discuss the significance of the agreement.
2. How does technology transfer affect indigenization?
`

func TestParseStructuredWellFormed(t *testing.T) {
	got := ParseStructured(wellFormedDigest)

	assert.Equal(t, "India and the US signed a defense agreement. It covers technology transfer.", got.Summary)
	assert.Equal(t, []string{"Defense cooperation", "Technology transfer"}, got.KeyConcepts)
	assert.Equal(t, "Relevant to GS Paper 2 international relations.", got.SyllabusConnection)
	assert.Equal(t, []string{
		"Discuss the significance of the agreement.",
		"How does technology transfer affect indigenization?",
	}, got.PotentialQuestions)
	assert.False(t, got.IsEmpty())
}

func TestParseStructuredNoLabels(t *testing.T) {
	got := ParseStructured("The model decided to freestyle today.\nNo sections at all.")

	assert.Empty(t, got.Summary)
	assert.Empty(t, got.SyllabusConnection)
	assert.Empty(t, got.KeyConcepts)
	assert.Empty(t, got.PotentialQuestions)
	assert.True(t, got.IsEmpty())
}

func TestParseStructuredDropsUnlabeledLines(t *testing.T) {
	got := ParseStructured("preamble before any label\nSUMMARY:\nactual summary\nEXTRA SECTION:\nignored entirely")

	assert.Equal(t, "actual summary EXTRA SECTION: ignored entirely", got.Summary)
}

func TestParseStructuredListMarkers(t *testing.T) {
	got := ParseStructured(`KEY CONCEPTS:
- Federalism
not a bullet, dropped
-   Spaced concept

POTENTIAL QUESTIONS:
1. First question
no leading digit, dropped
12) Twelfth question`)

	assert.Equal(t, []string{"Federalism", "Spaced concept"}, got.KeyConcepts)
	assert.Equal(t, []string{"First question", "Twelfth question"}, got.PotentialQuestions)
}

func TestParseStructuredEmptyInput(t *testing.T) {
	got := ParseStructured("")

	assert.True(t, got.IsEmpty())
	assert.NotNil(t, got.KeyConcepts)
	assert.NotNil(t, got.PotentialQuestions)
}

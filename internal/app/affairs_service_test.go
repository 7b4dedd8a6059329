package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examtutor/internal/ai"
	"examtutor/internal/news"
)

type fakeFetcher struct {
	articles []news.Article
}

func (f *fakeFetcher) FetchHeadlines(ctx context.Context) []news.Article {
	return f.articles
}

type fakeQueue struct {
	jobs   []news.DigestJob
	failOn string
	pubErr error
}

func (q *fakeQueue) Publish(ctx context.Context, job news.DigestJob) error {
	if q.failOn != "" && job.Category == q.failOn {
		return q.pubErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestRefreshQueuesOneJobPerSource(t *testing.T) {
	fetcher := &fakeFetcher{articles: []news.Article{
		{Title: "Policy cleared", Source: "The Hindu"},
		{Title: "Monsoon update", Source: "PIB"},
		{Title: "Budget session", Source: "The Hindu"},
	}}
	queue := &fakeQueue{}
	service := NewAffairsService(nil, fetcher, queue)

	queued, err := service.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	require.Len(t, queue.jobs, 2)

	bySource := make(map[string]int)
	for _, job := range queue.jobs {
		bySource[job.Category] = len(job.Articles)
	}
	assert.Equal(t, 2, bySource["The Hindu"])
	assert.Equal(t, 1, bySource["PIB"])
}

func TestRefreshNoHeadlines(t *testing.T) {
	service := NewAffairsService(nil, &fakeFetcher{}, &fakeQueue{})

	queued, err := service.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
}

func TestRefreshPublishFailure(t *testing.T) {
	fetcher := &fakeFetcher{articles: []news.Article{{Title: "x", Source: "PIB"}}}
	queue := &fakeQueue{failOn: "PIB", pubErr: errors.New("broker down")}
	service := NewAffairsService(nil, fetcher, queue)

	_, err := service.Refresh(context.Background())
	assert.EqualError(t, err, "broker down")
}

// The digest prompt must emit exactly the labels the parser scans for, or the
// worker pipeline silently degrades.
func TestBuildDigestPromptRoundTripsThroughParser(t *testing.T) {
	prompt := BuildDigestPrompt([]news.Article{
		{Title: "Policy cleared", Summary: "Cabinet approved it."},
		{Title: "Monsoon update", Summary: "Rainfall above normal."},
	})

	assert.Contains(t, prompt, "Article 1:\nTitle: Policy cleared\nSummary: Cabinet approved it.")
	assert.Contains(t, prompt, "Article 2:\nTitle: Monsoon update\nSummary: Rainfall above normal.")

	// The format example in the prompt itself parses into all four sections.
	parsed := ai.ParseStructured(prompt[strings.Index(prompt, "SUMMARY:"):])
	assert.NotEmpty(t, parsed.Summary)
	assert.NotEmpty(t, parsed.KeyConcepts)
	assert.NotEmpty(t, parsed.SyllabusConnection)
	assert.NotEmpty(t, parsed.PotentialQuestions)
}

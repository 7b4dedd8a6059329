package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"examtutor/internal/model"
	"examtutor/internal/news"
	"examtutor/internal/repository"
)

var ErrAffairNotFound = errors.New("current affair not found")

type DigestQueue interface {
	Publish(ctx context.Context, job news.DigestJob) error
}

type HeadlineFetcher interface {
	FetchHeadlines(ctx context.Context) []news.Article
}

// AffairsService lists digested current affairs and kicks off refresh runs.
// The heavy part of a refresh (generation + parsing + persistence) happens in
// the digest worker; this service only fetches headlines and queues jobs.
type AffairsService struct {
	affairRepo *repository.CurrentAffairRepository
	fetcher    HeadlineFetcher
	queue      DigestQueue
}

func NewAffairsService(affairRepo *repository.CurrentAffairRepository, fetcher HeadlineFetcher, queue DigestQueue) *AffairsService {
	return &AffairsService{
		affairRepo: affairRepo,
		fetcher:    fetcher,
		queue:      queue,
	}
}

func (s *AffairsService) List(start, end *time.Time, category string) ([]model.CurrentAffair, error) {
	return s.affairRepo.List(start, end, category)
}

func (s *AffairsService) Get(affairID uint) (*model.CurrentAffair, error) {
	if affairID == 0 {
		return nil, ErrInvalidInput
	}
	affair, err := s.affairRepo.GetByID(affairID)
	if err != nil {
		return nil, err
	}
	if affair == nil {
		return nil, ErrAffairNotFound
	}
	return affair, nil
}

// Refresh fetches current headlines and enqueues one digest job per source.
// Returns the number of jobs queued.
func (s *AffairsService) Refresh(ctx context.Context) (int, error) {
	articles := s.fetcher.FetchHeadlines(ctx)
	if len(articles) == 0 {
		return 0, nil
	}

	bySource := make(map[string][]news.Article)
	for _, article := range articles {
		bySource[article.Source] = append(bySource[article.Source], article)
	}

	queued := 0
	for source, batch := range bySource {
		job := news.DigestJob{Category: source, Articles: batch}
		if err := s.queue.Publish(ctx, job); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// BuildDigestPrompt renders the structured-summary prompt for a batch of
// articles. The labels here must match what the response parser scans for.
func BuildDigestPrompt(articles []news.Article) string {
	var input strings.Builder
	for i, article := range articles {
		if i > 0 {
			input.WriteString("\n\n")
		}
		fmt.Fprintf(&input, "Article %d:\nTitle: %s\nSummary: %s", i+1, article.Title, article.Summary)
	}

	return `You are an expert UPSC tutor specializing in current affairs analysis.
Your task is to analyze the following news articles and provide:
1. A concise summary (max 150 words)
2. Key concepts and terms relevant for UPSC preparation
3. How this news connects to UPSC syllabus topics
4. Potential questions that could be asked in UPSC exams

Format your response as follows:
SUMMARY:
[Your summary here]

KEY CONCEPTS:
- [Concept 1]
- [Concept 2]

SYLLABUS CONNECTION:
[Explain how this connects to UPSC syllabus]

POTENTIAL QUESTIONS:
1. [Question 1]
2. [Question 2]

Here are the news articles to analyze:

` + input.String()
}

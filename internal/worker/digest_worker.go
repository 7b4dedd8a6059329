package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"examtutor/internal/ai"
	"examtutor/internal/app"
	"examtutor/internal/model"
	"examtutor/internal/news"
	"examtutor/internal/repository"
)

// DigestWorker consumes queued headline batches, runs them through the
// generation endpoint, parses the labeled sections and persists one
// CurrentAffair per batch. Generation failures nack the delivery; a parse
// that recognizes nothing is a quality signal, logged and persisted anyway.
type DigestWorker struct {
	conn       *amqp.Connection
	affairRepo *repository.CurrentAffairRepository
	generator  app.Generator
	genOptions ai.GenerateOptions
	queueName  string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDigestWorker(
	conn *amqp.Connection,
	affairRepo *repository.CurrentAffairRepository,
	generator app.Generator,
	genOptions ai.GenerateOptions,
	queueName string,
) *DigestWorker {
	return &DigestWorker{
		conn:       conn,
		affairRepo: affairRepo,
		generator:  generator,
		genOptions: genOptions,
		queueName:  queueName,
	}
}

func (w *DigestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job news.DigestJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("worker decode digest job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.processJob(workerCtx, job); err != nil {
					log.Printf("worker process digest job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *DigestWorker) processJob(ctx context.Context, job news.DigestJob) error {
	if len(job.Articles) == 0 {
		return nil
	}

	prompt := app.BuildDigestPrompt(job.Articles)
	result, err := w.generator.Generate(ctx, prompt, w.genOptions)
	if err != nil {
		return fmt.Errorf("generate digest failed: %w", err)
	}

	parsed := ai.ParseStructured(result.Text)
	if parsed.IsEmpty() {
		log.Printf("digest for %s: no labeled sections recognized", job.Category)
	}

	affair := &model.CurrentAffair{
		Date:        time.Now(),
		Category:    job.Category,
		Title:       digestTitle(job),
		Summary:     parsed.Summary,
		KeyConcepts: strings.Join(parsed.KeyConcepts, ", "),
		UsageHint:   usageHint(parsed),
	}
	if affair.Summary == "" {
		affair.Summary = news.CleanText(result.Text)
	}
	return w.affairRepo.Create(affair)
}

func (w *DigestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func digestTitle(job news.DigestJob) string {
	return fmt.Sprintf("%s digest - %s", job.Category, time.Now().Format("2 Jan 2006"))
}

func usageHint(parsed ai.StructuredResponse) string {
	var b strings.Builder
	b.WriteString(parsed.SyllabusConnection)
	for i, q := range parsed.PotentialQuestions {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, q)
	}
	return b.String()
}

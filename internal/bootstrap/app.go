package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"examtutor/internal/ai"
	"examtutor/internal/app"
	"examtutor/internal/config"
	"examtutor/internal/model"
	mysqlClient "examtutor/internal/platform/mysql"
	rabbitmqClient "examtutor/internal/platform/rabbitmq"
	redisClient "examtutor/internal/platform/redis"
	"examtutor/internal/repository"
	"examtutor/internal/worker"
)

type App struct {
	Config       *config.Config
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	LLM          app.Generator
	DigestWorker *worker.DigestWorker

	StartedAt time.Time
}

// newGenerator resolves the configured provider. The credential is checked
// here exactly once; a missing key fails the whole process, never a turn.
func newGenerator(cfg *config.Config) (app.Generator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return ai.NewOpenAICompatibleClient(ai.OpenAIConfig{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		})
	default:
		return ai.NewGeminiClient(ai.GeminiConfig{
			BaseURL: cfg.Gemini.BaseURL,
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			Timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
		})
	}
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Message{},
		&model.Response{},
		&model.Subject{},
		&model.Topic{},
		&model.Question{},
		&model.StudyMaterial{},
		&model.CurrentAffair{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	llm, err := newGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure llm client failed: %w", err)
	}

	affairRepo := repository.NewCurrentAffairRepository(mysqlDB)
	digestWorker := worker.NewDigestWorker(mqConn, affairRepo, llm, ai.GenerateOptions{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		TopK:        cfg.LLM.TopK,
	}, cfg.RabbitMQ.DigestQueue)
	if err := digestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start digest worker failed: %w", err)
	}

	return &App{
		Config:       cfg,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		LLM:          llm,
		DigestWorker: digestWorker,
		StartedAt:    time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DigestWorker != nil {
		a.DigestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"examtutor/internal/ai"
	appsvc "examtutor/internal/app"
	"examtutor/internal/bootstrap"
	"examtutor/internal/cache"
	"examtutor/internal/news"
	rabbitmqClient "examtutor/internal/platform/rabbitmq"
	"examtutor/internal/repository"
	"examtutor/internal/transport/http/handler"
	"examtutor/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	responseRepo := repository.NewResponseRepository(app.MySQL)
	subjectRepo := repository.NewSubjectRepository(app.MySQL)
	topicRepo := repository.NewTopicRepository(app.MySQL)
	questionRepo := repository.NewQuestionRepository(app.MySQL)
	materialRepo := repository.NewStudyMaterialRepository(app.MySQL)
	affairRepo := repository.NewCurrentAffairRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		responseRepo,
		app.LLM,
		historyCache,
		ai.GenerateOptions{
			MaxTokens:   app.Config.LLM.MaxTokens,
			Temperature: app.Config.LLM.Temperature,
			TopP:        app.Config.LLM.TopP,
			TopK:        app.Config.LLM.TopK,
		},
		app.Config.Chat.ContextLimit,
		app.Config.Chat.PromptTurns,
	)
	studyService := appsvc.NewStudyService(subjectRepo, topicRepo, questionRepo, materialRepo)
	affairsService := appsvc.NewAffairsService(
		affairRepo,
		news.NewFetcher(nil, app.Config.News.MaxArticlesPerFeed),
		rabbitmqClient.NewDigestPublisher(app.MQConn, app.Config.RabbitMQ.DigestQueue),
	)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	studyHandler := handler.NewStudyHandler(studyService)
	affairsHandler := handler.NewAffairsHandler(affairsService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.GET("/sessions/:id", chatHandler.GetSession)
	chatGroup.PATCH("/sessions/:id", chatHandler.UpdateSession)
	chatGroup.DELETE("/sessions/:id", chatHandler.DeleteSession)
	chatGroup.POST("/sessions/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/sessions/:id/messages", chatHandler.ListMessages)
	chatGroup.GET("/messages/:id", chatHandler.GetMessage)
	chatGroup.DELETE("/messages/:id", chatHandler.DeleteMessage)
	chatGroup.GET("/messages/:id/response", chatHandler.GetResponse)
	chatGroup.POST("/messages/:id/feedback", chatHandler.SubmitFeedback)

	studyGroup := v1.Group("/study")
	studyGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	studyGroup.GET("/subjects", studyHandler.ListSubjects)
	studyGroup.POST("/subjects", studyHandler.CreateSubject)
	studyGroup.GET("/subjects/:id", studyHandler.GetSubject)
	studyGroup.GET("/subjects/:id/topics", studyHandler.ListTopics)
	studyGroup.POST("/topics", studyHandler.CreateTopic)
	studyGroup.GET("/topics/:id/questions", studyHandler.ListQuestions)
	studyGroup.POST("/questions", studyHandler.CreateQuestion)
	studyGroup.GET("/topics/:id/materials", studyHandler.ListMaterials)
	studyGroup.POST("/topics/:id/materials", studyHandler.UploadMaterial)

	affairsGroup := v1.Group("/current-affairs")
	affairsGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	affairsGroup.GET("", affairsHandler.List)
	affairsGroup.GET("/:id", affairsHandler.Get)
	affairsGroup.POST("/refresh", affairsHandler.Refresh)

	return router
}

package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"examtutor/internal/ai"
	"examtutor/internal/model"
	"examtutor/internal/repository"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotActive   = errors.New("session is not active")
	ErrInvalidTransition  = errors.New("invalid session status transition")
	ErrMessageNotFound    = errors.New("message not found")
	ErrMessageEmpty       = errors.New("message content is empty")
	ErrResponseNotFound   = errors.New("no response recorded for message")
	ErrResponseExists     = errors.New("message already has a response")
	ErrGenerationInFlight = errors.New("a generation is already in flight for this session")
)

// Store dependencies are consumer-defined so the pipeline can run against
// fakes in tests; the GORM repositories satisfy them in production.
type SessionStore interface {
	Create(session *model.Session) error
	ListByUserID(userID uint) ([]model.Session, error)
	GetByIDAndUserID(sessionID, userID uint) (*model.Session, error)
	Update(session *model.Session) error
	DeleteByIDAndUserID(sessionID, userID uint) error
}

type MessageStore interface {
	Create(message *model.Message) error
	GetByID(messageID uint) (*model.Message, error)
	ListBySessionID(sessionID uint, limit int) ([]model.Message, error)
	ListRecentBySessionID(sessionID uint, limit int) ([]model.Message, error)
	DeleteByID(messageID uint) error
	DeleteBySessionID(sessionID uint) error
}

type ResponseStore interface {
	Create(response *model.Response) error
	GetByMessageID(messageID uint) (*model.Response, error)
	UpdateFeedback(responseID uint, feedback model.UserFeedback, notes string) error
	DeleteBySessionID(sessionID uint) error
	DeleteByMessageID(messageID uint) error
}

type Generator interface {
	Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error)
	Model() string
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// ConversationContext is the transient bounded-history view assembled before
// each generation call. It is never persisted. Degraded marks a context that
// could not be fully read; callers treat it as valid but uninformative.
type ConversationContext struct {
	Subject      string    `json:"subject,omitempty"`
	Turns        []ai.Turn `json:"turns"`
	Degraded     bool      `json:"degraded,omitempty"`
	DegradedNote string    `json:"degraded_note,omitempty"`
}

type ChatService struct {
	sessions     SessionStore
	messages     MessageStore
	responses    ResponseStore
	generator    Generator
	historyCache HistoryCache
	genOptions   ai.GenerateOptions
	contextLimit int
	promptTurns  int

	// inflight enforces at most one generation call per session; a second
	// concurrent turn is rejected rather than interleaved, because it would
	// read history the first turn is about to write.
	mu       sync.Mutex
	inflight map[uint]struct{}
}

func NewChatService(
	sessions SessionStore,
	messages MessageStore,
	responses ResponseStore,
	generator Generator,
	historyCache HistoryCache,
	genOptions ai.GenerateOptions,
	contextLimit int,
	promptTurns int,
) *ChatService {
	if contextLimit <= 0 {
		contextLimit = 5
	}
	if promptTurns <= 0 {
		promptTurns = ai.DefaultMaxPromptTurns
	}
	return &ChatService{
		sessions:     sessions,
		messages:     messages,
		responses:    responses,
		generator:    generator,
		historyCache: historyCache,
		genOptions:   genOptions,
		contextLimit: contextLimit,
		promptTurns:  promptTurns,
		inflight:     make(map[uint]struct{}),
	}
}

type CreateSessionInput struct {
	UserID      uint
	Title       string
	ExamType    model.ExamType
	SubjectType model.SubjectType
	SubjectID   *uint
	TopicID     *uint
}

func (s *ChatService) CreateSession(input CreateSessionInput) (*model.Session, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if input.ExamType == "" {
		input.ExamType = model.ExamUPSCCSE
	}
	if input.SubjectType == "" {
		input.SubjectType = model.SubjectGeneral
	}
	if !input.ExamType.Valid() || !input.SubjectType.Valid() {
		return nil, ErrInvalidInput
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Chat"
	}

	session := &model.Session{
		UserID:          input.UserID,
		Title:           title,
		Status:          model.SessionActive,
		ExamType:        input.ExamType,
		SubjectType:     input.SubjectType,
		SubjectID:       input.SubjectID,
		TopicID:         input.TopicID,
		LastInteraction: time.Now(),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions(userID uint) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessions.ListByUserID(userID)
}

func (s *ChatService) GetSession(userID, sessionID uint) (*model.Session, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessions.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

type UpdateSessionInput struct {
	UserID    uint
	SessionID uint
	Title     string
	Status    model.SessionStatus
}

func (s *ChatService) UpdateSession(input UpdateSessionInput) (*model.Session, error) {
	session, err := s.GetSession(input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		session.Title = title
	}
	if input.Status != "" && input.Status != session.Status {
		if !session.Status.CanTransition(input.Status) {
			return nil, ErrInvalidTransition
		}
		session.Status = input.Status
	}

	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) DeleteSession(userID, sessionID uint) error {
	if _, err := s.GetSession(userID, sessionID); err != nil {
		return err
	}
	if err := s.responses.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.messages.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteByIDAndUserID(sessionID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(context.Background(), sessionID)
	}
	return nil
}

type SendMessageInput struct {
	UserID        uint
	SessionID     uint
	Content       string
	QueryCategory model.QueryCategory
	ParentID      *uint
}

type SendMessageResult struct {
	Message  model.Message  `json:"message"`
	Response model.Response `json:"response"`
}

// SendMessage runs one chat turn end to end: assemble bounded context, build
// the prompt, call the generation endpoint once, record the response. If
// generation fails after the user message was persisted, the message stays
// without a response and the caller may resubmit as a new message.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}
	if input.QueryCategory == "" {
		input.QueryCategory = model.QueryGeneral
	}
	if !input.QueryCategory.Valid() {
		return nil, ErrInvalidInput
	}

	session, err := s.GetSession(input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionActive {
		return nil, ErrSessionNotActive
	}

	if !s.acquire(session.ID) {
		return nil, ErrGenerationInFlight
	}
	defer s.release(session.ID)

	convCtx := s.AssembleContext(ctx, session, s.contextLimit)
	if convCtx.Degraded {
		log.Printf("session %d: degraded context: %s", session.ID, convCtx.DegradedNote)
	}

	prompt := ai.BuildTutorPrompt(convCtx.Subject, convCtx.Turns, content, s.promptTurns)

	userMessage := &model.Message{
		SessionID:       session.ID,
		Type:            model.MessageUserQuery,
		Content:         content,
		QueryCategory:   input.QueryCategory,
		ParentMessageID: input.ParentID,
		CreatedAt:       time.Now(),
	}
	if err := s.messages.Create(userMessage); err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, session.ID)

	started := time.Now()
	result, err := s.generator.Generate(ctx, prompt, s.genOptions)
	if err != nil {
		return nil, err
	}

	response, err := s.recordResponse(userMessage.ID, result, time.Since(started))
	if err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, session.ID)

	session.LastInteraction = time.Now()
	if err := s.sessions.Update(session); err != nil {
		log.Printf("session %d: update last interaction failed: %v", session.ID, err)
	}

	return &SendMessageResult{Message: *userMessage, Response: *response}, nil
}

// AssembleContext builds the bounded conversational context for a session:
// the limit most recent messages in chronological order, each user turn
// followed by its assistant turn when a response exists. Store failures
// degrade to an empty or partial context instead of failing the turn.
func (s *ChatService) AssembleContext(ctx context.Context, session *model.Session, limit int) ConversationContext {
	if limit <= 0 {
		limit = s.contextLimit
	}

	conv := ConversationContext{
		Subject: subjectName(session),
		Turns:   []ai.Turn{},
	}

	recent, err := s.recentMessages(ctx, session.ID, limit)
	if err != nil {
		conv.Degraded = true
		conv.DegradedNote = err.Error()
		return conv
	}

	for _, msg := range recent {
		conv.Turns = append(conv.Turns, ai.Turn{Role: "user", Content: msg.Content})

		response, err := s.responses.GetByMessageID(msg.ID)
		if err != nil {
			conv.Degraded = true
			conv.DegradedNote = err.Error()
			continue
		}
		if response != nil {
			conv.Turns = append(conv.Turns, ai.Turn{Role: "assistant", Content: response.ResponseText})
		}
	}
	return conv
}

// recentMessages reads through the cache when it is clean, falling back to
// the store. The returned slice is chronological.
func (s *ChatService) recentMessages(ctx context.Context, sessionID uint, limit int) ([]model.Message, error) {
	if s.historyCache != nil {
		if dirty, err := s.historyCache.IsDirty(ctx, sessionID); err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				if len(cached) > limit {
					cached = cached[len(cached)-limit:]
				}
				return cached, nil
			}
		}
	}

	recent, err := s.messages.ListRecentBySessionID(sessionID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	if s.historyCache != nil {
		if dirty, err := s.historyCache.IsDirty(ctx, sessionID); err == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, recent)
		}
	}
	return recent, nil
}

// recordResponse persists exactly one response for the message with derived
// structure flags. Quality scores stay unset; no scorer runs here.
func (s *ChatService) recordResponse(messageID uint, result *ai.GenerateResult, elapsed time.Duration) (*model.Response, error) {
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, ErrMessageEmpty
	}

	hasCode, hasTables, hasLinks := deriveStructure(text)
	response := &model.Response{
		MessageID:        messageID,
		ResponseText:     text,
		ResponseType:     classifyResponseType(hasCode, hasTables),
		ModelName:        s.generator.Model(),
		TokensUsed:       result.TokensUsed,
		ProcessingTimeMS: elapsed.Milliseconds(),
		HasCode:          hasCode,
		HasTables:        hasTables,
		HasLinks:         hasLinks,
		UserFeedback:     model.FeedbackNone,
	}
	if err := s.responses.Create(response); err != nil {
		if errors.Is(err, repository.ErrResponseExists) {
			return nil, ErrResponseExists
		}
		return nil, err
	}
	return response, nil
}

func (s *ChatService) ListMessages(userID, sessionID uint, limit int) ([]model.Message, error) {
	if _, err := s.GetSession(userID, sessionID); err != nil {
		return nil, err
	}
	return s.messages.ListBySessionID(sessionID, limit)
}

func (s *ChatService) GetMessage(userID, messageID uint) (*model.Message, error) {
	if userID == 0 || messageID == 0 {
		return nil, ErrInvalidInput
	}
	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	// Ownership check goes through the session; a non-owner sees not-found.
	session, err := s.sessions.GetByIDAndUserID(message.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrMessageNotFound
	}
	return message, nil
}

func (s *ChatService) DeleteMessage(userID, messageID uint) error {
	message, err := s.GetMessage(userID, messageID)
	if err != nil {
		return err
	}
	if err := s.responses.DeleteByMessageID(message.ID); err != nil {
		return err
	}
	if err := s.messages.DeleteByID(message.ID); err != nil {
		return err
	}
	s.invalidateHistory(context.Background(), message.SessionID)
	return nil
}

func (s *ChatService) GetResponse(userID, messageID uint) (*model.Response, error) {
	message, err := s.GetMessage(userID, messageID)
	if err != nil {
		return nil, err
	}
	response, err := s.responses.GetByMessageID(message.ID)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, ErrResponseNotFound
	}
	return response, nil
}

type FeedbackInput struct {
	UserID    uint
	MessageID uint
	Feedback  model.UserFeedback
	Notes     string
}

// SubmitFeedback updates only the feedback fields of the message's response.
func (s *ChatService) SubmitFeedback(input FeedbackInput) (*model.Response, error) {
	if !input.Feedback.Valid() {
		return nil, ErrInvalidInput
	}
	response, err := s.GetResponse(input.UserID, input.MessageID)
	if err != nil {
		return nil, err
	}
	if err := s.responses.UpdateFeedback(response.ID, input.Feedback, input.Notes); err != nil {
		return nil, err
	}
	response.UserFeedback = input.Feedback
	response.FeedbackNotes = input.Notes
	return response, nil
}

func (s *ChatService) acquire(sessionID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[sessionID]; busy {
		return false
	}
	s.inflight[sessionID] = struct{}{}
	return true
}

func (s *ChatService) release(sessionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, sessionID)
}

func (s *ChatService) invalidateHistory(ctx context.Context, sessionID uint) {
	if s.historyCache == nil {
		return
	}
	_ = s.historyCache.MarkDirty(ctx, sessionID)
	_ = s.historyCache.DeleteHistory(ctx, sessionID)
}

func subjectName(session *model.Session) string {
	if session.SubjectType == "" || session.SubjectType == model.SubjectGeneral {
		return ""
	}
	return displayName(string(session.SubjectType))
}

func displayName(code string) string {
	words := strings.Split(code, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func deriveStructure(text string) (hasCode, hasTables, hasLinks bool) {
	hasCode = strings.Contains(text, "```")
	hasLinks = strings.Contains(text, "http://") || strings.Contains(text, "https://")
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2 {
			hasTables = true
			break
		}
	}
	return hasCode, hasTables, hasLinks
}

func classifyResponseType(hasCode, hasTables bool) model.ResponseType {
	switch {
	case hasCode && hasTables:
		return model.ResponseMixed
	case hasCode:
		return model.ResponseCode
	case hasTables:
		return model.ResponseTable
	}
	return model.ResponseText
}

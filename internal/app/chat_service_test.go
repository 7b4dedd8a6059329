package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examtutor/internal/ai"
	"examtutor/internal/model"
	"examtutor/internal/repository"
)

type fakeSessionStore struct {
	nextID   uint
	sessions map[uint]*model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uint]*model.Session)}
}

func (s *fakeSessionStore) Create(session *model.Session) error {
	s.nextID++
	session.ID = s.nextID
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *fakeSessionStore) ListByUserID(userID uint) ([]model.Session, error) {
	var out []model.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *fakeSessionStore) GetByIDAndUserID(sessionID, userID uint) (*model.Session, error) {
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) Update(session *model.Session) error {
	if _, ok := s.sessions[session.ID]; !ok {
		return errors.New("session missing")
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *fakeSessionStore) DeleteByIDAndUserID(sessionID, userID uint) error {
	delete(s.sessions, sessionID)
	return nil
}

type fakeMessageStore struct {
	nextID   uint
	messages []model.Message
	listErr  error
}

func (s *fakeMessageStore) Create(message *model.Message) error {
	s.nextID++
	message.ID = s.nextID
	s.messages = append(s.messages, *message)
	return nil
}

func (s *fakeMessageStore) GetByID(messageID uint) (*model.Message, error) {
	for _, msg := range s.messages {
		if msg.ID == messageID {
			copied := msg
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeMessageStore) ListBySessionID(sessionID uint, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeMessageStore) ListRecentBySessionID(sessionID uint, limit int) ([]model.Message, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var chrono []model.Message
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			chrono = append(chrono, msg)
		}
	}
	if limit > 0 && len(chrono) > limit {
		chrono = chrono[len(chrono)-limit:]
	}
	out := make([]model.Message, 0, len(chrono))
	for i := len(chrono) - 1; i >= 0; i-- {
		out = append(out, chrono[i])
	}
	return out, nil
}

func (s *fakeMessageStore) DeleteByID(messageID uint) error {
	for i, msg := range s.messages {
		if msg.ID == messageID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeMessageStore) DeleteBySessionID(sessionID uint) error {
	var kept []model.Message
	for _, msg := range s.messages {
		if msg.SessionID != sessionID {
			kept = append(kept, msg)
		}
	}
	s.messages = kept
	return nil
}

type fakeResponseStore struct {
	nextID    uint
	byMessage map[uint]*model.Response
	getErr    error
}

func newFakeResponseStore() *fakeResponseStore {
	return &fakeResponseStore{byMessage: make(map[uint]*model.Response)}
}

func (s *fakeResponseStore) Create(response *model.Response) error {
	if _, ok := s.byMessage[response.MessageID]; ok {
		return repository.ErrResponseExists
	}
	s.nextID++
	response.ID = s.nextID
	copied := *response
	s.byMessage[response.MessageID] = &copied
	return nil
}

func (s *fakeResponseStore) GetByMessageID(messageID uint) (*model.Response, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	response, ok := s.byMessage[messageID]
	if !ok {
		return nil, nil
	}
	copied := *response
	return &copied, nil
}

func (s *fakeResponseStore) UpdateFeedback(responseID uint, feedback model.UserFeedback, notes string) error {
	for _, response := range s.byMessage {
		if response.ID == responseID {
			response.UserFeedback = feedback
			response.FeedbackNotes = notes
			return nil
		}
	}
	return errors.New("response missing")
}

func (s *fakeResponseStore) DeleteBySessionID(sessionID uint) error { return nil }

func (s *fakeResponseStore) DeleteByMessageID(messageID uint) error {
	delete(s.byMessage, messageID)
	return nil
}

type fakeGenerator struct {
	generate func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
	return g.generate(ctx, prompt, opts)
}

func (g *fakeGenerator) Model() string { return "gemini-test" }

type chatFixture struct {
	service   *ChatService
	sessions  *fakeSessionStore
	messages  *fakeMessageStore
	responses *fakeResponseStore
	generator *fakeGenerator
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		sessions:  newFakeSessionStore(),
		messages:  &fakeMessageStore{},
		responses: newFakeResponseStore(),
		generator: &fakeGenerator{
			generate: func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
				return &ai.GenerateResult{Text: "stub answer", TokensUsed: 10}, nil
			},
		},
	}
	f.service = NewChatService(f.sessions, f.messages, f.responses, f.generator, nil, ai.GenerateOptions{}, 5, 3)
	return f
}

func (f *chatFixture) newSession(t *testing.T, userID uint, subject model.SubjectType) *model.Session {
	t.Helper()
	session, err := f.service.CreateSession(CreateSessionInput{
		UserID:      userID,
		Title:       "Prep",
		SubjectType: subject,
	})
	require.NoError(t, err)
	return session
}

// seedExchange persists one user message and its recorded response directly
// through the stores, bypassing the generation pipeline.
func (f *chatFixture) seedExchange(t *testing.T, sessionID uint, question, answer string) {
	t.Helper()
	msg := &model.Message{
		SessionID:     sessionID,
		Type:          model.MessageUserQuery,
		Content:       question,
		QueryCategory: model.QueryGeneral,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, f.messages.Create(msg))
	if answer != "" {
		require.NoError(t, f.responses.Create(&model.Response{
			MessageID:    msg.ID,
			ResponseText: answer,
			UserFeedback: model.FeedbackNone,
		}))
	}
}

func TestSendMessagePolityTurn(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectPolity)
	f.seedExchange(t, session.ID, "What is Article 21?", "Right to life and personal liberty.")

	var gotPrompt string
	f.generator.generate = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
		gotPrompt = prompt
		return &ai.GenerateResult{Text: "It was widened in Maneka Gandhi v. Union of India.", TokensUsed: 21}, nil
	}

	before := time.Now()
	result, err := f.service.SendMessage(context.Background(), SendMessageInput{
		UserID:    1,
		SessionID: session.ID,
		Content:   "How did its scope expand?",
	})
	require.NoError(t, err)

	assert.Contains(t, gotPrompt, "The subject being discussed is Polity. ")
	assert.Contains(t, gotPrompt, "user: What is Article 21?\n")
	assert.Contains(t, gotPrompt, "assistant: Right to life and personal liberty.\n")
	assert.True(t, strings.HasSuffix(gotPrompt, "\nStudent: How did its scope expand?\nTutor:"))

	assert.Equal(t, model.MessageUserQuery, result.Message.Type)
	assert.Equal(t, model.QueryGeneral, result.Message.QueryCategory)
	assert.Equal(t, result.Message.ID, result.Response.MessageID)
	assert.Equal(t, "It was widened in Maneka Gandhi v. Union of India.", result.Response.ResponseText)
	assert.Equal(t, "gemini-test", result.Response.ModelName)
	assert.Equal(t, 21, result.Response.TokensUsed)
	assert.Equal(t, model.FeedbackNone, result.Response.UserFeedback)
	assert.Nil(t, result.Response.ConfidenceScore)
	assert.Nil(t, result.Response.RelevanceScore)
	assert.Nil(t, result.Response.AccuracyScore)

	stored, err := f.sessions.GetByIDAndUserID(session.ID, 1)
	require.NoError(t, err)
	assert.False(t, stored.LastInteraction.Before(before))
}

func TestSendMessageClassifiesStructure(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	f.generator.generate = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
		return &ai.GenerateResult{Text: "See https://example.org\n```go\nfmt.Println(1)\n```"}, nil
	}

	result, err := f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "show me code",
	})
	require.NoError(t, err)

	assert.True(t, result.Response.HasCode)
	assert.True(t, result.Response.HasLinks)
	assert.False(t, result.Response.HasTables)
	assert.Equal(t, model.ResponseCode, result.Response.ResponseType)
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	_, err := f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "   ",
	})
	assert.ErrorIs(t, err, ErrMessageEmpty)

	_, err = f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "hi", QueryCategory: "bogus",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 2, SessionID: session.ID, Content: "hi",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSendMessageRejectsInactiveSession(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	_, err := f.service.UpdateSession(UpdateSessionInput{
		UserID: 1, SessionID: session.ID, Status: model.SessionPaused,
	})
	require.NoError(t, err)

	_, err = f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "hi",
	})
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSendMessageRejectsConcurrentTurn(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.generator.generate = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
		close(entered)
		<-proceed
		return &ai.GenerateResult{Text: "slow answer"}, nil
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.service.SendMessage(context.Background(), SendMessageInput{
			UserID: 1, SessionID: session.ID, Content: "first",
		})
		firstDone <- err
	}()

	<-entered
	_, err := f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "second",
	})
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(proceed)
	require.NoError(t, <-firstDone)

	// The slot frees once the first turn finishes.
	f.generator.generate = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
		return &ai.GenerateResult{Text: "third answer"}, nil
	}
	_, err = f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "third",
	})
	assert.NoError(t, err)
}

func TestSendMessageGenerationFailureKeepsMessage(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	f.generator.generate = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
		return nil, ai.ErrEmptyCandidates
	}

	_, err := f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "doomed",
	})
	assert.ErrorIs(t, err, ai.ErrEmptyCandidates)

	msgs, err := f.messages.ListBySessionID(session.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "doomed", msgs[0].Content)

	response, err := f.responses.GetByMessageID(msgs[0].ID)
	require.NoError(t, err)
	assert.Nil(t, response)
}

func TestSendMessageDuplicateResponse(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	// Force the store into the duplicate path: every created message already
	// has a response on record.
	f.generator.generate = func(ctx context.Context, prompt string, opts ai.GenerateOptions) (*ai.GenerateResult, error) {
		require.NoError(t, f.responses.Create(&model.Response{
			MessageID:    f.messages.nextID,
			ResponseText: "already recorded",
		}))
		return &ai.GenerateResult{Text: "second answer"}, nil
	}

	_, err := f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "hi",
	})
	assert.ErrorIs(t, err, ErrResponseExists)
}

func TestAssembleContextBoundedAndPaired(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectPolity)

	for i := 1; i <= 7; i++ {
		answer := fmt.Sprintf("a%d", i)
		if i == 6 {
			answer = "" // unanswered message contributes only its user turn
		}
		f.seedExchange(t, session.ID, fmt.Sprintf("q%d", i), answer)
	}

	conv := f.service.AssembleContext(context.Background(), session, 5)

	assert.Equal(t, "Polity", conv.Subject)
	assert.False(t, conv.Degraded)
	require.Equal(t, 9, len(conv.Turns)) // 5 user turns, 4 answered

	assert.Equal(t, ai.Turn{Role: "user", Content: "q3"}, conv.Turns[0])
	assert.Equal(t, ai.Turn{Role: "assistant", Content: "a3"}, conv.Turns[1])
	assert.Equal(t, ai.Turn{Role: "user", Content: "q6"}, conv.Turns[6])
	assert.Equal(t, ai.Turn{Role: "user", Content: "q7"}, conv.Turns[7])
	assert.Equal(t, ai.Turn{Role: "assistant", Content: "a7"}, conv.Turns[8])

	again := f.service.AssembleContext(context.Background(), session, 5)
	assert.Equal(t, conv, again)
}

func TestAssembleContextFewerMessagesThanLimit(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)
	f.seedExchange(t, session.ID, "q1", "a1")

	conv := f.service.AssembleContext(context.Background(), session, 5)

	assert.Empty(t, conv.Subject)
	require.Len(t, conv.Turns, 2)
	assert.Equal(t, "user", conv.Turns[0].Role)
	assert.Equal(t, "assistant", conv.Turns[1].Role)
}

func TestAssembleContextDegradesOnMessageStoreError(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectPolity)
	f.messages.listErr = errors.New("db gone")

	conv := f.service.AssembleContext(context.Background(), session, 5)

	assert.True(t, conv.Degraded)
	assert.Contains(t, conv.DegradedNote, "db gone")
	assert.Equal(t, "Polity", conv.Subject)
	assert.Empty(t, conv.Turns)
}

func TestAssembleContextDegradesOnResponseStoreError(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)
	f.seedExchange(t, session.ID, "q1", "a1")
	f.responses.getErr = errors.New("lookup failed")

	conv := f.service.AssembleContext(context.Background(), session, 5)

	assert.True(t, conv.Degraded)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, "user", conv.Turns[0].Role)
}

func TestSubmitFeedbackUpdatesOnlyFeedbackFields(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	result, err := f.service.SendMessage(context.Background(), SendMessageInput{
		UserID: 1, SessionID: session.ID, Content: "hi",
	})
	require.NoError(t, err)

	updated, err := f.service.SubmitFeedback(FeedbackInput{
		UserID:    1,
		MessageID: result.Message.ID,
		Feedback:  model.FeedbackHelpful,
		Notes:     "clear explanation",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FeedbackHelpful, updated.UserFeedback)
	assert.Equal(t, "clear explanation", updated.FeedbackNotes)

	stored, err := f.responses.GetByMessageID(result.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Response.ResponseText, stored.ResponseText)
	assert.Equal(t, result.Response.TokensUsed, stored.TokensUsed)
	assert.Equal(t, model.FeedbackHelpful, stored.UserFeedback)

	_, err = f.service.SubmitFeedback(FeedbackInput{
		UserID: 1, MessageID: result.Message.ID, Feedback: "meh",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMessageOwnership(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)
	f.seedExchange(t, session.ID, "q1", "a1")

	msg, err := f.service.GetMessage(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "q1", msg.Content)

	// Another user's lookup is indistinguishable from a missing message.
	_, err = f.service.GetMessage(2, 1)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	_, err = f.service.GetResponse(2, 1)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestGetResponseMissing(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)
	f.seedExchange(t, session.ID, "q1", "")

	_, err := f.service.GetResponse(1, 1)
	assert.ErrorIs(t, err, ErrResponseNotFound)
}

func TestUpdateSessionTransitions(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)

	updated, err := f.service.UpdateSession(UpdateSessionInput{
		UserID: 1, SessionID: session.ID, Status: model.SessionEnded, Title: "Done",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SessionEnded, updated.Status)
	assert.Equal(t, "Done", updated.Title)

	_, err = f.service.UpdateSession(UpdateSessionInput{
		UserID: 1, SessionID: session.ID, Status: model.SessionActive,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeleteSessionCascades(t *testing.T) {
	f := newChatFixture(t)
	session := f.newSession(t, 1, model.SubjectGeneral)
	f.seedExchange(t, session.ID, "q1", "a1")

	require.NoError(t, f.service.DeleteSession(1, session.ID))

	_, err := f.service.GetSession(1, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	msgs, err := f.messages.ListBySessionID(session.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

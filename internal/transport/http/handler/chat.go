package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"examtutor/internal/ai"
	"examtutor/internal/app"
	"examtutor/internal/model"
	"examtutor/internal/transport/http/middleware"
	"examtutor/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type CreateSessionRequest struct {
	Title       string `json:"title" binding:"max=255"`
	ExamType    string `json:"exam_type"`
	SubjectType string `json:"subject_type"`
	SubjectID   *uint  `json:"subject_id"`
	TopicID     *uint  `json:"topic_id"`
}

type UpdateSessionRequest struct {
	Title  string `json:"title" binding:"max=255"`
	Status string `json:"status"`
}

type SendMessageRequest struct {
	Content       string `json:"content" binding:"required"`
	QueryCategory string `json:"query_category"`
	ParentID      *uint  `json:"parent_message_id"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
	Notes    string `json:"notes"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.chatService.CreateSession(app.CreateSessionInput{
		UserID:      userID,
		Title:       req.Title,
		ExamType:    model.ExamType(req.ExamType),
		SubjectType: model.SubjectType(req.SubjectType),
		SubjectID:   req.SubjectID,
		TopicID:     req.TopicID,
	})
	if err != nil {
		h.writeError(c, err, "create session failed")
		return
	}

	response.OK(c, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessions, err := h.chatService.ListSessions(userID)
	if err != nil {
		h.writeError(c, err, "list sessions failed")
		return
	}

	response.OK(c, sessions)
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.chatService.GetSession(userID, sessionID)
	if err != nil {
		h.writeError(c, err, "get session failed")
		return
	}

	response.OK(c, session)
}

func (h *ChatHandler) UpdateSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if req.Status != "" && !model.SessionStatus(req.Status).Valid() {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session status")
		return
	}

	session, err := h.chatService.UpdateSession(app.UpdateSessionInput{
		UserID:    userID,
		SessionID: sessionID,
		Title:     req.Title,
		Status:    model.SessionStatus(req.Status),
	})
	if err != nil {
		h.writeError(c, err, "update session failed")
		return
	}

	response.OK(c, session)
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.chatService.DeleteSession(userID, sessionID); err != nil {
		h.writeError(c, err, "delete session failed")
		return
	}

	response.OK(c, gin.H{"deleted_session_id": sessionID})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), app.SendMessageInput{
		UserID:        userID,
		SessionID:     sessionID,
		Content:       req.Content,
		QueryCategory: model.QueryCategory(req.QueryCategory),
		ParentID:      req.ParentID,
	})
	if err != nil {
		h.writeError(c, err, "send message failed")
		return
	}

	response.OK(c, result)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	messages, err := h.chatService.ListMessages(userID, sessionID, limit)
	if err != nil {
		h.writeError(c, err, "list messages failed")
		return
	}

	response.OK(c, messages)
}

func (h *ChatHandler) GetMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	message, err := h.chatService.GetMessage(userID, messageID)
	if err != nil {
		h.writeError(c, err, "get message failed")
		return
	}

	response.OK(c, message)
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.chatService.DeleteMessage(userID, messageID); err != nil {
		h.writeError(c, err, "delete message failed")
		return
	}

	response.OK(c, gin.H{"deleted_message_id": messageID})
}

func (h *ChatHandler) GetResponse(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.chatService.GetResponse(userID, messageID)
	if err != nil {
		h.writeError(c, err, "get response failed")
		return
	}

	response.OK(c, resp)
}

func (h *ChatHandler) SubmitFeedback(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	resp, err := h.chatService.SubmitFeedback(app.FeedbackInput{
		UserID:    userID,
		MessageID: messageID,
		Feedback:  model.UserFeedback(req.Feedback),
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeError(c, err, "submit feedback failed")
		return
	}

	response.OK(c, resp)
}

func (h *ChatHandler) writeError(c *gin.Context, err error, fallback string) {
	var providerErr *ai.ProviderError
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrMessageNotFound):
		response.Error(c, http.StatusNotFound, response.CodeMessageNotFound, err.Error())
	case errors.Is(err, app.ErrResponseNotFound):
		response.Error(c, http.StatusNotFound, response.CodeResponseNotFound, err.Error())
	case errors.Is(err, app.ErrGenerationInFlight):
		response.Error(c, http.StatusConflict, response.CodeGenerationBusy, err.Error())
	case errors.Is(err, app.ErrSessionNotActive),
		errors.Is(err, app.ErrInvalidTransition),
		errors.Is(err, app.ErrResponseExists):
		response.Error(c, http.StatusConflict, response.CodeConflict, err.Error())
	case ai.IsTimeout(err):
		response.Error(c, http.StatusGatewayTimeout, response.CodeUpstreamTimeout, "generation timed out")
	case errors.As(err, &providerErr):
		response.Error(c, http.StatusBadGateway, response.CodeProviderError, providerErr.Message)
	case errors.Is(err, ai.ErrEmptyCandidates):
		response.Error(c, http.StatusBadGateway, response.CodeProviderError, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || raw == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(raw), true
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

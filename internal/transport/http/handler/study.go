package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"examtutor/internal/app"
	"examtutor/internal/model"
	"examtutor/internal/transport/http/response"
)

type StudyHandler struct {
	studyService *app.StudyService
}

type CreateSubjectRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"max=32"`
}

type CreateTopicRequest struct {
	SubjectID   uint   `json:"subject_id" binding:"required,gt=0"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
}

type CreateQuestionRequest struct {
	TopicID         uint   `json:"topic_id" binding:"required,gt=0"`
	QuestionText    string `json:"question_text" binding:"required"`
	Answer          string `json:"answer" binding:"required"`
	DifficultyLevel string `json:"difficulty_level"`
	QuestionType    string `json:"question_type"`
}

func NewStudyHandler(studyService *app.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

func (h *StudyHandler) CreateSubject(c *gin.Context) {
	var req CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	subject, err := h.studyService.CreateSubject(app.CreateSubjectInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		h.writeError(c, err, "create subject failed")
		return
	}

	response.OK(c, subject)
}

func (h *StudyHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.studyService.ListSubjects()
	if err != nil {
		h.writeError(c, err, "list subjects failed")
		return
	}
	response.OK(c, subjects)
}

func (h *StudyHandler) GetSubject(c *gin.Context) {
	subjectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	subject, err := h.studyService.GetSubject(subjectID)
	if err != nil {
		h.writeError(c, err, "get subject failed")
		return
	}
	response.OK(c, subject)
}

func (h *StudyHandler) ListTopics(c *gin.Context) {
	subjectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	topics, err := h.studyService.ListTopics(subjectID)
	if err != nil {
		h.writeError(c, err, "list topics failed")
		return
	}
	response.OK(c, topics)
}

func (h *StudyHandler) CreateTopic(c *gin.Context) {
	var req CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	topic, err := h.studyService.CreateTopic(app.CreateTopicInput{
		SubjectID:   req.SubjectID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(c, err, "create topic failed")
		return
	}
	response.OK(c, topic)
}

func (h *StudyHandler) CreateQuestion(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	question, err := h.studyService.CreateQuestion(app.CreateQuestionInput{
		TopicID:         req.TopicID,
		QuestionText:    req.QuestionText,
		Answer:          req.Answer,
		DifficultyLevel: model.DifficultyLevel(req.DifficultyLevel),
		QuestionType:    model.QuestionType(req.QuestionType),
	})
	if err != nil {
		h.writeError(c, err, "create question failed")
		return
	}
	response.OK(c, question)
}

func (h *StudyHandler) ListQuestions(c *gin.Context) {
	topicID, ok := pathID(c, "id")
	if !ok {
		return
	}

	questions, err := h.studyService.ListQuestions(topicID, model.DifficultyLevel(c.Query("difficulty")))
	if err != nil {
		h.writeError(c, err, "list questions failed")
		return
	}
	response.OK(c, questions)
}

// UploadMaterial accepts a multipart PDF or plain-text file and stores its
// extracted text as a study material for the topic.
func (h *StudyHandler) UploadMaterial(c *gin.Context) {
	topicID, ok := pathID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
		return
	}
	defer file.Close()

	material, err := h.studyService.AddMaterial(app.AddMaterialInput{
		TopicID:  topicID,
		Title:    title,
		FileName: fileHeader.Filename,
		Reader:   file,
	})
	if err != nil {
		h.writeError(c, err, "upload material failed")
		return
	}
	response.OK(c, material)
}

func (h *StudyHandler) ListMaterials(c *gin.Context) {
	topicID, ok := pathID(c, "id")
	if !ok {
		return
	}

	materials, err := h.studyService.ListMaterials(topicID)
	if err != nil {
		h.writeError(c, err, "list materials failed")
		return
	}
	response.OK(c, materials)
}

func (h *StudyHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrEmptyMaterial):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSubjectNotFound), errors.Is(err, app.ErrTopicNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

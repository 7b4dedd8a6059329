package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"examtutor/internal/app"
	"examtutor/internal/transport/http/response"
)

type AffairsHandler struct {
	affairsService *app.AffairsService
}

func NewAffairsHandler(affairsService *app.AffairsService) *AffairsHandler {
	return &AffairsHandler{affairsService: affairsService}
}

func (h *AffairsHandler) List(c *gin.Context) {
	var start, end *time.Time
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid start_date")
			return
		}
		start = &parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid end_date")
			return
		}
		end = &parsed
	}
	if (start == nil) != (end == nil) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "start_date and end_date must be given together")
		return
	}

	affairs, err := h.affairsService.List(start, end, c.Query("category"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list current affairs failed")
		return
	}
	response.OK(c, affairs)
}

func (h *AffairsHandler) Get(c *gin.Context) {
	affairID, ok := pathID(c, "id")
	if !ok {
		return
	}

	affair, err := h.affairsService.Get(affairID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrAffairNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get current affair failed")
		}
		return
	}
	response.OK(c, affair)
}

// Refresh fetches fresh headlines and queues digest jobs for the worker.
func (h *AffairsHandler) Refresh(c *gin.Context) {
	queued, err := h.affairsService.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, "queue digest jobs failed")
		return
	}
	response.OK(c, gin.H{"queued_jobs": queued})
}

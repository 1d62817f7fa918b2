package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sundale/projectcoach-backend/internal/conversation/orchestrator"
	"github.com/sundale/projectcoach-backend/internal/middleware"
	"github.com/sundale/projectcoach-backend/internal/platform/apperr"
	"github.com/sundale/projectcoach-backend/internal/platform/logger"
)

type ConversationHandler struct {
	log          *logger.Logger
	orchestrator *orchestrator.Service
}

func NewConversationHandler(log *logger.Logger, svc *orchestrator.Service) *ConversationHandler {
	return &ConversationHandler{
		log:          log.With("handler", "ConversationHandler"),
		orchestrator: svc,
	}
}

type createSessionRequest struct {
	ProjectID     uuid.UUID `json:"project_id" binding:"required"`
	Subject       string    `json:"subject"`
	AgeGroup      string    `json:"age_group"`
	EducatorLevel string    `json:"educator_level"`
}

func (h *ConversationHandler) CreateSession(c *gin.Context) {
	educatorID := middleware.EducatorID(c.Request.Context())
	if educatorID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	session, err := h.orchestrator.CreateSession(c.Request.Context(), req.ProjectID, req.Subject, req.AgeGroup, req.EducatorLevel)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "invalid_argument", err)
			return
		}
		h.log.Error("CreateSession failed", "error", err, "educator_id", educatorID)
		RespondError(c, http.StatusInternalServerError, "create_session_failed", err)
		return
	}
	RespondCreated(c, gin.H{"session": session})
}

func (h *ConversationHandler) GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	session, err := h.orchestrator.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		h.log.Error("GetSession failed", "error", err, "session_id", id)
		RespondError(c, http.StatusInternalServerError, "load_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (h *ConversationHandler) PostTurn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var in orchestrator.TurnInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	out, err := h.orchestrator.ProcessTurn(c.Request.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			RespondError(c, http.StatusNotFound, "session_not_found", err)
		case errors.Is(err, apperr.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		default:
			h.log.Error("PostTurn failed", "error", err, "session_id", id)
			RespondError(c, http.StatusInternalServerError, "process_turn_failed", err)
		}
		return
	}
	RespondOK(c, out)
}

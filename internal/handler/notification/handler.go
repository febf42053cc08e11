package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/qtrack-api/internal/service/notification"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
	"github.com/jwalitptl/qtrack-api/pkg/httputil"
)

type Handler struct {
	service notification.Service
}

func NewHandler(service notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.DELETE("", h.ClearAll)
	}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	recipientID, err := uuid.Parse(c.Query("recipient_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid recipient ID", err))
		return
	}

	notifications, err := h.service.List(c.Request.Context(), recipientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid notification ID", err))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"read": true})
}

func (h *Handler) ClearAll(c *gin.Context) {
	recipientID, err := uuid.Parse(c.Query("recipient_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid recipient ID", err))
		return
	}

	if err := h.service.ClearAll(c.Request.Context(), recipientID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"cleared": true})
}

package token

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/qtrack-api/internal/middleware"
	"github.com/jwalitptl/qtrack-api/internal/model"
	"github.com/jwalitptl/qtrack-api/internal/service/token"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
	"github.com/jwalitptl/qtrack-api/pkg/httputil"
)

type Handler struct {
	service *token.Service
}

func NewHandler(service *token.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tokens := r.Group("/tokens")
	{
		tokens.POST("", h.CreateToken)
		tokens.GET("/:id", h.GetToken)
		tokens.POST("/:id/transition", h.ApplyTransition)
		tokens.DELETE("/:id", h.DeleteToken)
	}

	services := r.Group("/services/:id")
	{
		services.GET("/queue", h.ListQueue)
		services.POST("/call-next", h.CallNext)
		services.POST("/cancel-all", h.CancelAllWaiting)
	}
}

func (h *Handler) CreateToken(c *gin.Context) {
	var req model.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), err))
		return
	}

	created, err := h.service.CreateToken(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, created)
}

func (h *Handler) GetToken(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid token ID", err))
		return
	}

	found, err := h.service.GetToken(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) ApplyTransition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid token ID", err))
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), err))
		return
	}

	updated, err := h.service.ApplyTransition(c.Request.Context(), id, req.Status, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeleteToken(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid token ID", err))
		return
	}

	if err := h.service.DeleteToken(c.Request.Context(), id, middleware.ActorID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

// ListQueue is the poll endpoint. Clients poll it on a bounded interval and
// diff successive snapshots; it must stay side-effect-free.
func (h *Handler) ListQueue(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid service ID", err))
		return
	}

	snapshot, err := h.service.ListQueue(c.Request.Context(), serviceID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, snapshot)
}

func (h *Handler) CallNext(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid service ID", err))
		return
	}

	called, err := h.service.CallNext(c.Request.Context(), serviceID, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, called)
}

func (h *Handler) CancelAllWaiting(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid service ID", err))
		return
	}

	var req model.CancelAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error(), err))
		return
	}

	result, err := h.service.CancelAllWaiting(c.Request.Context(), serviceID, req.Reason, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}

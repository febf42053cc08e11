package directory

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/qtrack-api/internal/service/directory"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
	"github.com/jwalitptl/qtrack-api/pkg/httputil"
)

// Handler exposes the read-only provider/service directory. Directory
// writes belong to the identity service.
type Handler struct {
	service *directory.Service
}

func NewHandler(service *directory.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	providers := r.Group("/providers")
	{
		providers.GET("", h.ListProviders)
		providers.GET("/:id/services", h.ListServices)
	}

	r.GET("/services/:id/provider", h.GetProviderOfService)
}

func (h *Handler) ListProviders(c *gin.Context) {
	providers, err := h.service.ListProviders(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, providers)
}

// GetProviderOfService resolves the institution that owns a service.
func (h *Handler) GetProviderOfService(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid service ID", err))
		return
	}

	provider, err := h.service.ProviderOf(c.Request.Context(), serviceID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, provider)
}

func (h *Handler) ListServices(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid provider ID", err))
		return
	}

	services, err := h.service.ListServices(c.Request.Context(), providerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, services)
}

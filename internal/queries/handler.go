package queries

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"estate-desk/society-portal/society-portal-backend/internal/auth"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth, requireOwner gin.HandlerFunc) {
	queries := rg.Group("/queries", requireAuth)
	{
		queries.POST("", h.Raise)
		queries.GET("/:id", h.Get)
		queries.POST("/:id/respond", requireOwner, h.Respond)
		queries.POST("/:id/close", h.Close)
	}
	rg.GET("/redevelopment-projects/:id/queries", requireAuth, h.ListForProject)
}

func (h *Handler) Raise(c *gin.Context) {
	memberID := auth.MemberID(c)

	var req RaiseQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	query, err := h.service.Raise(c.Request.Context(), memberID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, query)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query id"})
		return
	}

	query, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, query)
}

func (h *Handler) ListForProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	list, err := h.service.ListForProject(c.Request.Context(), projectID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": list, "count": len(list)})
}

func (h *Handler) Respond(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query id"})
		return
	}
	memberID := auth.MemberID(c)

	var req struct {
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	query, err := h.service.Respond(c.Request.Context(), id, memberID, auth.SocietyID(c), req.Response)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, query)
}

func (h *Handler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query id"})
		return
	}
	memberID := auth.MemberID(c)

	query, err := h.service.Close(c.Request.Context(), id, memberID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, query)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "query not found"})
	case errors.Is(err, ErrNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": "query is not open"})
	case errors.Is(err, ErrNotRaisedBy):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the raising member can close a query"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logger.Error("query request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

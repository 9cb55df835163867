package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/greenlake-gma/progress-api/internal/service"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
	"github.com/greenlake-gma/progress-api/pkg/response"
)

// AuditHandler exposes read-only audit ledger endpoints.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListByUser godoc
// @Summary List audit entries recorded for an actor
// @Tags Audit
// @Produce json
// @Param userId path int true "User ID"
// @Param limit query int false "Max entries" default(100)
// @Success 200 {object} response.Envelope
// @Router /audit-logs/user/{userId} [get]
func (h *AuditHandler) ListByUser(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.audit.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListByEntity godoc
// @Summary List audit entries for an entity type
// @Tags Audit
// @Produce json
// @Param entity path string true "Entity type, e.g. student_progress"
// @Param entityId query int false "Narrow to one entity id"
// @Param limit query int false "Max entries" default(100)
// @Success 200 {object} response.Envelope
// @Router /audit-logs/entity/{entity} [get]
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	entity := c.Param("entity")
	var entityID *int64
	if raw := c.Query("entityId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid entityId"))
			return
		}
		entityID = &id
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.audit.ListByEntity(c.Request.Context(), entity, entityID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/identity"
	"gorm.io/gorm"
)

// InternalHandler serves endpoints for sibling services and health checks.
type InternalHandler struct {
	resolver identity.Resolver
	db       *gorm.DB
}

// NewInternalHandler creates a new InternalHandler. resolver must read the
// local store.
func NewInternalHandler(resolver identity.Resolver, db *gorm.DB) *InternalHandler {
	return &InternalHandler{resolver: resolver, db: db}
}

// GetIdentity returns the identity of a user for a sibling service.
func (h *InternalHandler) GetIdentity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ident, err := h.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, ident)
}

// Health reports whether the service and its database are reachable.
func (h *InternalHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

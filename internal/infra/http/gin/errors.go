package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayrates/internal/app/middleware"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
)

// respondError maps application errors onto HTTP statuses. Validation
// failures carry their field map; everything unexpected collapses to 500
// without leaking internals.
func respondError(c *gin.Context, err error) {
	if ve, ok := domainpricing.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, domainpricing.ErrRuleSetNotFound), errors.Is(err, domainproperty.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, middleware.ErrPropertyLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "another pricing edit is in progress"})
	case errors.Is(err, domainpricing.ErrConsistencySync):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pricing change rolled back"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

const actorHeader = "X-Actor-ID"

// actorFrom identifies the admin performing a change; authentication itself
// lives at the platform gateway.
func actorFrom(c *gin.Context) string {
	if actor := c.GetHeader(actorHeader); actor != "" {
		return actor
	}
	return "anonymous"
}

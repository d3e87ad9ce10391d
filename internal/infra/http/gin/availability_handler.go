package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayrates/internal/app/dto"
	availabilityapp "stayrates/internal/app/handlers/availability"
	"stayrates/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := availabilityapp.GetCalendarQuery{
		PropertyID: c.Param("id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
	}
	view, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.CalendarView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

var _ AvailabilityHTTP = AvailabilityHandler{}

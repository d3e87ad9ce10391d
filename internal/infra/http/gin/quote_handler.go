package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"stayrates/internal/app/dto"
	quoteapp "stayrates/internal/app/handlers/quote"
	"stayrates/internal/app/queries"
)

type QuoteHandler struct {
	Queries queries.Bus
}

func (h QuoteHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	guests := 0
	if raw := c.Query("guests"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guests must be an integer"})
			return
		}
		guests = parsed
	}
	query := quoteapp.GetQuoteQuery{
		PropertyID:   c.Param("id"),
		RoomCategory: c.Query("room_category"),
		CheckIn:      c.Query("check_in"),
		CheckOut:     c.Query("check_out"),
		Guests:       guests,
		EventPolicy:  c.Query("event_policy"),
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, dto.QuoteResponse](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}

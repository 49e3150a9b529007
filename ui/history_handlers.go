package ui

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// handleHistory serves one page of the caller's upload history, newest
// first. Defaults: limit 5, offset 0.
func (s *Server) handleHistory(c *gin.Context) {
	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", "5"))
	offset, errOffset := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if errLimit != nil || errOffset != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters."})
		return
	}

	caller := identityFrom(c)
	page, err := s.history.List(c.Request.Context(), caller.ID, limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

package ui

import (
	"net/http"

	"equipdata/internal/errors"

	"github.com/gin-gonic/gin"
)

// writeError maps an application error to its HTTP status. Client-input
// problems surface verbatim; storage failures are logged and surfaced as a
// generic server failure.
func (s *Server) writeError(c *gin.Context, err error) {
	message := err.Error()
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}

	switch {
	case errors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
	case errors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	case errors.GetCode(err) == errors.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": message})
	default:
		s.log.Error("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

package ui

import (
	"fmt"
	"net/http"

	"equipdata/internal/errors"

	"github.com/gin-gonic/gin"
)

// handleUpload accepts a multipart file upload and runs it through the
// shared upload pipeline. The web and desktop endpoints use the same
// handler; origin is logged and nothing else.
func (s *Server) handleUpload(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			s.writeError(c, errors.NoFileProvided())
			return
		}
		defer file.Close()

		if header.Size > s.cfg.Upload.MaxFileSize {
			s.writeError(c, errors.InvalidInput(fmt.Sprintf(
				"file size (%d bytes) exceeds the %d byte limit", header.Size, s.cfg.Upload.MaxFileSize)))
			return
		}

		caller := identityFrom(c)
		s.log.Debug("%s upload %q from %s", origin, header.Filename, caller.Username)

		record, err := s.uploads.HandleUpload(c.Request.Context(), caller, header.Filename, file)
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, record)
	}
}

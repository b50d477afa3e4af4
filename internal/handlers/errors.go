package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	dom "tasktracker/internal/domain"
	"tasktracker/internal/dto"

	"github.com/gin-gonic/gin"
)

// ErrorMapper turns the last error recorded with c.Error into an
// ErrorResponse. Internal errors are logged and reduced to "internal error".
func ErrorMapper(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, msg := classify(err)
		if status == http.StatusInternalServerError {
			log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		writeError(c, now, status, msg)
	}
}

// Recovery answers a panic with a 500 ErrorResponse.
func Recovery(now func() time.Time) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		writeError(c, now, http.StatusInternalServerError, "internal error")
	})
}

// NoRoute answers unmatched routes with 404 "not found".
func NoRoute(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeError(c, now, http.StatusNotFound, "not found")
	}
}

func classify(err error) (int, string) {
	var in *dom.InputError
	switch {
	case errors.As(err, &in):
		return http.StatusBadRequest, in.Msg
	case errors.Is(err, dom.ErrNotFound):
		return http.StatusNotFound, dom.ErrNotFound.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(c *gin.Context, now func() time.Time, status int, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Timestamp: now().UTC(),
		Status:    status,
		Error:     msg,
	})
}

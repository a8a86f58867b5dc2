package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/medilink/care-api/pkg/errors"
)

// Error writes the error response and records the error on the context so
// the logging middleware sees it. Typed application errors pick their
// status via StatusCode(); anything else is a 500 with a generic message.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}

// BadRequest is the shorthand for binding failures.
func BadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
}

// ParseUUIDParam parses a path parameter as a UUID and writes the error
// response itself on failure.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

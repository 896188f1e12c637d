package internal

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// apiError is the one error shape handlers raise. It is mapped to a
// {status, message} JSON body by ErrorHandler at the end of the chain.
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func BadRequest(msg string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) *apiError {
	return &apiError{Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *apiError {
	return &apiError{Status: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) *apiError {
	return &apiError{Status: http.StatusNotFound, Message: msg}
}

func Conflict(msg string) *apiError {
	return &apiError{Status: http.StatusConflict, Message: msg}
}

// Fail records err on the context and aborts the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler is the terminal error middleware. Database and other
// untagged errors surface as a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		apiErr, ok := err.(*apiError)
		if !ok {
			slog.Error("unhandled error", "path", c.Request.URL.Path, "err", err)
			apiErr = &apiError{Status: http.StatusInternalServerError, Message: "Internal server error"}
		}
		c.JSON(apiErr.Status, apiErr)
	}
}

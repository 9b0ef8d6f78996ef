package server

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gramwave/gramwave/internal/apierror"
	userdomain "github.com/gramwave/gramwave/internal/user/domain"
	"go.uber.org/zap"
)

// ErrorHandlingMiddleware is the single failure exit: it recovers panics,
// drains collected errors, classifies them and writes the failure envelope.
// Raw internal detail stays in the logs.
func (s *Server) ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic recovered while handling request",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path))
				if !c.Writer.Written() {
					respondFailure(c, apierror.ErrInternal.Status, apierror.ErrInternal.Message)
				}
				c.Abort()
			}
		}()

		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		apiErr := apierror.Translate(classify(lastErr.Err))
		s.log.Error("request aborted",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", apiErr.Status),
			zap.String("log_message", apiErr.Error()),
			zap.Error(lastErr.Err))

		respondFailure(c, apiErr.Status, apiErr.Message)
	}
}

// AbortWithError records an error for the failure exit and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// classify lifts domain sentinel errors into the API taxonomy before the
// generic translation runs.
func classify(err error) error {
	switch {
	case errors.Is(err, userdomain.ErrNotFound):
		return apierror.ErrResourceNotFound.WithCause(err)
	case errors.Is(err, userdomain.ErrUsernameTaken):
		return apierror.ErrResourceConflict.WithCause(err)
	case errors.Is(err, userdomain.ErrInsufficientFunds):
		return apierror.ErrInsufficientFunds.WithCause(err)
	case errors.Is(err, userdomain.ErrInvalidUsername),
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, userdomain.ErrInvalidPassword):
		return apierror.ErrBadRequest.WithCause(err)
	default:
		return err
	}
}

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler turns the last error pushed with c.Error into a JSON reply,
// unless the handler already wrote one.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := translate(err)
		if status >= http.StatusInternalServerError {
			logging.Ctx(c.Request.Context()).Error().Err(err).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("request failed")
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// Recovery logs panics and answers 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal Server Error",
			Code:  "internal_error",
		})
	})
}

func translate(err error) (int, ErrorResponse) {
	var (
		verr     *service.ValidationError
		conflict *service.ConflictError
		bindErrs validator.ValidationErrors
		syntax   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			Code:  "payload_too_large",
		}
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Code: "invalid", Fields: verr.Fields}
	case errors.As(err, &bindErrs):
		fields := map[string][]string{}
		for _, fe := range bindErrs {
			fields[fe.Field()] = append(fields[fe.Field()], describe(fe))
		}
		return http.StatusBadRequest, ErrorResponse{Error: "validation failed", Code: "invalid", Fields: fields}
	case errors.As(err, &typeErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:  "invalid value type",
			Code:   "parse_error",
			Fields: map[string][]string{typeErr.Field: {"Incorrect type."}},
		}
	case errors.As(err, &syntax), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, ErrorResponse{Error: "malformed request body", Code: "parse_error"}
	case errors.As(err, &conflict):
		return http.StatusBadRequest, ErrorResponse{Error: conflict.Message, Code: "conflict"}
	case errors.Is(err, service.ErrBadCredentials):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_credentials"}
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "not_authenticated"}
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "authentication_failed"}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "permission_denied"}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error", Code: "internal_error"}
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this value is at most " + fe.Param() + "."
	case "min":
		return "Ensure this value is at least " + fe.Param() + "."
	case "username":
		return "Enter a valid username."
	default:
		return "Invalid value."
	}
}

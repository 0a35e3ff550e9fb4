// Package response writes the JSON envelope and translates errors to HTTP responses in one place.
package response

import (
	"net/http"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/logger"
	"github.com/wyfcoding/distributorhub/pkg/utils"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Error   apperr.Code         `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Detail  string              `json:"detail,omitempty"`

	*utils.Pagination
}

func init() {
	// field errors are keyed by JSON names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

// OK 200 with data.
func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created 201 with data.
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Paged 200 with data and pagination fields.
func Paged(c *gin.Context, message string, data any, page *utils.Pagination) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Pagination: page})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation, apperr.CodeInvalidState:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Abort writes err as the response and stops the chain.
func Abort(c *gin.Context, err error, dev bool) {
	e := apperr.From(err)
	status := StatusFor(e.Code)

	body := Envelope{
		Success: false,
		Message: e.Message,
		Error:   e.Code,
		Errors:  e.Fields,
	}
	if status >= http.StatusInternalServerError {
		body.Error = apperr.CodeInternal
		body.Message = "internal server error"
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		if dev {
			body.Detail = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// ErrorHandler renders the last error attached with c.Error once the handler returns.
func ErrorHandler(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Abort(c, c.Errors.Last().Err, dev)
	}
}

// Recovery turns panics into a 500 envelope; the stack is only exposed in dev.
func Recovery(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error(c.Request.Context(), "HTTP request panicked", "panic", r, "stack", stack)

				body := Envelope{
					Success: false,
					Message: "internal server error",
					Error:   apperr.CodeInternal,
				}
				if dev {
					body.Detail = stack
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}

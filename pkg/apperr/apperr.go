// Package apperr defines the typed application errors and their stable codes.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Code stable machine-readable error code
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeDependencyFailure Code = "DEPENDENCY_FAILURE"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error application error carrying a code, a client-safe message and optional field errors.
type Error struct {
	Code    Code
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithField adds a field-level message.
func (e *Error) WithField(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

func InvalidState(message string) *Error {
	return New(CodeInvalidState, message)
}

func Unauthenticated(message string) *Error {
	return New(CodeUnauthenticated, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func Internal(err error) *Error {
	return Wrap(CodeInternal, "internal server error", err)
}

// CodeOf returns the code of err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(From(err)) == code
}

// From converts err to *Error. Known storage and validator errors get their proper code;
// anything else becomes INTERNAL_ERROR wrapping the original.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(CodeNotFound, "resource not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(CodeConflict, "resource already exists", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return Wrap(CodeValidation, "referenced resource does not exist", err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := Wrap(CodeValidation, "validation failed", err)
		for _, fe := range verrs {
			out.WithField(fieldPath(fe), describe(fe))
		}
		return out
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var numErr *strconv.NumError
	switch {
	case errors.As(err, &syntaxErr), err == io.EOF, err == io.ErrUnexpectedEOF:
		return Wrap(CodeValidation, "malformed request body", err)
	case errors.As(err, &typeErr):
		return Wrap(CodeValidation, "malformed request body", err).WithField(typeErr.Field, "must be a "+typeErr.Type.String())
	case errors.As(err, &numErr):
		return Wrap(CodeValidation, "malformed query parameter", err)
	}

	return Internal(err)
}

// fieldPath strips the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

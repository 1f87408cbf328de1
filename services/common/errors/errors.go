package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. The wrapped cause
// is ignored so errors.Is(err, ErrValidation) matches every validation error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of kind carrying err as its cause.
func Wrap(kind *Error, err error) *Error {
	return New(kind.Code, kind.Message, err)
}

// Sentinels. Never mutate these; use Wrap or the helpers below.
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Order ledger error kinds
var (
	ErrValidation         = New(http.StatusBadRequest, "Validation error", nil)
	ErrStorageUnavailable = New(http.StatusServiceUnavailable, "Storage unavailable", nil)
)

// Validation wraps err as a validation failure.
func Validation(err error) *Error {
	return Wrap(ErrValidation, err)
}

// Validationf formats a validation failure.
func Validationf(format string, args ...any) *Error {
	return Wrap(ErrValidation, fmt.Errorf(format, args...))
}

// StorageUnavailable wraps a failed store read or write.
func StorageUnavailable(err error) *Error {
	return Wrap(ErrStorageUnavailable, err)
}

// NotFound reports a missing resource. The order ledger never returns it for
// status changes; it is used by the HTTP surface for lookups.
func NotFound(what string) *Error {
	return Wrap(ErrNotFound, fmt.Errorf("%s not found", what))
}

// From converts any error into an *Error, defaulting to internal server error.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// ErrorMiddleware renders the last error attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := From(c.Errors.Last().Err)
		body := gin.H{"error": appErr.Message}
		if appErr.Err != nil && appErr.Code < http.StatusInternalServerError {
			body["details"] = appErr.Err.Error()
		}
		c.AbortWithStatusJSON(appErr.Code, body)
	}
}

// IsStorageUnavailable reports whether err is a storage failure.
func IsStorageUnavailable(err error) bool {
	return stderrors.Is(err, ErrStorageUnavailable)
}

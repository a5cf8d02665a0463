package errs

import (
	"fmt"
	"net/http"
	"strings"
)

// CustomError is an application error with a stable code, a message fit
// for end users and the HTTP status used when it is returned over HTTP.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is reports whether target carries the same code, so errors.Is matches a
// formatted error against its template.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Code == e.Code
}

// NewError builds the error registered under code. When the message template
// contains a formatting verb, details fill it in. Unknown codes yield ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	customErr, ok := errorMap[code]
	if !ok {
		customErr = errorMap[ErrUnknown]
	}

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if ok && len(details) > 0 && strings.Contains(customErr.Message, "%") {
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	}

	return &customErr
}

package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
	// Details is rendered next to the message, e.g. the blocking records of
	// a refused delete.
	Details any
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	te.Details = err.Details
	return true
}

// Is matches on code, status and message only, so NotFound("Genre") can be
// used as a sentinel regardless of details.
func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		HTTPCode: http.StatusNotFound,
		Message:  resource + " not found.",
		Code:     "not_found",
	}
}

// Conflict is returned when a write collides with a unique constraint.
func Conflict(resource string) error {
	return &Error{
		HTTPCode: http.StatusConflict,
		Message:  resource + " already exists.",
		Code:     "conflict",
	}
}

// IntegrityViolation is returned when a delete is refused because other
// records still reference the resource. blockers lists those records.
func IntegrityViolation(resource string, blockers any) error {
	return &Error{
		HTTPCode: http.StatusConflict,
		Message:  resource + " is still referenced and can't be deleted.",
		Code:     "integrity_violation",
		Details:  blockers,
	}
}

// ValidationFailed carries every field failure of a rejected mutation.
func ValidationFailed(resource string, failures any) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  resource + " is invalid.",
		Code:     "validation_failed",
		Details:  failures,
	}
}

func TooManyRequests() error {
	return &Error{
		HTTPCode: http.StatusTooManyRequests,
		Message:  "Too many requests, please try again later.",
		Code:     "too_many_requests",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		HTTPCode: http.StatusUnsupportedMediaType,
		Message:  "Unsupported Media Type",
		Code:     "unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  fmt.Sprintf("Unknown Parameter %q", param),
		Code:     "unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  msg,
		Code:     "validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  msg,
		Code:     "validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Malformed Payload",
		Code:     "malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Request body can't be empty.",
		Code:     "empty_request_body",
	}
}

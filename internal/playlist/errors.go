package playlist

import "net/http"

// Error codes surfaced to clients alongside the HTTP status. Every engine
// failure is one of these; anything else is a 500.
const (
	codeNotFound        = "not_found"
	codeUnauthorized    = "unauthorized"
	codeForbidden       = "forbidden"
	codeConflict        = "conflict"
	codeInvalidArgument = "invalid_argument"
	codeNoChange        = "no_change"
)

// opError is the engine's error domain. Operations return these directly;
// transactions are already rolled back by the time one propagates, so an
// opError never describes a partially applied state.
type opError struct {
	status int
	code   string
	msg    string
}

func (e *opError) Error() string {
	return e.msg
}

func errNotFound(msg string) *opError {
	return &opError{status: http.StatusNotFound, code: codeNotFound, msg: msg}
}

func errUnauthorized(msg string) *opError {
	return &opError{status: http.StatusUnauthorized, code: codeUnauthorized, msg: msg}
}

func errForbidden(msg string) *opError {
	return &opError{status: http.StatusForbidden, code: codeForbidden, msg: msg}
}

func errConflict(msg string) *opError {
	return &opError{status: http.StatusConflict, code: codeConflict, msg: msg}
}

func errInvalidArgument(msg string) *opError {
	return &opError{status: http.StatusBadRequest, code: codeInvalidArgument, msg: msg}
}

func errNoChange(msg string) *opError {
	return &opError{status: http.StatusBadRequest, code: codeNoChange, msg: msg}
}

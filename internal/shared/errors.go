package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// The wrapped error text is exactly what the caller sees in the envelope, so
// only client usage errors should be expressed as a RequestError. Upstream
// failures keep their own error and are mapped to a 500 by the handler.
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

func (r *RequestError) Unwrap() error {
	return r.Err
}

// ErrBodyTooLarge is only logged; callers still see the missing prompt envelope.
var ErrBodyTooLarge = errors.New("request body too large")

var (
	ErrMissingAuth   = &RequestError{Err: errors.New("missing authorization header"), StatusCode: 401}
	ErrInvalidFormat = &RequestError{Err: errors.New("invalid authentication format"), StatusCode: 401}
	ErrUnauthorized  = &RequestError{Err: errors.New("unauthorized"), StatusCode: 401}

	ErrMethodNotAllowed = &RequestError{Err: errors.New(MsgMethodNotAllowed), StatusCode: 405}
	ErrMissingPrompt    = &RequestError{Err: errors.New(MsgMissingPrompt), StatusCode: 400}

	ErrInternalServerError = &RequestError{Err: errors.New(MsgInternalServerErr), StatusCode: 500}

	ErrEmptyCandidates     = &MetricsError{Msg: "model returned no candidates", Code: "model_empty_response"}
	ErrFailedModelReq      = &MetricsError{Msg: "failed to send request to model", Code: "model_http_err"}
	ErrFailedClientInit    = &MetricsError{Msg: "failed to initialize model client", Code: "model_client_err"}
	ErrModelContext        = &MetricsError{Msg: "model context canceled", Code: "model_context_err"}
	ErrFailedSavingRecords = &MetricsError{Msg: "failed to save generation records", Code: "save_generations"}
)

// MetricsError labels a failure for the error counter. It never reaches the
// caller on its own; it is joined with the underlying error.
type MetricsError struct {
	Msg  string
	Code string
}

func (m *MetricsError) Error() string {
	return m.String()
}

func (m *MetricsError) String() string {
	return m.Msg
}

// ErrorCode returns the metrics code of the first MetricsError in err's chain,
// or "unknown".
func ErrorCode(err error) string {
	var merr *MetricsError
	if errors.As(err, &merr) {
		return merr.Code
	}
	return "unknown"
}

package chatapi

import (
	"encoding/json"
	"errors"
)

// APIError is the only error shape surfaced by the client. Message is always
// safe to show to an end user; the precedence is server "message" field,
// then server "error" field, then an operation-specific default, then the
// transport-level error text.
type APIError struct {
	// Op is the client operation that failed, e.g. "send_message".
	Op string
	// StatusCode is the HTTP status of the response, or 0 when the request
	// never produced one.
	StatusCode int
	// Message is the user-displayable failure description.
	Message string

	err error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.err
}

// AsAPIError unwraps err into an *APIError if one is present in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorBody is the JSON error envelope returned by the backend. Some
// deployments use "message", older ones "error".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newStatusError builds an APIError from a non-2xx response body.
func newStatusError(op string, status int, body []byte, defaultMsg string) *APIError {
	msg := defaultMsg
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Message != "":
			msg = eb.Message
		case eb.Error != "":
			msg = eb.Error
		}
	}
	return &APIError{Op: op, StatusCode: status, Message: msg}
}

// newTransportError builds an APIError for a request that never produced a
// usable response. The transport error text is the last-resort message.
func newTransportError(op string, err error) *APIError {
	return &APIError{Op: op, Message: err.Error(), err: err}
}

package saj

import (
	"fmt"
)

// SuccessCode is the envelope code the vendor uses for a successful call.
const SuccessCode = 200

// Application codes with a dedicated HTTP mapping.
const (
	CodeBadParams    = 200001
	CodeUnauthorized = 200010
	CodeForbidden    = 200011
)

// APIError is an application level failure: HTTP 2xx with an envelope code
// other than SuccessCode.
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("saj %s: code %d: %s", e.Op, e.Code, e.Msg)
}

// TransportError is a network failure (StatusCode 0) or an HTTP 4xx/5xx
// answer from the vendor.
type TransportError struct {
	Op         string
	StatusCode int
	Msg        string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("saj %s: http %d: %s", e.Op, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("saj %s: %s", e.Op, e.Msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

package microsoft

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies an ErrorResult.
type ErrorKind int

const (
	// ErrorKindHTTP means the server answered with a status of 400 or above.
	ErrorKindHTTP ErrorKind = iota + 1
	// ErrorKindTransport means no usable response arrived (DNS, TLS, reset, timeout).
	ErrorKindTransport
	// ErrorKindDecode means a successful status carried a body that is not JSON.
	ErrorKindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindHTTP:
		return "http"
	case ErrorKindTransport:
		return "transport"
	case ErrorKindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ErrorResult is the failure side of a Result. It serialises to the
// {"errorNumber": n, "error": "..."} shape.
type ErrorResult struct {
	Kind    ErrorKind `json:"-"`
	Number  int       `json:"errorNumber"`
	Message string    `json:"error"`

	cause error
}

// Error implements error.
func (e *ErrorResult) Error() string {
	return e.Message
}

// Unwrap exposes the status sentinel (see WrapError) or the transport cause.
func (e *ErrorResult) Unwrap() error {
	if e.Kind == ErrorKindHTTP {
		return WrapError(e.Number)
	}
	return e.cause
}

func httpFailure(status int, prefix string) *ErrorResult {
	return &ErrorResult{
		Kind:    ErrorKindHTTP,
		Number:  status,
		Message: fmt.Sprintf("%s returned HTTP error %d", prefix, status),
	}
}

func transportFailure(err error) *ErrorResult {
	code := TransportCode(err)
	return &ErrorResult{
		Kind:    ErrorKindTransport,
		Number:  code,
		Message: fmt.Sprintf("%d: %s", code, err.Error()),
		cause:   err,
	}
}

func decodeFailure(status int, err error) *ErrorResult {
	return &ErrorResult{
		Kind:    ErrorKindDecode,
		Number:  status,
		Message: fmt.Sprintf("Response with HTTP status %d is not valid JSON", status),
		cause:   err,
	}
}

// Result is either a JSON payload returned verbatim by the server or an
// ErrorResult. Check Failed (or Err) before using the payload.
type Result struct {
	body    json.RawMessage
	failure *ErrorResult
}

// Ok wraps a successful JSON body. An empty body is treated as JSON null.
func Ok(body []byte) Result {
	if len(body) == 0 {
		body = []byte("null")
	}
	return Result{body: json.RawMessage(body)}
}

// Fail wraps an ErrorResult.
func Fail(failure *ErrorResult) Result {
	return Result{failure: failure}
}

// Failed reports whether the result carries an ErrorResult.
func (r Result) Failed() bool {
	return r.failure != nil
}

// Failure returns the ErrorResult, or nil on success.
func (r Result) Failure() *ErrorResult {
	return r.failure
}

// Err returns the ErrorResult as an error, or nil on success.
func (r Result) Err() error {
	if r.failure == nil {
		return nil
	}
	return r.failure
}

// Body returns the raw JSON payload. It is nil for failures.
func (r Result) Body() json.RawMessage {
	return r.body
}

// Decode unmarshals the payload into v. A failed result returns its ErrorResult.
func (r Result) Decode(v any) error {
	if r.failure != nil {
		return r.failure
	}
	return json.Unmarshal(r.body, v)
}

// Field returns a top-level string field of an object payload, if present.
func (r Result) Field(name string) (string, bool) {
	if r.failure != nil {
		return "", false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(r.body, &obj); err != nil {
		return "", false
	}
	raw, ok := obj[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// MarshalJSON emits the payload verbatim, or the error shape on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.failure != nil {
		return json.Marshal(r.failure)
	}
	if len(r.body) == 0 {
		return []byte("null"), nil
	}
	return r.body, nil
}

// AsErrorResult extracts an ErrorResult from an error chain.
func AsErrorResult(err error) (*ErrorResult, bool) {
	var er *ErrorResult
	if errors.As(err, &er) {
		return er, true
	}
	return nil, false
}

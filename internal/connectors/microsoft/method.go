package microsoft

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP verb supported by the gateway.
type Method int

// Supported methods. The zero value is deliberately invalid.
const (
	MethodGet Method = iota + 1
	MethodPost
	MethodPatch
	MethodDelete
)

// ParseMethod resolves a case-insensitive verb name.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case http.MethodGet:
		return MethodGet, nil
	case http.MethodPost:
		return MethodPost, nil
	case http.MethodPatch:
		return MethodPatch, nil
	case http.MethodDelete:
		return MethodDelete, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	return m >= MethodGet && m <= MethodDelete
}

// HasBody reports whether requests with this method carry a JSON payload.
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPatch
}

// String returns the wire verb.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	case MethodPatch:
		return http.MethodPatch
	case MethodDelete:
		return http.MethodDelete
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

package microsoft

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeState serialises login parameters into the OAuth2 state value:
// unpadded base64url (RFC 4648 section 5) over the JSON encoding.
// A nil map encodes as JSON null.
func EncodeState(params map[string]any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode state parameters: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeState reverses EncodeState. Padded input is accepted, as is the
// older form that used ',' in place of '='.
//
// Values come back as encoding/json decodes them into an interface: numbers
// are float64, arrays []any and objects map[string]any. Only parameters made of
// those JSON-native types compare equal after a round trip; an int 3 returns
// as float64(3) and a struct returns as a map.
func DecodeState(state string) (map[string]any, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(state), "=,")

	data, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return params, nil
}

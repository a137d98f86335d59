package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/custodia-labs/outlookcal/internal/logger"
)

// MakeAPICall sends one authenticated request and returns the JSON response
// verbatim. HTTP and transport failures come back inside the Result; the
// error return is reserved for caller bugs such as an unsupported method, an
// unencodable payload or a malformed URL, and is reported before any I/O.
//
// A payload of type []byte, json.RawMessage or string is sent as-is; anything else is
// JSON-encoded. The payload is ignored for GET and DELETE.
func (c *Client) MakeAPICall(
	ctx context.Context, accessToken string, method Method, url string, payload any,
) (Result, error) {
	if !method.Valid() {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	var body io.Reader = http.NoBody
	if method.HasBody() {
		data, err := encodePayload(payload)
		if err != nil {
			return Result{}, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method.String(), url, body)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client-request-id", requestID)
	req.Header.Set("return-client-request-id", "true")
	if method.HasBody() {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.pace(ctx); err != nil {
		return Fail(transportFailure(err)), nil
	}

	logger.Debug("microsoft: %s %s (request-id %s)", method, url, requestID)

	status, header, respBody, err := c.send(req)
	if IsFailure(status) {
		logger.Debug("microsoft: %s %s failed with status %d", method, url, status)
		if logger.Enabled(logger.LevelDebug) && len(respBody) > 0 {
			logger.Debug("microsoft: error body: %s", errorSnippet(respBody))
		}
		if IsRateLimited(status) && c.rateLimiter != nil {
			c.rateLimiter.RecordRateLimit(header)
		}
		return Fail(httpFailure(status, "Request")), nil
	}
	if err != nil {
		logger.Debug("microsoft: %s %s transport error: %v", method, url, err)
		return Fail(transportFailure(err)), nil
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return Ok(nil), nil
	}
	if !json.Valid(respBody) {
		return Fail(decodeFailure(status, fmt.Errorf("invalid JSON in %d-byte body", len(respBody)))), nil
	}

	logger.Debug("microsoft: %s %s returned %d (%d bytes)", method, url, status, len(respBody))
	return Ok(respBody), nil
}

func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return data, nil
	}
}

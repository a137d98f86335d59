package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/outlookcal/internal/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := NewConfigBuilder(ProfileGraph).
		SetClientID("client").
		SetClientSecret("secret").
		SetAuthority(server.URL).
		SetAPIBaseURL(server.URL).
		Build()
	return NewClient(cfg, opts...), server
}

func TestMakeAPICall_Headers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "true", r.Header.Get("return-client-request-id"))
		assert.Empty(t, r.Header.Get("Content-Type"))

		_, err := uuid.Parse(r.Header.Get("client-request-id"))
		assert.NoError(t, err)

		_, _ = w.Write([]byte(`{"value":[]}`))
	})

	res, err := client.MakeAPICall(context.Background(), "access-token", MethodGet, client.URL("/me/events"), nil)
	require.NoError(t, err)

	assert.False(t, res.Failed())
	assert.JSONEq(t, `{"value":[]}`, string(res.Body()))
}

func TestMakeAPICall_UniqueRequestIDs(t *testing.T) {
	seen := make(map[string]bool)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen[r.Header.Get("client-request-id")] = true
		_, _ = w.Write([]byte(`{}`))
	})

	for i := 0; i < 3; i++ {
		_, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
		require.NoError(t, err)
	}

	assert.Len(t, seen, 3)
}

func TestMakeAPICall_PostBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"subject":"Standup"}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"AAMk1","subject":"Standup"}`))
	})

	payload := map[string]string{"subject": "Standup"}
	res, err := client.MakeAPICall(context.Background(), "tok", MethodPost, client.URL("/me/events"), payload)
	require.NoError(t, err)

	id, ok := res.Field("id")
	assert.True(t, ok)
	assert.Equal(t, "AAMk1", id)
}

func TestMakeAPICall_PatchVerb(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"subject":"Moved"}`, string(body))
		_, _ = w.Write([]byte(`{"id":"AAMk1"}`))
	})

	res, err := client.MakeAPICall(context.Background(), "tok", MethodPatch,
		client.URL("/me/events/AAMk1"), json.RawMessage(`{"subject":"Moved"}`))
	require.NoError(t, err)

	assert.False(t, res.Failed())
}

func TestMakeAPICall_DeleteIgnoresPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.WriteHeader(http.StatusNoContent)
	})

	res, err := client.MakeAPICall(context.Background(), "tok", MethodDelete,
		client.URL("/me/events/AAMk1"), map[string]string{"ignored": "yes"})
	require.NoError(t, err)

	assert.False(t, res.Failed())
	assert.Equal(t, "null", string(res.Body()))
}

func TestMakeAPICall_HTTPError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{name: "not found", status: http.StatusNotFound, sentinel: ErrNotFound},
		{name: "unauthorised", status: http.StatusUnauthorized, sentinel: ErrUnauthorised},
		{name: "server error", status: http.StatusBadGateway, sentinel: ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"code":"ErrorItemNotFound"}}`))
			})

			res, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me/events/x"), nil)
			require.NoError(t, err)
			require.True(t, res.Failed())

			failure := res.Failure()
			assert.Equal(t, ErrorKindHTTP, failure.Kind)
			assert.Equal(t, tt.status, failure.Number)
			assert.ErrorIs(t, res.Err(), tt.sentinel)
			assert.Nil(t, res.Body())
		})
	}
}

func TestMakeAPICall_NotFoundShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me/events/x"), nil)
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"errorNumber":404,"error":"Request returned HTTP error 404"}`, string(out))
}

func TestMakeAPICall_InvalidMethod(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.MakeAPICall(context.Background(), "tok", Method(0), client.URL("/me"), nil)
	assert.ErrorIs(t, err, ErrInvalidMethod)

	_, err = client.MakeAPICall(context.Background(), "tok", Method(42), client.URL("/me"), nil)
	assert.ErrorIs(t, err, ErrInvalidMethod)

	assert.Zero(t, calls.Load())
}

func TestMakeAPICall_InvalidPayload(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.MakeAPICall(context.Background(), "tok", MethodPost, client.URL("/me/events"), make(chan int))

	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Zero(t, calls.Load())
}

func TestMakeAPICall_MalformedURL(t *testing.T) {
	client := NewClient(NewConfigBuilder(ProfileGraph).Build())

	_, err := client.MakeAPICall(context.Background(), "tok", MethodGet, "://bad url", nil)

	assert.Error(t, err)
}

func TestMakeAPICall_TransportError(t *testing.T) {
	client := NewClient(NewConfigBuilder(ProfileGraph).Build(), WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection exploded")
		}),
	}))

	res, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)
	require.True(t, res.Failed())

	failure := res.Failure()
	assert.Equal(t, ErrorKindTransport, failure.Kind)
	assert.Equal(t, TransportCodeUnknown, failure.Number)
	assert.True(t, strings.HasPrefix(failure.Message, "1: "))
	assert.Contains(t, failure.Message, "connection exploded")
}

func TestMakeAPICall_CancelledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := client.MakeAPICall(ctx, "tok", MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)
	require.True(t, res.Failed())

	assert.Equal(t, TransportCodeCancelled, res.Failure().Number)
	assert.ErrorIs(t, res.Err(), context.Canceled)
}

func TestMakeAPICall_InvalidJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	res, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)
	require.True(t, res.Failed())

	assert.Equal(t, ErrorKindDecode, res.Failure().Kind)
	assert.Equal(t, http.StatusOK, res.Failure().Number)
}

func TestMakeAPICall_RateLimitRecorded(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimit)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}, WithRateLimiter(rl))

	res, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, res.Err(), ErrRateLimited)
	assert.False(t, rl.Allow())
}

func TestClient_Options(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{}`))
	}, WithUserAgent("custom-agent"), WithTimeout(5*time.Second))

	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)

	_, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)
}

func captureLog(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	logger.SetOutput(buf)
	logger.SetVerbose(verbose)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	})
	return buf
}

func TestMakeAPICall_PacingWaitsOnceBurstIsSpent(t *testing.T) {
	buf := captureLog(t, true)
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 2, BurstSize: 1})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, WithRateLimiter(rl))

	_, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "waiting for a slot")

	start := time.Now()
	res, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Contains(t, buf.String(), "rate limiter: waiting for a slot")
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestMakeAPICall_ErrorBodyLoggedWhenVerbose(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"ErrorAccessDenied"}}`))
	}

	t.Run("verbose", func(t *testing.T) {
		buf := captureLog(t, true)
		client, _ := newTestClient(t, handler)

		_, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `error body: {"error":{"code":"ErrorAccessDenied"}}`)
	})

	t.Run("quiet", func(t *testing.T) {
		buf := captureLog(t, false)
		client, _ := newTestClient(t, handler)

		_, err := client.MakeAPICall(context.Background(), "tok", MethodGet, client.URL("/me"), nil)
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestErrorSnippet_Truncates(t *testing.T) {
	long := strings.Repeat("x", 600)

	assert.Equal(t, "short", errorSnippet([]byte("  short\n")))
	assert.Equal(t, strings.Repeat("x", 512)+"...", errorSnippet([]byte(long)))
}

// Package oauth receives the authorization redirect on a loopback address
// and opens the user's browser at the login URL.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
	"github.com/custodia-labs/outlookcal/internal/logger"
)

// NonceParam is the state parameter carrying the per-login nonce.
const NonceParam = "nonce"

// ErrStateMismatch is returned when the redirect's state does not carry the
// nonce this server was started with.
var ErrStateMismatch = errors.New("oauth: state mismatch")

// Callback is a successful redirect: the authorization code plus the
// parameters decoded from the state value.
type Callback struct {
	Code   string
	Params map[string]any
}

// CallbackServer listens for the provider's redirect and hands the code to
// WaitForCallback.
type CallbackServer struct {
	mu       sync.Mutex
	host     string
	port     int
	path     string
	nonce    string
	resultCh chan Callback
	errCh    chan error
	server   *http.Server
	listener net.Listener
}

// NewCallbackServer creates a server for redirectURI, which must be an
// http loopback URL. Port 0 in the URI picks a free port.
func NewCallbackServer(redirectURI, nonce string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parse redirect uri: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect uri %q is not an http loopback address", redirectURI)
	}

	port := 80
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return nil, fmt.Errorf("parse redirect uri port: %w", err)
		}
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	return &CallbackServer{
		host:     u.Hostname(),
		port:     port,
		path:     path,
		nonce:    nonce,
		resultCh: make(chan Callback, 1),
		errCh:    make(chan error, 1),
	}, nil
}

// Start begins listening on 127.0.0.1.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.fail(err)
		}
	}()

	logger.Debug("oauth: callback server listening on %s", s.RedirectURI())
	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html")

	if errParam := q.Get("error"); errParam != "" {
		errDesc := q.Get("error_description")
		s.fail(fmt.Errorf("oauth error: %s - %s", errParam, errDesc))
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", errDesc))
		return
	}

	params, err := microsoft.DecodeState(q.Get("state"))
	if err != nil {
		s.fail(err)
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", "invalid state parameter"))
		return
	}
	if got, _ := params[NonceParam].(string); got != s.nonce {
		s.fail(ErrStateMismatch)
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", "invalid state parameter"))
		return
	}

	code := q.Get("code")
	if code == "" {
		s.fail(errors.New("no authorization code received"))
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed", "no code received"))
		return
	}

	select {
	case s.resultCh <- Callback{Code: code, Params: params}:
	default:
	}

	_, _ = fmt.Fprint(w, resultHTML("Signed in", "You can close this window and return to the terminal."))
}

func (s *CallbackServer) fail(err error) {
	select {
	case s.errCh <- err:
	default:
	}
}

// WaitForCallback blocks until a redirect arrives, ctx is done or timeout
// elapses.
func (s *CallbackServer) WaitForCallback(ctx context.Context, timeout time.Duration) (Callback, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case cb := <-s.resultCh:
		return cb, nil
	case err := <-s.errCh:
		return Callback{}, err
	case <-ctx.Done():
		return Callback{}, fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Stop shuts down the server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the listening port.
func (s *CallbackServer) Port() int {
	return s.port
}

// RedirectURI returns the loopback URI the provider should redirect to. It
// keeps the host of the configured URI, which must match the app
// registration exactly.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(s.host, strconv.Itoa(s.port)), s.path)
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>outlookcal</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
               display: flex; justify-content: center; align-items: center; height: 100vh;
               margin: 0; background: #FAFAFA; }
        .container { text-align: center; background: white; padding: 48px 64px;
                     border-radius: 16px; border: 1px solid #C7C8CC; }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; }
        p { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}

// NewNonce returns a random value for the login state.
func NewNonce() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// OpenBrowser opens the default browser at url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

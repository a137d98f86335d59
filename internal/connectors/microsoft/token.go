package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/outlookcal/internal/logger"
)

// GetTokenFromAuthCode exchanges an authorization code for tokens. The
// identity provider's JSON is returned verbatim on success.
func (c *Client) GetTokenFromAuthCode(ctx context.Context, code, redirectURI string) Result {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	data.Set("client_id", c.cfg.clientID)
	data.Set("client_secret", c.cfg.clientSecret)
	data.Set("scope", c.cfg.scopes.String())

	return c.requestToken(ctx, data)
}

// GetTokenFromRefreshToken obtains a new access token from a refresh token.
func (c *Client) GetTokenFromRefreshToken(ctx context.Context, refreshToken, redirectURI string) Result {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("redirect_uri", redirectURI)
	data.Set("scope", c.cfg.scopes.String())
	data.Set("client_id", c.cfg.clientID)
	data.Set("client_secret", c.cfg.clientSecret)

	return c.requestToken(ctx, data)
}

// requestToken posts a token grant. The token functions only return a Result,
// so a token URL that cannot be parsed (a bad authority or tenant) surfaces as
// a transport failure with code 1 and is logged as a warning.
func (c *Client) requestToken(ctx context.Context, data url.Values) Result {
	tokenURL := c.cfg.Endpoint().TokenURL

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		logger.Warn("microsoft: token endpoint %q is malformed: %v", tokenURL, err)
		return Fail(transportFailure(fmt.Errorf("create request: %w", err)))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	logger.Debug("microsoft: token request (%s) to %s", data.Get("grant_type"), tokenURL)

	status, _, body, err := c.send(req)
	if IsFailure(status) {
		logger.Debug("microsoft: token request failed with status %d", status)
		return Fail(httpFailure(status, "Token request"))
	}
	if err != nil {
		logger.Debug("microsoft: token request transport error: %v", err)
		return Fail(transportFailure(err))
	}
	if !json.Valid(body) {
		return Fail(decodeFailure(status, fmt.Errorf("invalid JSON in token response")))
	}
	return Ok(body)
}

// tokenPayload mirrors the identity platform's token response.
type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token"`
}

// TokenFromResult converts a successful token Result into an oauth2.Token.
// All raw response fields remain reachable through Token.Extra.
func TokenFromResult(res Result) (*oauth2.Token, error) {
	var payload tokenPayload
	if err := res.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("microsoft: token response has no access_token")
	}

	var raw map[string]any
	if err := json.Unmarshal(res.Body(), &raw); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		ExpiresIn:    payload.ExpiresIn,
	}
	if payload.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return tok.WithExtra(raw), nil
}

// TokenSource returns an oauth2.TokenSource that refreshes through
// GetTokenFromRefreshToken and caches the access token until it expires.
// A rotated refresh token replaces the previous one; otherwise the old one is kept.
func (c *Client) TokenSource(ctx context.Context, refreshToken, redirectURI string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &refreshTokenSource{
		ctx:          ctx,
		client:       c,
		refreshToken: refreshToken,
		redirectURI:  redirectURI,
	})
}

type refreshTokenSource struct {
	ctx         context.Context
	client      *Client
	redirectURI string

	mu           sync.Mutex
	refreshToken string
}

// Token implements oauth2.TokenSource.
func (s *refreshTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.client.GetTokenFromRefreshToken(s.ctx, s.refreshToken, s.redirectURI)
	tok, err := TokenFromResult(res)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if tok.RefreshToken == "" {
		tok.RefreshToken = s.refreshToken
	} else {
		s.refreshToken = tok.RefreshToken
	}
	return tok, nil
}

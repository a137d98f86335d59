package microsoft

import (
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	msendpoints "golang.org/x/oauth2/microsoft"
)

// Config is an immutable snapshot of client identity, scopes and login
// parameters. Create one with a ConfigBuilder.
type Config struct {
	clientID     string
	clientSecret string
	tenant       string
	authority    string
	apiBaseURL   string
	profile      Profile
	scopes       ScopeSet
	parameters   map[string]any
}

// ClientID returns the application (client) id.
func (c Config) ClientID() string { return c.clientID }

// ClientSecret returns the application secret.
func (c Config) ClientSecret() string { return c.clientSecret }

// Tenant returns the directory tenant used in identity platform URLs.
func (c Config) Tenant() string { return c.tenant }

// Profile returns the API surface this configuration targets.
func (c Config) Profile() Profile { return c.profile }

// Scopes returns a copy of the configured scopes.
func (c Config) Scopes() ScopeSet { return c.scopes.clone() }

// APIBaseURL returns the root URL for resource requests.
func (c Config) APIBaseURL() string { return c.apiBaseURL }

// Parameters returns a copy of the state parameters.
func (c Config) Parameters() map[string]any { return copyParams(c.parameters) }

// Endpoint returns the authorize and token endpoints for the configured
// authority and tenant.
func (c Config) Endpoint() oauth2.Endpoint {
	if c.authority == DefaultAuthority {
		ep := msendpoints.AzureADEndpoint(c.tenant)
		ep.AuthStyle = oauth2.AuthStyleInParams
		return ep
	}
	base := c.authority + "/" + c.tenant + "/oauth2/v2.0"
	return oauth2.Endpoint{
		AuthURL:   base + "/authorize",
		TokenURL:  base + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// LoginURL builds the authorization URL the user is redirected to. The
// configured parameters travel in the state value.
func (c Config) LoginURL(redirectURI string) (string, error) {
	state, err := EncodeState(c.parameters)
	if err != nil {
		return "", err
	}

	params := url.Values{
		"client_id":     {c.clientID},
		"redirect_uri":  {redirectURI},
		"state":         {state},
		"scope":         {c.scopes.String()},
		"response_type": {"code"},
	}

	return c.Endpoint().AuthURL + "?" + params.Encode(), nil
}

// LogoutURL builds the sign-out URL that returns the user to redirectURI.
func (c Config) LogoutURL(redirectURI string) string {
	params := url.Values{"post_logout_redirect_uri": {redirectURI}}
	return c.authority + "/" + c.tenant + c.profile.LogoutPath + "?" + params.Encode()
}

// ConfigBuilder accumulates configuration before the client is created.
// It is not safe for concurrent use; call Build once setup is complete.
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder starts a configuration for the given profile with the
// default scopes: openid, calendar read-write and offline access.
func NewConfigBuilder(profile Profile) *ConfigBuilder {
	return &ConfigBuilder{cfg: Config{
		tenant:     DefaultTenant,
		authority:  DefaultAuthority,
		apiBaseURL: profile.APIBaseURL,
		profile:    profile,
		scopes:     NewScopeSet("openid", profile.ScopeCalendar, profile.ScopeOfflineAccess),
	}}
}

// SetClientID sets the application (client) id.
func (b *ConfigBuilder) SetClientID(id string) *ConfigBuilder {
	b.cfg.clientID = id
	return b
}

// SetClientSecret sets the application secret.
func (b *ConfigBuilder) SetClientSecret(secret string) *ConfigBuilder {
	b.cfg.clientSecret = secret
	return b
}

// SetTenant overrides the "common" tenant.
func (b *ConfigBuilder) SetTenant(tenant string) *ConfigBuilder {
	if tenant = strings.Trim(strings.TrimSpace(tenant), "/"); tenant != "" {
		b.cfg.tenant = tenant
	}
	return b
}

// SetAuthority overrides the identity platform host, e.g. for national clouds.
func (b *ConfigBuilder) SetAuthority(authority string) *ConfigBuilder {
	if authority = strings.TrimRight(strings.TrimSpace(authority), "/"); authority != "" {
		b.cfg.authority = authority
	}
	return b
}

// SetAPIBaseURL overrides the profile's API root.
func (b *ConfigBuilder) SetAPIBaseURL(base string) *ConfigBuilder {
	if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
		b.cfg.apiBaseURL = base
	}
	return b
}

// SetParameters sets data to round-trip through the login flow. The values
// travel as JSON, so DecodeState yields float64 for any number and maps for
// structs; see DecodeState.
func (b *ConfigBuilder) SetParameters(params map[string]any) *ConfigBuilder {
	b.cfg.parameters = copyParams(params)
	return b
}

// AddScope appends a scope.
func (b *ConfigBuilder) AddScope(scope string) *ConfigBuilder {
	b.cfg.scopes.Add(scope)
	return b
}

// RemoveScope removes the first occurrence of a scope.
func (b *ConfigBuilder) RemoveScope(scope string) *ConfigBuilder {
	b.cfg.scopes.Remove(scope)
	return b
}

// AddScopeCalendar requests calendar read-write access.
func (b *ConfigBuilder) AddScopeCalendar() *ConfigBuilder {
	return b.AddScope(b.cfg.profile.ScopeCalendar)
}

// RemoveScopeCalendar drops one calendar read-write scope.
func (b *ConfigBuilder) RemoveScopeCalendar() *ConfigBuilder {
	return b.RemoveScope(b.cfg.profile.ScopeCalendar)
}

// AddScopeContacts requests read access to contacts.
func (b *ConfigBuilder) AddScopeContacts() *ConfigBuilder {
	return b.AddScope(b.cfg.profile.ScopeContacts)
}

// AddScopeUserInfo requests the basic profile of the signed-in user.
func (b *ConfigBuilder) AddScopeUserInfo() *ConfigBuilder {
	return b.AddScope(b.cfg.profile.ScopeUserInfo)
}

// AddScopeOfflineAccess requests a refresh token.
func (b *ConfigBuilder) AddScopeOfflineAccess() *ConfigBuilder {
	return b.AddScope(b.cfg.profile.ScopeOfflineAccess)
}

// RemoveScopeOfflineAccess stops requesting a refresh token.
func (b *ConfigBuilder) RemoveScopeOfflineAccess() *ConfigBuilder {
	return b.RemoveScope(b.cfg.profile.ScopeOfflineAccess)
}

// Scopes returns the scopes accumulated so far.
func (b *ConfigBuilder) Scopes() ScopeSet {
	return b.cfg.scopes.clone()
}

// Build returns an immutable snapshot. Further builder calls do not affect it.
func (b *ConfigBuilder) Build() Config {
	cfg := b.cfg
	cfg.scopes = b.cfg.scopes.clone()
	cfg.parameters = copyParams(b.cfg.parameters)
	return cfg
}

func copyParams(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package file

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
)

// Config keys, relative to the [outlook_calendar] table.
const (
	section = "outlook_calendar."

	KeyClientID          = section + "client_id"
	KeyClientSecret      = section + "client_secret"
	KeyProfile           = section + "profile"
	KeyTenant            = section + "tenant"
	KeyAuthority         = section + "authority"
	KeyAPIBaseURL        = section + "api_base_url"
	KeyRedirectURI       = section + "redirect_uri"
	KeyScopes            = section + "scopes"
	KeyTimeoutSeconds    = section + "timeout_seconds"
	KeyRequestsPerSecond = section + "requests_per_second"
	KeyBurst             = section + "burst"
)

// Environment overrides.
const (
	EnvClientID     = "OUTLOOKCAL_CLIENT_ID"
	EnvClientSecret = "OUTLOOKCAL_CLIENT_SECRET"
)

// DefaultRedirectURI is the loopback address used by the login command when
// none is configured. It must be registered on the app.
const DefaultRedirectURI = "http://localhost:8400/callback"

// ErrMissingClientID is returned when neither the file nor the environment
// supplies a client id.
var ErrMissingClientID = errors.New("config: client_id is not set")

// ErrUnknownKey is returned by SetSetting for keys outside [outlook_calendar].
var ErrUnknownKey = errors.New("config: unknown key")

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindList
	kindProfile
)

var keyKinds = map[string]valueKind{
	KeyClientID:          kindString,
	KeyClientSecret:      kindString,
	KeyProfile:           kindProfile,
	KeyTenant:            kindString,
	KeyAuthority:         kindString,
	KeyAPIBaseURL:        kindString,
	KeyRedirectURI:       kindString,
	KeyScopes:            kindList,
	KeyTimeoutSeconds:    kindInt,
	KeyRequestsPerSecond: kindFloat,
	KeyBurst:             kindInt,
}

// Settings are the resolved [outlook_calendar] values.
type Settings struct {
	ClientID     string
	ClientSecret string
	Profile      string
	Tenant       string
	Authority    string
	APIBaseURL   string
	RedirectURI  string
	// Scopes are requested in addition to the profile defaults.
	Scopes            []string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// LoadSettings reads settings from store and applies environment overrides.
// A nil getenv uses os.Getenv.
func LoadSettings(store *ConfigStore, getenv func(string) string) Settings {
	if getenv == nil {
		getenv = os.Getenv
	}

	s := Settings{
		ClientID:          store.GetString(KeyClientID),
		ClientSecret:      store.GetString(KeyClientSecret),
		Profile:           store.GetString(KeyProfile),
		Tenant:            store.GetString(KeyTenant),
		Authority:         store.GetString(KeyAuthority),
		APIBaseURL:        store.GetString(KeyAPIBaseURL),
		RedirectURI:       store.GetString(KeyRedirectURI),
		Scopes:            store.GetStringSlice(KeyScopes),
		RequestsPerSecond: store.GetFloat(KeyRequestsPerSecond),
		Burst:             store.GetInt(KeyBurst),
	}
	if secs := store.GetInt(KeyTimeoutSeconds); secs > 0 {
		s.Timeout = time.Duration(secs) * time.Second
	}

	if v := getenv(EnvClientID); v != "" {
		s.ClientID = v
	}
	if v := getenv(EnvClientSecret); v != "" {
		s.ClientSecret = v
	}
	if s.RedirectURI == "" {
		s.RedirectURI = DefaultRedirectURI
	}
	return s
}

// Validate checks the settings needed to talk to the identity platform.
// API calls with an existing access token need none of them.
func (s Settings) Validate() error {
	if s.ClientID == "" {
		return ErrMissingClientID
	}
	return nil
}

// Builder starts a ConfigBuilder from the settings. The caller may add
// scopes or parameters before calling Build.
func (s Settings) Builder() (*microsoft.ConfigBuilder, error) {
	profile, err := microsoft.ParseProfile(s.Profile)
	if err != nil {
		return nil, err
	}

	b := microsoft.NewConfigBuilder(profile).
		SetClientID(s.ClientID).
		SetClientSecret(s.ClientSecret).
		SetTenant(s.Tenant).
		SetAuthority(s.Authority).
		SetAPIBaseURL(s.APIBaseURL)
	for _, scope := range s.Scopes {
		if !b.Scopes().Contains(scope) {
			b.AddScope(scope)
		}
	}
	return b, nil
}

// ClientOptions returns the client options implied by the settings. Pacing
// is enabled only when requests_per_second is set.
func (s Settings) ClientOptions() []microsoft.Option {
	var opts []microsoft.Option
	if s.Timeout > 0 {
		opts = append(opts, microsoft.WithTimeout(s.Timeout))
	}
	if s.RequestsPerSecond > 0 {
		opts = append(opts, microsoft.WithRateLimiter(microsoft.NewRateLimiter(microsoft.RateLimitConfig{
			RequestsPerSecond: s.RequestsPerSecond,
			BurstSize:         s.Burst,
		})))
	}
	return opts
}

// SettingKey resolves a key given with or without the "outlook_calendar."
// prefix.
func SettingKey(name string) (string, error) {
	key := strings.TrimSpace(name)
	if !strings.HasPrefix(key, section) {
		key = section + key
	}
	if _, ok := keyKinds[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	return key, nil
}

// SettingKeys lists the known keys in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetSetting parses raw for the key's type and writes it to the store's file.
// Scopes are space separated; an empty value stores an empty list.
func SetSetting(store *ConfigStore, name, raw string) error {
	key, err := SettingKey(name)
	if err != nil {
		return err
	}

	var value any
	switch keyKinds[key] {
	case kindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("config: %s must be a non-negative integer, got %q", key, raw)
		}
		value = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || f < 0 {
			return fmt.Errorf("config: %s must be a non-negative number, got %q", key, raw)
		}
		value = f
	case kindList:
		value = strings.Fields(raw)
	case kindProfile:
		if _, err := microsoft.ParseProfile(raw); err != nil {
			return err
		}
		value = strings.ToLower(strings.TrimSpace(raw))
	default:
		value = strings.TrimSpace(raw)
	}

	return store.Set(key, value)
}

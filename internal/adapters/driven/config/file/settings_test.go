package file

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadSettings(t *testing.T) {
	dir := writeConfig(t, `
[outlook_calendar]
client_id = "file-id"
client_secret = "file-secret"
profile = "outlook"
tenant = "contoso.onmicrosoft.com"
scopes = ["Contacts.Read"]
timeout_seconds = 5
`)
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	s := LoadSettings(store, envMap(nil))

	assert.Equal(t, "file-id", s.ClientID)
	assert.Equal(t, "file-secret", s.ClientSecret)
	assert.Equal(t, "outlook", s.Profile)
	assert.Equal(t, "contoso.onmicrosoft.com", s.Tenant)
	assert.Equal(t, []string{"Contacts.Read"}, s.Scopes)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, DefaultRedirectURI, s.RedirectURI)
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
[outlook_calendar]
client_id = "file-id"
client_secret = "file-secret"
`)
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	s := LoadSettings(store, envMap(map[string]string{
		EnvClientID:     "env-id",
		EnvClientSecret: "env-secret",
	}))

	assert.Equal(t, "env-id", s.ClientID)
	assert.Equal(t, "env-secret", s.ClientSecret)
}

func TestSettings_Builder(t *testing.T) {
	s := Settings{
		ClientID:     "id",
		ClientSecret: "secret",
		Profile:      "outlook",
		Tenant:       "contoso.onmicrosoft.com",
		Scopes:       []string{"https://outlook.office.com/calendars.readwrite", "https://outlook.office.com/mail.read"},
	}

	b, err := s.Builder()
	require.NoError(t, err)
	cfg := b.Build()

	assert.Equal(t, microsoft.ProfileOutlook, cfg.Profile())
	assert.Equal(t, "id", cfg.ClientID())
	assert.Equal(t, "contoso.onmicrosoft.com", cfg.Tenant())
	assert.Equal(t, 1, cfg.Scopes().Count("https://outlook.office.com/calendars.readwrite"))
	assert.True(t, cfg.Scopes().Contains("https://outlook.office.com/mail.read"))
}

func TestSettings_Builder_UnknownProfile(t *testing.T) {
	_, err := Settings{ClientID: "id", Profile: "exchange"}.Builder()

	assert.ErrorIs(t, err, microsoft.ErrUnknownProfile)
}

func TestSettings_Builder_APIBaseURL(t *testing.T) {
	b, err := Settings{APIBaseURL: "http://127.0.0.1:9000/v1.0"}.Builder()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000/v1.0", b.Build().APIBaseURL())
}

func TestSettings_Validate(t *testing.T) {
	assert.ErrorIs(t, Settings{}.Validate(), ErrMissingClientID)
	assert.NoError(t, Settings{ClientID: "id"}.Validate())
}

func TestSettings_ClientOptions(t *testing.T) {
	assert.Empty(t, Settings{}.ClientOptions())

	s := Settings{Timeout: time.Second, RequestsPerSecond: 1, Burst: 1}
	assert.Len(t, s.ClientOptions(), 2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := microsoft.NewConfigBuilder(microsoft.ProfileGraph).SetAPIBaseURL(server.URL).Build()
	client := microsoft.NewClient(cfg, s.ClientOptions()...)

	res, err := client.MakeAPICall(context.Background(), "tok", microsoft.MethodGet, client.URL("/me"), nil)
	require.NoError(t, err)
	assert.False(t, res.Failed())
}

func TestSetSetting_PersistsTypedValues(t *testing.T) {
	dir := writeConfig(t, `
[outlook_calendar]
client_id = "kept"
`)
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, SetSetting(store, "client_secret", "s3cret"))
	require.NoError(t, SetSetting(store, "outlook_calendar.profile", "Outlook"))
	require.NoError(t, SetSetting(store, "scopes", "Contacts.Read  User.Read"))
	require.NoError(t, SetSetting(store, "timeout_seconds", "12"))
	require.NoError(t, SetSetting(store, "requests_per_second", "2.5"))
	require.NoError(t, SetSetting(store, "burst", "4"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	s := LoadSettings(reopened, envMap(nil))

	assert.Equal(t, "kept", s.ClientID)
	assert.Equal(t, "s3cret", s.ClientSecret)
	assert.Equal(t, "outlook", s.Profile)
	assert.Equal(t, []string{"Contacts.Read", "User.Read"}, s.Scopes)
	assert.Equal(t, 12*time.Second, s.Timeout)
	assert.Equal(t, 2.5, s.RequestsPerSecond)
	assert.Equal(t, 4, s.Burst)
}

func TestSetSetting_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "unknown key", key: "colour", value: "blue", wantErr: ErrUnknownKey},
		{name: "other section", key: "search.mode", value: "full", wantErr: ErrUnknownKey},
		{name: "unknown profile", key: "profile", value: "exchange", wantErr: microsoft.ErrUnknownProfile},
		{name: "non-numeric timeout", key: "timeout_seconds", value: "soon"},
		{name: "negative burst", key: "burst", value: "-1"},
		{name: "non-numeric rate", key: "requests_per_second", value: "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewConfigStore(t.TempDir())
			require.NoError(t, err)

			err = SetSetting(store, tt.key, tt.value)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			_, statErr := os.Stat(store.Path())
			assert.True(t, os.IsNotExist(statErr), "nothing written on a rejected value")
		})
	}
}

func TestSettingKey(t *testing.T) {
	key, err := SettingKey("redirect_uri")
	require.NoError(t, err)
	assert.Equal(t, KeyRedirectURI, key)

	key, err = SettingKey(KeyBurst)
	require.NoError(t, err)
	assert.Equal(t, KeyBurst, key)

	assert.Contains(t, SettingKeys(), KeyClientSecret)
	assert.Len(t, SettingKeys(), 11)
}

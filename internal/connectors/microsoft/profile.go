package microsoft

import (
	"fmt"
	"strings"
)

// Identity platform defaults.
const (
	DefaultAuthority = "https://login.microsoftonline.com"
	DefaultTenant    = "common"
)

// Profile describes one of the two API surfaces the client can talk to.
// The legacy Outlook REST API uses PascalCase field names and resource URI
// scopes; Microsoft Graph uses camelCase fields and short scope names.
type Profile struct {
	// Name identifies the profile in configuration ("graph" or "outlook").
	Name string
	// APIBaseURL is the root every resource path is appended to.
	APIBaseURL string
	// UserInfoURL is the endpoint returning the signed-in user.
	UserInfoURL string
	// LogoutPath is appended to {authority}/{tenant}.
	LogoutPath string

	// Scope constants used by the convenience scope helpers.
	ScopeCalendar      string
	ScopeContacts      string
	ScopeUserInfo      string
	ScopeOfflineAccess string

	// PascalCase reports whether request and response fields are capitalised.
	PascalCase bool
}

// ProfileGraph targets Microsoft Graph v1.0.
var ProfileGraph = Profile{
	Name:               "graph",
	APIBaseURL:         "https://graph.microsoft.com/v1.0",
	UserInfoURL:        "https://graph.microsoft.com/v1.0/me",
	LogoutPath:         "/oauth2/v2.0/logout",
	ScopeCalendar:      "Calendars.ReadWrite",
	ScopeContacts:      "Contacts.Read",
	ScopeUserInfo:      "User.Read",
	ScopeOfflineAccess: "offline_access",
}

// ProfileOutlook targets the legacy Outlook REST API v2.0.
var ProfileOutlook = Profile{
	Name:               "outlook",
	APIBaseURL:         "https://outlook.office.com/api/v2.0",
	UserInfoURL:        "https://outlook.office.com/api/v2.0/me",
	LogoutPath:         "/oauth2/logout",
	ScopeCalendar:      "https://outlook.office.com/calendars.readwrite",
	ScopeContacts:      "https://outlook.office.com/contacts.read",
	ScopeUserInfo:      "https://outlook.office.com/user.readbasic.all",
	ScopeOfflineAccess: "offline_access",
	PascalCase:         true,
}

// ParseProfile resolves a profile by name. An empty name selects Graph.
func ParseProfile(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileGraph.Name:
		return ProfileGraph, nil
	case ProfileOutlook.Name, "outlook-rest", "legacy":
		return ProfileOutlook, nil
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// Field returns the wire name for a camelCase field under this profile.
func (p Profile) Field(name string) string {
	if !p.PascalCase || name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Fields maps Field over names and joins them with commas, ready for $select.
func (p Profile) Fields(names ...string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = p.Field(n)
	}
	return strings.Join(out, ",")
}

package microsoft

import (
	"context"
)

// UserInfo contains the user's basic profile. Graph uses camelCase fields and
// the legacy API PascalCase; both decode into this struct because JSON field
// matching is case-insensitive.
type UserInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	EmailAddress      string `json:"emailAddress"`
}

// Email returns the user's email address, falling back to the
// userPrincipalName when no mailbox address is set.
func (u *UserInfo) Email() string {
	switch {
	case u.Mail != "":
		return u.Mail
	case u.EmailAddress != "":
		return u.EmailAddress
	default:
		return u.UserPrincipalName
	}
}

// UserInfo fetches the signed-in user's profile verbatim.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (Result, error) {
	url := c.cfg.profile.UserInfoURL
	if c.cfg.apiBaseURL != c.cfg.profile.APIBaseURL {
		url = c.URL("/me")
	}
	return c.MakeAPICall(ctx, accessToken, MethodGet, url, nil)
}

// DecodeUserInfo fetches and decodes the signed-in user's profile.
func (c *Client) DecodeUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	res, err := c.UserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	var info UserInfo
	if err := res.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Photo fetches the metadata of the signed-in user's profile photo.
func (c *Client) Photo(ctx context.Context, accessToken string) (Result, error) {
	return c.MakeAPICall(ctx, accessToken, MethodGet, c.URL("/me/photo"), nil)
}

// Package contacts lists the signed-in user's contacts and projects them
// into a flat name/email shape.
package contacts

import (
	"context"
	"net/url"
	"strings"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
)

// Contact is the normalised form of a contact.
type Contact struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// RawContact is a contact as returned by the API. Field matching is
// case-insensitive, so both profiles decode into it.
type RawContact struct {
	GivenName      string `json:"givenName"`
	Surname        string `json:"surname"`
	EmailAddresses []struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"emailAddresses"`
}

// Normalise projects a raw contact. Name joins the non-empty given name and
// surname; Email is the first listed address.
func Normalise(raw RawContact) Contact {
	var parts []string
	if raw.GivenName != "" {
		parts = append(parts, raw.GivenName)
	}
	if raw.Surname != "" {
		parts = append(parts, raw.Surname)
	}

	c := Contact{
		FirstName: raw.GivenName,
		LastName:  raw.Surname,
		Name:      strings.TrimSpace(strings.Join(parts, " ")),
	}
	if len(raw.EmailAddresses) > 0 {
		c.Email = raw.EmailAddresses[0].Address
	}
	return c
}

// Service lists contacts on top of a microsoft.Client.
type Service struct {
	client *microsoft.Client
}

// NewService creates a contacts service.
func NewService(client *microsoft.Client) *Service {
	return &Service{client: client}
}

// List fetches and normalises the user's contacts. When the API call fails
// the returned error is the *microsoft.ErrorResult.
func (s *Service) List(ctx context.Context, accessToken string) ([]Contact, error) {
	p := s.client.Profile()
	query := url.Values{"$select": {p.Fields("emailAddresses", "givenName", "surname")}}

	res, err := s.client.MakeAPICall(ctx, accessToken, microsoft.MethodGet,
		s.client.URL("/me/contacts")+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var page struct {
		Value []RawContact `json:"value"`
	}
	if err := res.Decode(&page); err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(page.Value))
	for _, raw := range page.Value {
		contacts = append(contacts, Normalise(raw))
	}
	return contacts, nil
}

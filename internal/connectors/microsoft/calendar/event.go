package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
)

// wireTimeFormat is the UTC layout used for event start and end values.
const wireTimeFormat = "2006-01-02T15:04:05Z"

// Event represents a calendar event. The same type is used for create and
// update payloads and for decoding calendar view responses.
type Event struct {
	ID        string        `json:"id,omitempty"`
	Subject   string        `json:"subject"`
	Start     *DateTimeZone `json:"start,omitempty"`
	End       *DateTimeZone `json:"end,omitempty"`
	Body      *EventBody    `json:"body,omitempty"`
	Location  *Location     `json:"location,omitempty"`
	Attendees []Attendee    `json:"attendees,omitempty"`
	IsAllDay  bool          `json:"isAllDay,omitempty"`
	WebLink   string        `json:"webLink,omitempty"`
}

// EventBody contains the event body content.
type EventBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// DateTimeZone contains a date-time with time zone.
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Location contains location information.
type Location struct {
	DisplayName string `json:"displayName"`
}

// EmailAddress contains email address information.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Attendee represents an event attendee.
type Attendee struct {
	EmailAddress EmailAddress `json:"emailAddress"`
	Type         string       `json:"type"`
}

// EventList is a page of events as returned by the calendar view.
type EventList struct {
	Value    []Event `json:"value"`
	NextLink string  `json:"@odata.nextLink,omitempty"`
}

// EventInput describes an event to create or update.
type EventInput struct {
	Subject string
	// Content is sent as the HTML body.
	Content string
	Start   time.Time
	End     time.Time
	// Attendees are email addresses; blank entries are dropped. Use
	// ParseAttendees for a semicolon-delimited list.
	Attendees []string
	Location  string
	// AllDay replaces Start and End with midnight-to-midnight UTC of
	// Start's calendar day.
	AllDay bool
}

// ParseAttendees splits a semicolon-delimited address list, dropping blanks.
func ParseAttendees(s string) []string {
	return cleanAttendees(strings.Split(s, ";"))
}

func cleanAttendees(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// BuildEvent turns input into an event payload for the given profile. Times
// are normalised to UTC.
func BuildEvent(p microsoft.Profile, in EventInput) Event {
	start, end := eventWindow(in)

	event := Event{
		Subject: in.Subject,
		Start:   &DateTimeZone{DateTime: start.Format(wireTimeFormat), TimeZone: "UTC"},
		End:     &DateTimeZone{DateTime: end.Format(wireTimeFormat), TimeZone: "UTC"},
		Body:    &EventBody{ContentType: "HTML", Content: in.Content},
	}

	if in.Location != "" {
		event.Location = &Location{DisplayName: in.Location}
	}

	attendeeType := "required"
	if p.PascalCase {
		attendeeType = "Required"
	}
	for _, addr := range cleanAttendees(in.Attendees) {
		event.Attendees = append(event.Attendees, Attendee{
			EmailAddress: EmailAddress{Address: addr},
			Type:         attendeeType,
		})
	}

	return event
}

func eventWindow(in EventInput) (time.Time, time.Time) {
	if !in.AllDay {
		return in.Start.UTC(), in.End.UTC()
	}
	y, m, d := in.Start.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Payload encodes the event with the profile's field naming.
func (e Event) Payload(p microsoft.Profile) (json.RawMessage, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	if !p.PascalCase {
		return data, nil
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return json.Marshal(renameKeys(generic, p.Field))
}

// renameKeys applies rename to every object key, recursively.
func renameKeys(v any, rename func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[rename(k)] = renameKeys(val, rename)
		}
		return out
	case []any:
		for i := range t {
			t[i] = renameKeys(t[i], rename)
		}
		return t
	default:
		return v
	}
}

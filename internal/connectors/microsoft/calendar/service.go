package calendar

import (
	"context"
	"net/url"
	"time"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
	"github.com/custodia-labs/outlookcal/internal/logger"
)

// windowFormat renders calendar view bounds without a zone designator; the
// server interprets them in the caller's calendar day.
const windowFormat = "2006-01-02T15:04:05"

// Service performs calendar operations on top of a microsoft.Client.
type Service struct {
	client *microsoft.Client
	now    func() time.Time
}

// NewService creates a calendar service.
func NewService(client *microsoft.Client) *Service {
	return &Service{client: client, now: time.Now}
}

// EventRef is the outcome of a create, update or delete. ID is set when the
// response carried an event id; Result always holds the full response,
// including any ErrorResult.
type EventRef struct {
	ID     string
	Result microsoft.Result
}

// EventsForDate lists events between 00:00:00 and 23:59:59 of date's calendar
// day. The bounds are taken from date's own location without conversion.
// An empty calendarID queries the default calendar.
func (s *Service) EventsForDate(
	ctx context.Context, accessToken string, date time.Time, calendarID string,
) (microsoft.Result, error) {
	start, end := DayWindow(date)
	return s.EventsOnRange(ctx, accessToken, start, end, calendarID)
}

// DayWindow returns 00:00:00 and 23:59:59 of date's calendar day in its own
// location.
func DayWindow(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()),
		time.Date(y, m, d, 23, 59, 59, 0, date.Location())
}

// EventsOnRange lists events between start and end, formatted verbatim.
func (s *Service) EventsOnRange(
	ctx context.Context, accessToken string, start, end time.Time, calendarID string,
) (microsoft.Result, error) {
	p := s.client.Profile()

	path := "/me/calendarview"
	if calendarID != "" {
		path = "/me/calendars/" + url.PathEscape(calendarID) + "/calendarview"
	}

	query := url.Values{
		"startDateTime": {start.Format(windowFormat)},
		"endDateTime":   {end.Format(windowFormat)},
		"$select":       {p.Fields("subject", "start", "end", "location")},
	}

	return s.client.MakeAPICall(ctx, accessToken, microsoft.MethodGet,
		s.client.URL(path)+"?"+query.Encode(), nil)
}

// Calendars lists the user's calendars.
func (s *Service) Calendars(ctx context.Context, accessToken string) (microsoft.Result, error) {
	return s.client.MakeAPICall(ctx, accessToken, microsoft.MethodGet, s.client.URL("/me/calendars"), nil)
}

// AddEvent creates an event in the default calendar.
func (s *Service) AddEvent(ctx context.Context, accessToken string, in EventInput) (EventRef, error) {
	payload, err := BuildEvent(s.client.Profile(), in).Payload(s.client.Profile())
	if err != nil {
		return EventRef{}, err
	}
	res, err := s.client.MakeAPICall(ctx, accessToken, microsoft.MethodPost, s.client.URL("/me/events"), payload)
	if err != nil {
		return EventRef{}, err
	}
	return s.ref(res), nil
}

// UpdateEvent replaces the fields of an existing event.
func (s *Service) UpdateEvent(
	ctx context.Context, accessToken, eventID string, in EventInput,
) (EventRef, error) {
	payload, err := BuildEvent(s.client.Profile(), in).Payload(s.client.Profile())
	if err != nil {
		return EventRef{}, err
	}
	res, err := s.client.MakeAPICall(ctx, accessToken, microsoft.MethodPatch, s.eventURL(eventID), payload)
	if err != nil {
		return EventRef{}, err
	}
	s.logMissing(eventID, res)
	return s.ref(res), nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, accessToken, eventID string) (EventRef, error) {
	res, err := s.client.MakeAPICall(ctx, accessToken, microsoft.MethodDelete, s.eventURL(eventID), nil)
	if err != nil {
		return EventRef{}, err
	}
	s.logMissing(eventID, res)
	return s.ref(res), nil
}

// IsConnected probes today's calendar view. Any ErrorResult means the token
// is not usable; this is a heuristic, not token introspection.
func (s *Service) IsConnected(ctx context.Context, accessToken string) bool {
	res, err := s.EventsForDate(ctx, accessToken, s.now(), "")
	if err != nil {
		logger.Warn("calendar: connectivity probe failed: %v", err)
		return false
	}
	if res.Failed() {
		if status := res.Failure().Number; microsoft.IsUnauthorised(status) {
			logger.Info("calendar: access token rejected; refresh it or sign in again")
		} else {
			logger.Debug("calendar: connectivity probe returned %d", status)
		}
		return false
	}
	return true
}

func (s *Service) logMissing(eventID string, res microsoft.Result) {
	if f := res.Failure(); f != nil && f.Kind == microsoft.ErrorKindHTTP && microsoft.IsNotFound(f.Number) {
		logger.Info("calendar: event %s does not exist or was already deleted", eventID)
	}
}

func (s *Service) eventURL(eventID string) string {
	return s.client.URL("/me/events/" + url.PathEscape(eventID))
}

func (s *Service) ref(res microsoft.Result) EventRef {
	ref := EventRef{Result: res}
	if id, ok := res.Field(s.client.Profile().Field("id")); ok {
		ref.ID = id
	}
	return ref
}

// DecodeEvents decodes a calendar view result.
func DecodeEvents(res microsoft.Result) (*EventList, error) {
	var list EventList
	if err := res.Decode(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

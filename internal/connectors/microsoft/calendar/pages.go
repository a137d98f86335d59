package calendar

import (
	"context"
	"time"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft"
	"github.com/custodia-labs/outlookcal/internal/logger"
)

// maxPages bounds ListEvents against a server that never stops paging.
const maxPages = 100

// ListEvents collects every event between start and end, following
// @odata.nextLink across pages. A failed page is returned as its
// *microsoft.ErrorResult. At most maxPages are read; hitting the cap is
// logged as a warning and the events gathered so far are returned.
func (s *Service) ListEvents(
	ctx context.Context, accessToken string, start, end time.Time, calendarID string,
) ([]Event, error) {
	res, err := s.EventsOnRange(ctx, accessToken, start, end, calendarID)
	if err != nil {
		return nil, err
	}

	var events []Event
	for page := 1; ; page++ {
		list, err := DecodeEvents(res)
		if err != nil {
			return nil, err
		}

		logger.Debug("calendar: page %d has %d events, hasNextLink=%v", page, len(list.Value), list.NextLink != "")
		events = append(events, list.Value...)

		if list.NextLink == "" {
			break
		}
		if page == maxPages {
			logger.Warn("calendar: stopped after %d pages; the event list is truncated", maxPages)
			break
		}
		res, err = s.client.MakeAPICall(ctx, accessToken, microsoft.MethodGet, list.NextLink, nil)
		if err != nil {
			return nil, err
		}
	}

	return events, nil
}

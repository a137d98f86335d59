package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlookcal/internal/connectors/microsoft/calendar"
)

// Accepted --start/--end layouts, tried in order. Values without a zone are
// read in local time.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

const dateLayout = "2006-01-02"

var (
	eventsDate     string
	eventsStart    string
	eventsEnd      string
	eventsCalendar string
	eventsAll      bool

	eventSubject   string
	eventBody      string
	eventStart     string
	eventEnd       string
	eventAttendees string
	eventLocation  string
	eventAllDay    bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List events for a day or a time range",
	Long: `Lists calendar events. With --date (default today) the whole local day
is queried; --start and --end query an explicit range instead.`,
	RunE: runEvents,
}

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List calendars",
	RunE:  runCalendars,
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Create, update or delete an event",
}

var eventAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an event in the default calendar",
	RunE:  runEventAdd,
}

var eventUpdateCmd = &cobra.Command{
	Use:   "update [event-id]",
	Short: "Update an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventUpdate,
}

var eventDeleteCmd = &cobra.Command{
	Use:   "delete [event-id]",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventDelete,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the access token can read the calendar",
	RunE:  runStatus,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDate, "date", "", "day to list, YYYY-MM-DD (default today)")
	eventsCmd.Flags().StringVar(&eventsStart, "start", "", "range start")
	eventsCmd.Flags().StringVar(&eventsEnd, "end", "", "range end")
	eventsCmd.Flags().StringVar(&eventsCalendar, "calendar", "", "calendar id (default calendar if empty)")
	eventsCmd.Flags().BoolVar(&eventsAll, "all", false, "follow paging and print the decoded events")
	eventsCmd.MarkFlagsRequiredTogether("start", "end")
	eventsCmd.MarkFlagsMutuallyExclusive("date", "start")

	for _, c := range []*cobra.Command{eventAddCmd, eventUpdateCmd} {
		c.Flags().StringVar(&eventSubject, "subject", "", "event subject")
		c.Flags().StringVar(&eventBody, "body", "", "event body (HTML)")
		c.Flags().StringVar(&eventStart, "start", "", "start time")
		c.Flags().StringVar(&eventEnd, "end", "", "end time")
		c.Flags().StringVar(&eventAttendees, "attendees", "", "semicolon-separated attendee addresses")
		c.Flags().StringVar(&eventLocation, "location", "", "location name")
		c.Flags().BoolVar(&eventAllDay, "all-day", false, "make it an all-day event on the start date")
		_ = c.MarkFlagRequired("start")
	}

	eventCmd.AddCommand(eventAddCmd, eventUpdateCmd, eventDeleteCmd)
	rootCmd.AddCommand(eventsCmd, calendarsCmd, eventCmd, statusCmd)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func calendarService() (*calendar.Service, string, error) {
	token, err := requireAccessToken()
	if err != nil {
		return nil, "", err
	}
	client, _, err := newClient(nil)
	if err != nil {
		return nil, "", err
	}
	return calendar.NewService(client), token, nil
}

func runEvents(cmd *cobra.Command, _ []string) error {
	svc, token, err := calendarService()
	if err != nil {
		return err
	}

	start, end, err := eventsWindow()
	if err != nil {
		return err
	}

	if eventsAll {
		events, err := svc.ListEvents(cmd.Context(), token, start, end, eventsCalendar)
		if err != nil {
			return err
		}
		return printJSON(cmd, events)
	}

	res, err := svc.EventsOnRange(cmd.Context(), token, start, end, eventsCalendar)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

// eventsWindow resolves --start/--end, or the whole day named by --date.
func eventsWindow() (time.Time, time.Time, error) {
	if eventsStart != "" {
		start, err := parseTime(eventsStart)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := parseTime(eventsEnd)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	date := time.Now()
	if eventsDate != "" {
		var err error
		if date, err = time.ParseInLocation(dateLayout, eventsDate, time.Local); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --date %q: %w", eventsDate, err)
		}
	}
	start, end := calendar.DayWindow(date)
	return start, end, nil
}

func runCalendars(cmd *cobra.Command, _ []string) error {
	svc, token, err := calendarService()
	if err != nil {
		return err
	}
	res, err := svc.Calendars(cmd.Context(), token)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

func eventInput() (calendar.EventInput, error) {
	start, err := parseTime(eventStart)
	if err != nil {
		return calendar.EventInput{}, err
	}
	end := start.Add(time.Hour)
	if eventEnd != "" {
		if end, err = parseTime(eventEnd); err != nil {
			return calendar.EventInput{}, err
		}
	}

	return calendar.EventInput{
		Subject:   eventSubject,
		Content:   eventBody,
		Start:     start,
		End:       end,
		Attendees: calendar.ParseAttendees(eventAttendees),
		Location:  eventLocation,
		AllDay:    eventAllDay,
	}, nil
}

// printRef prints {"id": ...} when the response carried an id, otherwise
// the full response.
func printRef(cmd *cobra.Command, ref calendar.EventRef) error {
	if ref.ID != "" {
		return printJSON(cmd, map[string]string{"id": ref.ID})
	}
	return printResult(cmd, ref.Result)
}

func runEventAdd(cmd *cobra.Command, _ []string) error {
	in, err := eventInput()
	if err != nil {
		return err
	}
	svc, token, err := calendarService()
	if err != nil {
		return err
	}
	ref, err := svc.AddEvent(cmd.Context(), token, in)
	if err != nil {
		return err
	}
	return printRef(cmd, ref)
}

func runEventUpdate(cmd *cobra.Command, args []string) error {
	in, err := eventInput()
	if err != nil {
		return err
	}
	svc, token, err := calendarService()
	if err != nil {
		return err
	}
	ref, err := svc.UpdateEvent(cmd.Context(), token, args[0], in)
	if err != nil {
		return err
	}
	return printRef(cmd, ref)
}

func runEventDelete(cmd *cobra.Command, args []string) error {
	svc, token, err := calendarService()
	if err != nil {
		return err
	}
	ref, err := svc.DeleteEvent(cmd.Context(), token, args[0])
	if err != nil {
		return err
	}
	return printRef(cmd, ref)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, token, err := calendarService()
	if err != nil {
		return err
	}
	if svc.IsConnected(cmd.Context(), token) {
		fmt.Fprintln(cmd.OutOrStdout(), "connected")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "not connected")
	return nil
}

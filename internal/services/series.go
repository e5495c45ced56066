package services

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"checkinflow/internal/domain"
)

var timeOfDayRegexp = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// parseTimeOfDay parses "HH:MM" into hour and minute.
func parseTimeOfDay(s string) (hour, minute int, err error) {
	m := timeOfDayRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimeFormat, s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// mondayFirst converts a time.Weekday to Monday=0 ... Sunday=6.
func mondayFirst(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// GenerateSeries expands req into one event per date in [StartDate, EndDate]
// whose weekday is selected. Local times are interpreted in loc and stored in UTC.
// An end time not after the start time rolls over to the next day. Every event
// shares the series id returned by newID and inherits the template's other fields.
// Nothing is persisted.
func GenerateSeries(req domain.SeriesRequest, loc *time.Location, newID func() string) ([]*domain.Event, error) {
	if req.Template == nil {
		return nil, fmt.Errorf("%w: template is required", domain.ErrInvalidInput)
	}
	startDay := civilDate(req.StartDate, loc)
	endDay := civilDate(req.EndDate, loc)
	if endDay.Before(startDay) {
		return nil, domain.ErrInvalidRange
	}
	startHour, startMin, err := parseTimeOfDay(req.StartTimeLocal)
	if err != nil {
		return nil, err
	}
	endHour, endMin, err := parseTimeOfDay(req.EndTimeLocal)
	if err != nil {
		return nil, err
	}
	selected := make(map[int]bool, len(req.Weekdays))
	for _, wd := range req.Weekdays {
		if wd < 0 || wd > 6 {
			return nil, fmt.Errorf("%w: weekday %d out of range 0..6", domain.ErrInvalidInput, wd)
		}
		selected[wd] = true
	}

	seriesID := newID()
	var events []*domain.Event
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if !selected[mondayFirst(day.Weekday())] {
			continue
		}
		y, m, d := day.Date()
		start := time.Date(y, m, d, startHour, startMin, 0, 0, loc)
		end := time.Date(y, m, d, endHour, endMin, 0, 0, loc)
		if !end.After(start) {
			end = end.Add(24 * time.Hour)
		}

		e := req.Template.Clone()
		e.ID = ""
		e.QRCodeURL = nil
		e.StartTime = start.UTC()
		e.EndTime = end.UTC()
		sid := seriesID
		e.SeriesID = &sid
		events = append(events, e)
	}
	if len(events) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return events, nil
}

// civilDate returns midnight in loc of t's calendar date, read in t's own location.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

package decoder

import (
	"strings"
	"time"

	"github.com/ocmweb/mercury-sync/internal/domain"
)

// Mercury event feeds carry timestamps without a zone; items from hg.gatech
// are wall-clock Eastern unless the entry says otherwise.
const defaultEventZone = "America/New_York"

var eventLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// eventTimes extracts every recurrence of an event item. Single-occurrence
// items may carry a bare start/end pair instead of a times list.
func eventTimes(m domain.Map) ([]domain.TimeRange, error) {
	entries := m.List("times")
	if len(entries) == 0 {
		if start := m.String("start"); start != "" {
			tr, err := parseRange(start, m.String("end"), "")
			if err != nil {
				return nil, err
			}
			return []domain.TimeRange{tr}, nil
		}
		return nil, &DecodeError{Reason: "event item carries no times"}
	}

	out := make([]domain.TimeRange, 0, len(entries))
	for _, entry := range entries {
		t, ok := entry.(domain.Map)
		if !ok {
			return nil, &DecodeError{Reason: "event time entry is not a record"}
		}
		tr, err := parseRange(t.String("startdate"), t.String("stopdate"), t.String("timezone"))
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

func parseRange(start, end, zone string) (domain.TimeRange, error) {
	s, err := parseEventTime(start, zone)
	if err != nil {
		return domain.TimeRange{}, &DecodeError{Reason: "unparseable event start", Err: err}
	}
	e, err := parseEventTime(end, zone)
	if err != nil {
		// An open-ended occurrence reuses its start.
		e = s
	}
	return domain.TimeRange{Start: s, End: e}, nil
}

// parseEventTime parses a Mercury timestamp, applying the entry's timezone
// when given and valid, falling back to the default zone, and storing UTC.
func parseEventTime(raw, zone string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	loc := time.UTC
	if l, err := time.LoadLocation(defaultEventZone); err == nil {
		loc = l
	}
	if zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}

	var lastErr error
	for _, layout := range eventLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), nil
			} else {
				lastErr = err
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

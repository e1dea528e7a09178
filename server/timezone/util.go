// Package timezone parses the locations and reference instants hosts pass to the resolver.
//
// The resolver itself works in whatever location the reference instant carries; this
// package is where host supplied strings become such instants.
package timezone

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// Timezone identifiers with special handling.
const (
	TimezoneUTC   = "UTC"
	TimezoneLocal = "Local"
)

// ReferenceLayouts are the layouts ParseReference accepts, tried in order. Layouts
// without a zone are read in the requested location.
var ReferenceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimezone parses an IANA timezone identifier (e.g. "Asia/Shanghai").
// An empty string means UTC. If the timezone is invalid, UTC is returned with an error.
func ParseTimezone(tz string) (*time.Location, error) {
	switch strings.TrimSpace(tz) {
	case "", TimezoneUTC:
		return time.UTC, nil
	case TimezoneLocal:
		return time.Local, nil
	}

	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		return time.UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// ParseReference parses a reference instant. Text carrying an offset keeps its instant
// and is moved into loc; zone-less text is read as wall-clock time in loc. Empty text
// means now.
func ParseReference(text string, loc *time.Location, now func() time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	text = strings.TrimSpace(text)
	if text == "" {
		if now == nil {
			now = time.Now
		}
		return now().In(loc), nil
	}

	for i, layout := range ReferenceLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, text)
			if err == nil {
				return t.In(loc), nil
			}
			continue
		}
		if t, err = time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reference time %q", text)
}

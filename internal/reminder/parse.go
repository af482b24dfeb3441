package reminder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-module/carbon/v2"
)

// ErrParse is wrapped by every time parsing failure.
var ErrParse = errors.New("unparseable time")

// Layouts tried in order before falling back to carbon's lenient parser.
// Layouts without a zone are read in the caller's location.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

const clockLayout = "15:04"

// ParseInstant parses stored timestamp text into an instant in loc.
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrParse)
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), nil
		}
	}

	// carbon resolves words like "now" and "tomorrow" against the wall
	// clock, so the fallback only sees values carrying a number.
	if !strings.ContainsAny(value, "0123456789") {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, value)
	}

	c := carbon.Parse(value, loc.String())
	if c.Error != nil || c.IsInvalid() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, value)
	}
	return c.Carbon2Time().In(loc), nil
}

// ParseTimeOfDay extracts the hour and minute a medication recurs at. It
// accepts a bare "15:04" clock time as well as any full timestamp.
func ParseTimeOfDay(value string, loc *time.Location) (hour, minute int, err error) {
	if t, err := time.ParseInLocation(clockLayout, strings.TrimSpace(value), loc); err == nil {
		return t.Hour(), t.Minute(), nil
	}

	t, err := ParseInstant(value, loc)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

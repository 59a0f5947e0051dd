package schedule

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// KeyLayout is the canonical slot key format. The availability check and
	// the booking insert must build keys with the same rule or checks will
	// never match recorded bookings.
	KeyLayout = "2006-01-02T15:04:05"
)

// Slot combines a calendar date ("YYYY-MM-DD") and a time of day ("HH:mm")
// into a single timestamp. Both parts are required.
func Slot(date, timeOfDay string) (time.Time, error) {
	if date == "" || timeOfDay == "" {
		return time.Time{}, fmt.Errorf("schedule: date and time are required")
	}
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parse date %q: %w", date, err)
	}
	t, err := time.ParseInLocation(timeLayout, timeOfDay, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parse time %q: %w", timeOfDay, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// Key renders the slot timestamp in the canonical wire format
// ("2024-06-01T14:00:00").
func Key(slot time.Time) string {
	return slot.Format(KeyLayout)
}

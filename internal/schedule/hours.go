package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Hours is the clinic's booking window, a half-open interval [Open, Close)
// expressed in minutes from midnight. A slot at exactly the closing time is
// rejected.
type Hours struct {
	open  int
	close int
}

// DefaultHours is the 09:00-17:00 window used when no override is configured.
var DefaultHours = Hours{open: 9 * 60, close: 17 * 60}

// ParseHours builds an Hours window from "HH:mm" open and close strings.
func ParseHours(open, close string) (Hours, error) {
	openMin, err := parseMinuteOfDay(open)
	if err != nil {
		return Hours{}, fmt.Errorf("schedule: parse open time: %w", err)
	}
	closeMin, err := parseMinuteOfDay(close)
	if err != nil {
		return Hours{}, fmt.Errorf("schedule: parse close time: %w", err)
	}
	if openMin >= closeMin {
		return Hours{}, fmt.Errorf("schedule: open %s must precede close %s", open, close)
	}
	return Hours{open: openMin, close: closeMin}, nil
}

// Contains reports whether the slot's time of day falls inside the window.
func (h Hours) Contains(slot time.Time) bool {
	minute := slot.Hour()*60 + slot.Minute()
	return minute >= h.open && minute < h.close
}

// String renders the window as "09:00 - 17:00".
func (h Hours) String() string {
	return fmt.Sprintf("%s - %s", formatMinuteOfDay(h.open), formatMinuteOfDay(h.close))
}

func parseMinuteOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid HH:mm value %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

func formatMinuteOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

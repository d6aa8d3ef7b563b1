package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Window selects the trailing date range of an aggregation, ending at an
// anchor date.
type Window string

const (
	WindowToday Window = "today"
	Window7d    Window = "7d"
	Window15d   Window = "15d"
)

// ParseWindow validates a raw window parameter.
func ParseWindow(raw string) (Window, error) {
	switch Window(strings.ToLower(strings.TrimSpace(raw))) {
	case WindowToday:
		return WindowToday, nil
	case Window7d:
		return Window7d, nil
	case Window15d:
		return Window15d, nil
	default:
		return "", fmt.Errorf("unknown window %q", raw)
	}
}

// Range returns the inclusive [from, to] date range ending at anchor.
func (w Window) Range(anchor time.Time) (from, to time.Time) {
	switch w {
	case Window7d:
		return anchor.AddDate(0, 0, -6), anchor
	case Window15d:
		return anchor.AddDate(0, 0, -14), anchor
	default:
		return anchor, anchor
	}
}

package policy

import "time"

// Window is a daily clock-hour window [Start, End) evaluated in Location.
// The same abstraction gates mobile access, payments, and audio uploads.
type Window struct {
	Start    int
	End      int
	Location *time.Location
}

func NewWindow(start, end int, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	return Window{Start: start, End: end, Location: loc}
}

// IsOpen reports whether now falls inside the window.
func (w Window) IsOpen(now time.Time) bool {
	h := now.In(w.Location).Hour()
	return h >= w.Start && h < w.End
}

// NextOpening returns the next instant the window opens. If the window is
// currently open it returns now unchanged.
func (w Window) NextOpening(now time.Time) time.Time {
	if w.IsOpen(now) {
		return now
	}

	local := now.In(w.Location)
	opening := time.Date(local.Year(), local.Month(), local.Day(), w.Start, 0, 0, 0, w.Location)
	if !local.Before(opening) {
		opening = opening.AddDate(0, 0, 1)
	}
	return opening
}

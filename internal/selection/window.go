// Package selection implements the per-user selection rules: the time-boxed
// window, the working-selection state machine, and the catalog filter.
package selection

import "time"

// DefaultWindow is how long a user may keep choosing after their timer starts
const DefaultWindow = 24 * time.Hour

// Window is the outcome of evaluating the selection time limit at an instant
type Window struct {
	// TimeLeft may be negative once the window has elapsed
	TimeLeft time.Duration `json:"time_left"`
	Expired  bool          `json:"expired"`
}

// Remaining computes the state of the selection window. A nil start means the
// window has not begun: the full duration remains and nothing is expired.
// Pure function of its inputs; callers re-evaluate on a polling interval.
func Remaining(start *time.Time, now time.Time, window time.Duration) Window {
	if start == nil {
		return Window{TimeLeft: window}
	}
	expiry := start.Add(window)
	return Window{
		TimeLeft: expiry.Sub(now),
		Expired:  now.After(expiry),
	}
}

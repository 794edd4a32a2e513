package selection

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// State is the lifecycle phase of a user's selection session
type State string

const (
	// StateUnstarted: no start timestamp yet, selection untouched
	StateUnstarted State = "unstarted"
	// StateOpen: timer running and the working selection is below quota
	StateOpen State = "open"
	// StateFull: the working selection has reached quota
	StateFull State = "full"
	// StateExpired: the window elapsed. Terminal regardless of count.
	StateExpired State = "expired"
)

var (
	// ErrWindowExpired rejects mutations after the selection window elapses
	ErrWindowExpired = errors.New("selection window has expired")
	// ErrQuotaExceeded rejects adds that would push the selection past quota
	ErrQuotaExceeded = errors.New("selection quota exceeded")
	// ErrNoPendingChanges rejects saves when the working selection already
	// matches the persisted set
	ErrNoPendingChanges = errors.New("no pending changes to save")
)

// SaveTier tells the caller which confirmation to present before committing
type SaveTier string

const (
	// SaveTierLock: the save fills the quota and locks the library for good
	SaveTierLock SaveTier = "lock"
	// SaveTierPartial: a below-quota save the user can come back to
	SaveTierPartial SaveTier = "partial"
)

// Machine holds one user's working selection and governs its transitions.
// Not safe for concurrent use; callers serialize access per session.
type Machine struct {
	quota     int
	window    time.Duration
	start     *time.Time
	persisted []string
	working   []string
}

// NewMachine builds a machine from the user's persisted assigned set
func NewMachine(assigned []string, quota int, start *time.Time, window time.Duration) *Machine {
	m := &Machine{
		quota:     quota,
		window:    window,
		persisted: append([]string(nil), assigned...),
		working:   append([]string(nil), assigned...),
	}
	if start != nil {
		t := *start
		m.start = &t
	}
	return m
}

// State reports the machine's phase at the given instant. Expiry takes
// precedence over fullness.
func (m *Machine) State(now time.Time) State {
	if m.Window(now).Expired {
		return StateExpired
	}
	if len(m.working) >= m.quota {
		return StateFull
	}
	if m.start == nil {
		return StateUnstarted
	}
	return StateOpen
}

// Window evaluates the remaining selection time at the given instant
func (m *Machine) Window(now time.Time) Window {
	return Remaining(m.start, now, m.window)
}

// Locked reports whether catalog browsing is disabled: full or expired
func (m *Machine) Locked(now time.Time) bool {
	st := m.State(now)
	return st == StateFull || st == StateExpired
}

// ShouldStartTimer reports whether loading this session must start the clock:
// no start timestamp yet and the persisted set has not already filled the quota
func (m *Machine) ShouldStartTimer(now time.Time) bool {
	return m.start == nil && !m.Window(now).Expired && len(m.persisted) < m.quota
}

// StartTimer records the window start. It is set at most once; later calls
// are ignored so the start never moves.
func (m *Machine) StartTimer(now time.Time) bool {
	if m.start != nil {
		return false
	}
	t := now
	m.start = &t
	return true
}

// Start returns the window start instant, or nil if the timer never ran
func (m *Machine) Start() *time.Time {
	if m.start == nil {
		return nil
	}
	t := *m.start
	return &t
}

// Toggle adds or removes an identifier from the working selection. Rejected
// without mutation when the window expired or an add would exceed quota.
func (m *Machine) Toggle(id string, now time.Time) error {
	if m.Window(now).Expired {
		return ErrWindowExpired
	}
	for i, existing := range m.working {
		if strings.EqualFold(existing, id) {
			m.working = append(m.working[:i], m.working[i+1:]...)
			return nil
		}
	}
	if len(m.working) >= m.quota {
		return ErrQuotaExceeded
	}
	m.working = append(m.working, id)
	return nil
}

// Selected reports whether an identifier is in the working selection
func (m *Machine) Selected(id string) bool {
	for _, existing := range m.working {
		if strings.EqualFold(existing, id) {
			return true
		}
	}
	return false
}

// HasPendingChanges reports whether the working selection differs from the
// last-persisted set, as sets (order-independent)
func (m *Machine) HasPendingChanges() bool {
	if len(m.working) != len(m.persisted) {
		return true
	}
	a := append([]string(nil), m.working...)
	b := append([]string(nil), m.persisted...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

// PrepareSave validates a save attempt and returns the confirmation tier the
// caller must present before committing
func (m *Machine) PrepareSave(now time.Time) (SaveTier, error) {
	if m.Window(now).Expired {
		return "", ErrWindowExpired
	}
	if !m.HasPendingChanges() {
		return "", ErrNoPendingChanges
	}
	if len(m.working) >= m.quota {
		return SaveTierLock, nil
	}
	return SaveTierPartial, nil
}

// CommitSave marks the working selection as persisted and returns the full
// set to transmit. Always the whole selection, never a delta: last-writer-wins
// at the external store stands in for conflict resolution.
func (m *Machine) CommitSave(now time.Time) ([]string, error) {
	if _, err := m.PrepareSave(now); err != nil {
		return nil, err
	}
	m.persisted = append([]string(nil), m.working...)
	return append([]string(nil), m.working...), nil
}

// Working returns a copy of the working selection in insertion order
func (m *Machine) Working() []string {
	return append([]string(nil), m.working...)
}

// Persisted returns a copy of the last-persisted assigned set
func (m *Machine) Persisted() []string {
	return append([]string(nil), m.persisted...)
}

// Count returns the size of the working selection
func (m *Machine) Count() int {
	return len(m.working)
}

// Quota returns the selection limit
func (m *Machine) Quota() int {
	return m.quota
}

// SetQuota updates the limit, e.g. after a roster refresh
func (m *Machine) SetQuota(quota int) {
	if quota > 0 {
		m.quota = quota
	}
}

package reaper

import "time"

type timerName int

const (
	timerGrace timerName = iota
	timerPulse
	timerOverride
	timerFlowClear
	timerGhost
	timerCount
)

var timerNames = [timerCount]string{
	timerGrace:     "grace",
	timerPulse:     "pulse",
	timerOverride:  "override",
	timerFlowClear: "flow-clear",
	timerGhost:     "ghost",
}

func (n timerName) String() string {
	if n < 0 || n >= timerCount {
		return "unknown"
	}
	return timerNames[n]
}

// timerTable holds one-shot deadlines by name. A zero deadline means the
// timer is not pending; cancelling is just clearing the slot, so a
// cancelled timer can never fire.
type timerTable struct {
	deadlines [timerCount]time.Time
}

func (t *timerTable) set(name timerName, at time.Time) {
	t.deadlines[name] = at
}

func (t *timerTable) cancel(names ...timerName) {
	for _, name := range names {
		t.deadlines[name] = time.Time{}
	}
}

func (t *timerTable) cancelAll() {
	t.deadlines = [timerCount]time.Time{}
}

func (t *timerTable) pending(name timerName) bool {
	return !t.deadlines[name].IsZero()
}

// next returns the earliest pending timer due at or before now. Ties
// resolve in declaration order.
func (t *timerTable) next(now time.Time) (timerName, time.Time, bool) {
	best := timerCount
	var bestAt time.Time
	for i, at := range t.deadlines {
		if at.IsZero() || at.After(now) {
			continue
		}
		if best == timerCount || at.Before(bestAt) {
			best = timerName(i)
			bestAt = at
		}
	}
	if best == timerCount {
		return 0, time.Time{}, false
	}
	return best, bestAt, true
}

// earliest returns the earliest pending deadline regardless of now.
func (t *timerTable) earliest() (time.Time, bool) {
	var best time.Time
	for _, at := range t.deadlines {
		if at.IsZero() {
			continue
		}
		if best.IsZero() || at.Before(best) {
			best = at
		}
	}
	return best, !best.IsZero()
}

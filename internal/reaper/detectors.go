package reaper

import "time"

// Streak and hesitation thresholds.
const (
	HesitationGap = 2000 * time.Millisecond
	FlowThreshold = 5 * time.Second
	FlowHold      = 2000 * time.Millisecond
	GhostAfter    = 5000 * time.Millisecond
)

// trackFlow credits the gap since the previous legitimate stroke toward a
// flow streak. A hesitation resets the credit but leaves an active flow to
// expire on its own.
func (e *Engine) trackFlow() {
	gap := e.now.Sub(e.lastStroke)
	if e.lastStroke.IsZero() || gap >= HesitationGap {
		e.flowAccum = 0
	} else {
		e.flowAccum += gap
		if e.flowAccum >= FlowThreshold && !e.flowActive {
			e.flowActive = true
			e.timers.set(timerFlowClear, e.now.Add(FlowHold))
			e.emit(EventFlowStarted)
		}
	}
	e.lastStroke = e.now
}

// restartGhost clears a raised ghost flag and re-arms the inactivity timer.
func (e *Engine) restartGhost() {
	e.ghostTyping = false
	if !e.live() {
		e.timers.cancel(timerGhost)
		return
	}
	e.timers.set(timerGhost, e.now.Add(GhostAfter))
}

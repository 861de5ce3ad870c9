package reaper

import "time"

// Engine timings.
const (
	TickInterval  = 100 * time.Millisecond
	StrokeReward  = 2000 * time.Millisecond
	GraceWindow   = 2000 * time.Millisecond
	PunishPulse   = 300 * time.Millisecond
	MockeryWindow = 1000 * time.Millisecond
	AscendWindow  = 3000 * time.Millisecond
)

// Options configures a new Engine.
type Options struct {
	// Goal is the word count that fulfils the pact. Zero disables it.
	Goal int
	Zen  bool
}

// State is a read-only snapshot of the engine.
type State struct {
	TimeLeft        time.Duration
	Status          Status
	Active          bool
	StartedTyping   bool
	Punished        bool
	WarningText     bool
	FlowActive      bool
	FlowAccumulated time.Duration
	GhostTyping     bool
	Goal            int
	Words           int
	PactFulfilled   bool
	Zen             bool
}

// Progress returns the remaining budget as a percentage of MaxBudget.
func (s State) Progress() float64 {
	return float64(s.TimeLeft) / float64(MaxBudget) * 100
}

// Engine owns the decay state of one writing session.
//
// Engine runs on caller-supplied time: every mutating method takes now and
// first fires whatever timers and decay ticks fell due before it, in
// chronological order. It is not safe for concurrent use; callers
// serialise access (the Bubble Tea update loop does).
type Engine struct {
	now time.Time

	timeLeft time.Duration
	base     Status
	override Status

	active        bool
	startedTyping bool
	punished      bool
	warningText   bool

	flowActive bool
	flowAccum  time.Duration
	lastStroke time.Time

	ghostTyping bool

	goal          int
	words         int
	pactFulfilled bool
	zen           bool

	text     string
	nextTick time.Time
	timers   timerTable
	events   []Event
}

// New returns an engine in its construction state.
func New(opts Options) *Engine {
	e := &Engine{
		goal: opts.Goal,
		zen:  opts.Zen,
	}
	e.reset()
	return e
}

// State returns the current snapshot.
func (e *Engine) State() State {
	return State{
		TimeLeft:        e.timeLeft,
		Status:          e.status(),
		Active:          e.active,
		StartedTyping:   e.startedTyping,
		Punished:        e.punished,
		WarningText:     e.warningText,
		FlowActive:      e.flowActive,
		FlowAccumulated: e.flowAccum,
		GhostTyping:     e.ghostTyping,
		Goal:            e.goal,
		Words:           e.words,
		PactFulfilled:   e.pactFulfilled,
		Zen:             e.zen,
	}
}

// Now returns the engine's notion of the current time.
func (e *Engine) Now() time.Time {
	return e.now
}

// Drain returns the events recorded since the previous call.
func (e *Engine) Drain() []Event {
	events := e.events
	e.events = nil
	return events
}

// NextDeadline returns the earliest pending timer or decay tick.
func (e *Engine) NextDeadline() (time.Time, bool) {
	at, ok := e.timers.earliest()
	if e.nextTick.IsZero() {
		return at, ok
	}
	if !ok || e.nextTick.Before(at) {
		return e.nextTick, true
	}
	return at, true
}

// Advance fires every timer and decay tick due at or before now.
func (e *Engine) Advance(now time.Time) {
	for e.step(now) {
	}
	if now.After(e.now) {
		e.now = now
	}
}

// Stroke registers a keystroke with the full current text.
func (e *Engine) Stroke(now time.Time, text string) {
	if !e.begin(now) {
		return
	}
	e.text = text
	if IsGibberish(text) {
		if !e.warningText {
			e.emit(EventSuspected)
		}
		e.warningText = true
		e.timers.set(timerGrace, e.now.Add(GraceWindow))
		e.restartGhost()
		return
	}
	e.reward()
}

// StrokeBlank registers a keystroke without a text snapshot. It activates
// the session and settles any open grace window but skips classification.
func (e *Engine) StrokeBlank(now time.Time) {
	if !e.begin(now) {
		return
	}
	e.reward()
}

// SetZen toggles zen mode, which suspends decay and ghost detection.
func (e *Engine) SetZen(now time.Time, on bool) {
	e.Advance(now)
	if e.zen == on {
		return
	}
	e.zen = on
	e.syncLoops()
}

// SetGoal sets the pact word goal. Zero disables the pact.
func (e *Engine) SetGoal(words int) {
	if words < 0 {
		words = 0
	}
	e.goal = words
}

// SetWordCount records the document word count read by the pact check.
func (e *Engine) SetWordCount(words int) {
	e.words = words
}

// Revive cancels every pending timer and restores the construction state.
// Goal, word count and zen mode are external inputs and are kept.
func (e *Engine) Revive(now time.Time) {
	e.Advance(now)
	e.reset()
	e.emit(EventRevived)
}

func (e *Engine) reset() {
	e.timers.cancelAll()
	e.nextTick = time.Time{}
	e.timeLeft = InitialBudget
	e.base = DeriveStatus(e.timeLeft)
	e.override = ""
	e.active = false
	e.startedTyping = false
	e.punished = false
	e.warningText = false
	e.flowActive = false
	e.flowAccum = 0
	e.lastStroke = time.Time{}
	e.ghostTyping = false
	e.pactFulfilled = false
	e.text = ""
}

func (e *Engine) status() Status {
	if e.override != "" {
		return e.override
	}
	return e.base
}

func (e *Engine) dead() bool {
	return e.base == StatusDead
}

// live reports whether the decay loop and ghost detector should run.
func (e *Engine) live() bool {
	return e.active && e.startedTyping && !e.dead() && !e.zen
}

func (e *Engine) begin(now time.Time) bool {
	e.Advance(now)
	if e.dead() {
		return false
	}
	if !e.active || !e.startedTyping {
		e.active = true
		e.startedTyping = true
		e.emit(EventActivated)
		e.syncLoops()
	}
	return true
}

func (e *Engine) reward() {
	e.timers.cancel(timerGrace, timerPulse)
	e.warningText = false
	e.punished = false
	e.setTimeLeft(e.timeLeft + StrokeReward)
	e.checkPact()
	e.trackFlow()
	e.restartGhost()
}

func (e *Engine) checkPact() {
	if e.goal <= 0 || e.pactFulfilled || e.words < e.goal {
		return
	}
	e.pactFulfilled = true
	e.setOverride(StatusAscended, AscendWindow)
	e.emit(EventAscended)
}

func (e *Engine) punish() {
	e.warningText = false
	e.punished = true
	e.timers.set(timerPulse, e.now.Add(PunishPulse))
	e.setOverride(StatusMockery, MockeryWindow)
	e.emit(EventPunished)
}

// setOverride replaces any active override together with its expiry.
func (e *Engine) setOverride(s Status, window time.Duration) {
	e.override = s
	e.timers.set(timerOverride, e.now.Add(window))
}

func (e *Engine) setTimeLeft(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if d > MaxBudget {
		d = MaxBudget
	}
	e.timeLeft = d
	e.base = DeriveStatus(d)
	if e.dead() {
		e.die()
	}
}

func (e *Engine) die() {
	e.timers.cancelAll()
	e.nextTick = time.Time{}
	e.override = ""
	e.punished = false
	e.warningText = false
	e.flowActive = false
	e.flowAccum = 0
	e.ghostTyping = false
	e.emit(EventDeath)
}

// syncLoops starts or stops the decay ticker and ghost timer to match the
// gating condition.
func (e *Engine) syncLoops() {
	if !e.live() {
		e.nextTick = time.Time{}
		e.timers.cancel(timerGhost)
		e.ghostTyping = false
		return
	}
	if e.nextTick.IsZero() {
		e.nextTick = e.now.Add(TickInterval)
	}
	if !e.timers.pending(timerGhost) && !e.ghostTyping {
		e.timers.set(timerGhost, e.now.Add(GhostAfter))
	}
}

// step fires the single earliest item due at or before now. Decay ticks
// win ties against timers.
func (e *Engine) step(now time.Time) bool {
	name, at, ok := e.timers.next(now)
	tickDue := !e.nextTick.IsZero() && !e.nextTick.After(now)
	if tickDue && (!ok || !e.nextTick.After(at)) {
		e.now = e.nextTick
		e.tick()
		return true
	}
	if !ok {
		return false
	}
	e.now = at
	e.timers.cancel(name)
	e.fire(name)
	return true
}

func (e *Engine) tick() {
	e.nextTick = e.nextTick.Add(TickInterval)
	e.setTimeLeft(e.timeLeft - TickInterval)
}

func (e *Engine) fire(name timerName) {
	switch name {
	case timerGrace:
		if IsGibberish(e.text) {
			e.punish()
			return
		}
		e.warningText = false
		e.emit(EventReprieved)
	case timerPulse:
		e.punished = false
	case timerOverride:
		e.override = ""
	case timerFlowClear:
		e.flowActive = false
		e.flowAccum = 0
		e.emit(EventFlowEnded)
	case timerGhost:
		e.ghostTyping = true
		e.emit(EventGhost)
	}
}

func (e *Engine) emit(t EventType) {
	e.events = append(e.events, Event{
		Type:     t,
		At:       e.now,
		TimeLeft: e.timeLeft,
		Status:   e.status(),
	})
}

package reaper

import "time"

// EventType identifies an engine transition worth telling observers about.
type EventType string

const (
	EventActivated   EventType = "activated"
	EventSuspected   EventType = "suspected"
	EventReprieved   EventType = "reprieved"
	EventPunished    EventType = "punished"
	EventAscended    EventType = "ascended"
	EventFlowStarted EventType = "flow_started"
	EventFlowEnded   EventType = "flow_ended"
	EventGhost       EventType = "ghost"
	EventDeath       EventType = "death"
	EventRevived     EventType = "revived"
)

// Event is a transition recorded by the engine. A death event is the
// signal to discard any persisted draft.
type Event struct {
	Type     EventType
	At       time.Time
	TimeLeft time.Duration
	Status   Status
}

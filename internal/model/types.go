// Package model defines shared data structures.
package model

import "time"

// Config defines writing session settings.
type Config struct {
	Goal            int
	Zen             bool
	Prompt          bool
	PromptWords     int
	WordListPath    string
	AutosaveSeconds int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionStats captures a finished writing session.
type SessionStats struct {
	UID         string
	StartedAt   time.Time
	EndedAt     time.Time
	Goal        int
	Words       int
	Chars       int
	SurvivedMs  int64
	PeakMs      int64
	Deaths      int
	Punishments int
	Flows       int
	Ghosts      int
	Ascended    bool
	Zen         bool
}

// SessionEvent is one engine transition recorded during a session.
type SessionEvent struct {
	Seq        int
	Type       string
	At         time.Time
	TimeLeftMs int64
	Status     string
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID   int64
	UID         string
	EndedAt     time.Time
	Goal        int
	Words       int
	SurvivedMs  int64
	Deaths      int
	Punishments int
	Flows       int
	Ghosts      int
	Ascended    bool
}

// EventCount is the number of events of one type across sessions.
type EventCount struct {
	Type  string
	Count int
}

// Draft is the persisted in-progress text.
type Draft struct {
	Text      string
	UpdatedAt time.Time
}

package tui

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/verte-zerg/reaper/internal/model"
	"github.com/verte-zerg/reaper/internal/reaper"
)

// session accumulates what the engine reported during one life.
type session struct {
	uid       string
	startedAt time.Time
	open      bool
	recorded  bool

	peak        time.Duration
	deaths      int
	punishments int
	flows       int
	ghosts      int
	ascended    bool

	events []model.SessionEvent
}

func newSession() session {
	return session{uid: uuid.NewString()}
}

func (s *session) observe(ev reaper.Event) {
	s.events = append(s.events, model.SessionEvent{
		Seq:        len(s.events),
		Type:       string(ev.Type),
		At:         ev.At,
		TimeLeftMs: ev.TimeLeft.Milliseconds(),
		Status:     string(ev.Status),
	})
	if ev.TimeLeft > s.peak {
		s.peak = ev.TimeLeft
	}
	switch ev.Type {
	case reaper.EventActivated:
		if !s.open {
			s.open = true
			s.startedAt = ev.At
		}
	case reaper.EventPunished:
		s.punishments++
	case reaper.EventFlowStarted:
		s.flows++
	case reaper.EventGhost:
		s.ghosts++
	case reaper.EventAscended:
		s.ascended = true
	case reaper.EventDeath:
		s.deaths++
	}
}

func (s *session) notePeak(left time.Duration) {
	if left > s.peak {
		s.peak = left
	}
}

func (s *session) stats(endedAt time.Time, state reaper.State, text string) model.SessionStats {
	survived := endedAt.Sub(s.startedAt)
	if survived < 0 {
		survived = 0
	}
	return model.SessionStats{
		UID:         s.uid,
		StartedAt:   s.startedAt,
		EndedAt:     endedAt,
		Goal:        state.Goal,
		Words:       reaper.CountWords(text),
		Chars:       utf8.RuneCountInString(text),
		SurvivedMs:  survived.Milliseconds(),
		PeakMs:      s.peak.Milliseconds(),
		Deaths:      s.deaths,
		Punishments: s.punishments,
		Flows:       s.flows,
		Ghosts:      s.ghosts,
		Ascended:    s.ascended,
		Zen:         state.Zen,
	}
}

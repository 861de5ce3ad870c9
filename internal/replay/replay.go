// Package replay feeds scripted keystroke timelines through a decay engine
// on virtual time.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/reaper/internal/reaper"
)

// Script is a timeline of writer actions relative to the session start.
type Script struct {
	Goal  int    `yaml:"goal"`
	Zen   bool   `yaml:"zen"`
	Until string `yaml:"until"`
	Steps []Step `yaml:"steps"`

	until time.Duration
}

// Step is one scripted action. Within a step, goal and zen changes apply
// before revive, and revive before the keystroke.
type Step struct {
	At     string  `yaml:"at"`
	Text   *string `yaml:"text"`
	Blank  bool    `yaml:"blank"`
	Zen    *bool   `yaml:"zen"`
	Revive bool    `yaml:"revive"`
	Goal   *int    `yaml:"goal"`

	at time.Duration
}

// Entry is one engine event in a replay timeline.
type Entry struct {
	At       string `yaml:"at"`
	Event    string `yaml:"event"`
	TimeLeft string `yaml:"time_left"`
	Status   string `yaml:"status"`
}

// Final summarises the engine when the replay stops.
type Final struct {
	At            string `yaml:"at"`
	Status        string `yaml:"status"`
	TimeLeft      string `yaml:"time_left"`
	Words         int    `yaml:"words"`
	PactFulfilled bool   `yaml:"pact_fulfilled"`
	Flow          bool   `yaml:"flow"`
	Ghost         bool   `yaml:"ghost"`
	Zen           bool   `yaml:"zen"`
}

// Result is the outcome of a replay.
type Result struct {
	Timeline []Entry `yaml:"timeline"`
	Final    Final   `yaml:"final"`

	state reaper.State
}

// State returns the engine snapshot at the end of the replay.
func (r Result) State() reaper.State {
	return r.state
}

// Load reads and validates a script file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read replay script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse replay script: %w", err)
	}
	if err := s.validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

func (s *Script) validate() error {
	if s.Goal < 0 {
		return errors.New("goal must be >= 0")
	}
	if len(s.Steps) == 0 {
		return errors.New("replay script has no steps")
	}
	var prev time.Duration
	for i := range s.Steps {
		step := &s.Steps[i]
		at, err := time.ParseDuration(step.At)
		if err != nil {
			return fmt.Errorf("step %d: invalid at %q: %w", i+1, step.At, err)
		}
		if at < prev {
			return fmt.Errorf("step %d: at %s is before the previous step", i+1, step.At)
		}
		if step.Text != nil && step.Blank {
			return fmt.Errorf("step %d: text and blank are exclusive", i+1)
		}
		if step.Text == nil && !step.Blank && step.Zen == nil && !step.Revive && step.Goal == nil {
			return fmt.Errorf("step %d: no action", i+1)
		}
		if step.Goal != nil && *step.Goal < 0 {
			return fmt.Errorf("step %d: goal must be >= 0", i+1)
		}
		step.at = at
		prev = at
	}
	if s.Until != "" {
		until, err := time.ParseDuration(s.Until)
		if err != nil {
			return fmt.Errorf("invalid until %q: %w", s.Until, err)
		}
		if until < prev {
			return fmt.Errorf("until %s is before the last step", s.Until)
		}
		s.until = until
	}
	return nil
}

// Run replays the script from start. Scripts must come from Parse or Load.
func Run(s Script, start time.Time) Result {
	engine := reaper.New(reaper.Options{Goal: s.Goal, Zen: s.Zen})
	var res Result
	collect := func() {
		for _, ev := range engine.Drain() {
			res.Timeline = append(res.Timeline, Entry{
				At:       offset(ev.At.Sub(start)),
				Event:    string(ev.Type),
				TimeLeft: offset(ev.TimeLeft),
				Status:   string(ev.Status),
			})
		}
	}

	end := start
	for _, step := range s.Steps {
		now := start.Add(step.at)
		end = now
		engine.Advance(now)
		collect()
		if step.Goal != nil {
			engine.SetGoal(*step.Goal)
		}
		if step.Zen != nil {
			engine.SetZen(now, *step.Zen)
		}
		if step.Revive {
			engine.Revive(now)
		}
		switch {
		case step.Text != nil:
			engine.SetWordCount(reaper.CountWords(*step.Text))
			engine.Stroke(now, *step.Text)
		case step.Blank:
			engine.StrokeBlank(now)
		}
		collect()
	}
	if s.until > 0 {
		end = start.Add(s.until)
	}
	engine.Advance(end)
	collect()

	state := engine.State()
	res.state = state
	res.Final = Final{
		At:            offset(end.Sub(start)),
		Status:        string(state.Status),
		TimeLeft:      offset(state.TimeLeft),
		Words:         state.Words,
		PactFulfilled: state.PactFulfilled,
		Flow:          state.FlowActive,
		Ghost:         state.GhostTyping,
		Zen:           state.Zen,
	}
	return res
}

func offset(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// WriteText prints the timeline as aligned columns followed by the final
// state.
func (r Result) WriteText(w io.Writer) error {
	for _, e := range r.Timeline {
		if _, err := fmt.Fprintf(w, "%-10s %-13s %-10s %s\n", e.At, e.Event, e.TimeLeft, e.Status); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "final @ %s: %s, %s left, %d words, pact=%t flow=%t ghost=%t zen=%t\n",
		r.Final.At, r.Final.Status, r.Final.TimeLeft, r.Final.Words,
		r.Final.PactFulfilled, r.Final.Flow, r.Final.Ghost, r.Final.Zen)
	return err
}

// WriteYAML encodes the result as YAML.
func (r Result) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode replay result: %w", err)
	}
	return enc.Close()
}

// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/reaper/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes words per minute over the survived time.
func SessionMetrics(words int, survivedMs int64) (wpm, seconds float64) {
	if survivedMs <= 0 {
		return 0, 0
	}
	seconds = float64(survivedMs) / 1000.0
	wpm = float64(words) / (seconds / 60.0)
	return wpm, seconds
}

// PunishmentRate returns punishments per hundred words.
func PunishmentRate(punishments, words int) float64 {
	if words <= 0 {
		return 0
	}
	return float64(punishments) / float64(words) * 100
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Summary holds totals across sessions.
type Summary struct {
	Sessions    int
	Words       int
	AvgWPM      float64
	BestWPM     float64
	Longest     time.Duration
	Deaths      int
	Punishments int
	Ascensions  int
}

// Summarize folds sessions into totals.
func Summarize(sessions []model.SessionAggregate) Summary {
	var sum Summary
	var totalWPM float64
	for _, s := range sessions {
		wpm, _ := SessionMetrics(s.Words, s.SurvivedMs)
		totalWPM += wpm
		sum.BestWPM = math.Max(sum.BestWPM, wpm)
		sum.Words += s.Words
		sum.Deaths += s.Deaths
		sum.Punishments += s.Punishments
		if s.Ascended {
			sum.Ascensions++
		}
		if d := time.Duration(s.SurvivedMs) * time.Millisecond; d > sum.Longest {
			sum.Longest = d
		}
	}
	sum.Sessions = len(sessions)
	if sum.Sessions > 0 {
		sum.AvgWPM = totalWPM / float64(sum.Sessions)
	}
	return sum
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Words: %s", humanize.Comma(int64(sum.Words))),
		fmt.Sprintf("Avg WPM: %.1f", sum.AvgWPM),
		fmt.Sprintf("Best WPM: %.1f", sum.BestWPM),
		fmt.Sprintf("Longest run: %s", sum.Longest.Round(time.Second)),
		fmt.Sprintf("Deaths: %d", sum.Deaths),
		fmt.Sprintf("Punishments: %d", sum.Punishments),
		fmt.Sprintf("Pacts fulfilled: %d", sum.Ascensions),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SessionRows builds table rows for sessions, newest first.
func SessionRows(sessions []model.SessionAggregate, now time.Time) ([]string, [][]string) {
	headers := []string{"Ended", "Words", "WPM", "Survived", "Deaths", "Punished", "Flows", "Pact"}
	rows := make([][]string, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		wpm, _ := SessionMetrics(s.Words, s.SurvivedMs)
		pact := "-"
		if s.Ascended {
			pact = "yes"
		}
		rows = append(rows, []string{
			humanize.RelTime(s.EndedAt, now, "ago", "from now"),
			humanize.Comma(int64(s.Words)),
			fmt.Sprintf("%.1f", wpm),
			(time.Duration(s.SurvivedMs) * time.Millisecond).Round(time.Second).String(),
			fmt.Sprintf("%d", s.Deaths),
			fmt.Sprintf("%d", s.Punishments),
			fmt.Sprintf("%d", s.Flows),
			pact,
		})
	}
	return headers, rows
}

// RenderSessionTable prints sessions as an aligned table clipped to width.
func RenderSessionTable(w io.Writer, sessions []model.SessionAggregate, now time.Time, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	headers, rows := SessionRows(sessions, now)
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, truncateLine(line, width)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderEventCounts prints how often each engine event occurred.
func RenderEventCounts(w io.Writer, counts []model.EventCount) error {
	if len(counts) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Type, humanize.Comma(int64(c.Count))})
	}
	if _, err := fmt.Fprintln(w, "Events"); err != nil {
		return err
	}
	for _, line := range formatTable([]string{"Event", "Count"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

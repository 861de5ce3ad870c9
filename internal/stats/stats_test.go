package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/reaper/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	wpm, secs := SessionMetrics(100, 120000)
	if wpm != 50 || secs != 120 {
		t.Fatalf("expected 50 wpm over 120s, got %.2f over %.2f", wpm, secs)
	}
	if wpm, secs := SessionMetrics(10, 0); wpm != 0 || secs != 0 {
		t.Fatalf("expected zero metrics for zero duration")
	}
}

func TestPunishmentRate(t *testing.T) {
	if got := PunishmentRate(3, 150); got != 2 {
		t.Fatalf("expected 2 per hundred words, got %.2f", got)
	}
	if got := PunishmentRate(3, 0); got != 0 {
		t.Fatalf("expected zero rate without words, got %.2f", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %.2f, want %.2f", i, got[i], want[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestRenderSummary(t *testing.T) {
	sessions := []model.SessionAggregate{
		{Words: 1200, SurvivedMs: 600000, Deaths: 1, Punishments: 2},
		{Words: 300, SurvivedMs: 60000, Ascended: true},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Words: 1,500", "Best WPM: 300.0", "Longest run: 10m0s", "Pacts fulfilled: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No sessions found." {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestSessionRowsNewestFirst(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionAggregate{
		{EndedAt: now.Add(-3 * time.Hour), Words: 10, SurvivedMs: 60000},
		{EndedAt: now.Add(-time.Hour), Words: 2500, SurvivedMs: 90000, Ascended: true},
	}
	headers, rows := SessionRows(sessions, now)
	if len(headers) != 8 || len(rows) != 2 {
		t.Fatalf("unexpected table shape %d x %d", len(headers), len(rows))
	}
	if rows[0][0] != "1 hour ago" || rows[0][1] != "2,500" || rows[0][7] != "yes" {
		t.Fatalf("unexpected newest row %v", rows[0])
	}
	if rows[1][0] != "3 hours ago" || rows[1][2] != "10.0" {
		t.Fatalf("unexpected oldest row %v", rows[1])
	}
}

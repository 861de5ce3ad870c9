package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/reaper/internal/model"
	"github.com/verte-zerg/reaper/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "reaper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		end := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		stats := model.SessionStats{
			UID:        fmt.Sprintf("session-%d", i),
			StartedAt:  end.Add(-time.Minute),
			EndedAt:    end,
			Words:      30 * (i + 1),
			SurvivedMs: 60000,
			Deaths:     1,
		}
		events := []model.SessionEvent{
			{Seq: 0, Type: "activated", At: end.Add(-time.Minute), TimeLeftMs: 10000, Status: "SAFE"},
			{Seq: 1, Type: "death", At: end, Status: "DEAD"},
		}
		id, err := st.InsertSession(ctx, stats, events)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 2, CurveWindow: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != ids[1] || report.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.EventCounts) != 2 || report.EventCounts[0].Count != 2 {
		t.Fatalf("unexpected event counts: %+v", report.EventCounts)
	}
	if len(report.WPMCurve) != 2 || report.WPMCurve[0] != 60 || report.WPMCurve[1] != 75 {
		t.Fatalf("unexpected wpm curve: %v", report.WPMCurve)
	}
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/reaper/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "reaper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleSession(uid string, end time.Time) model.SessionStats {
	return model.SessionStats{
		UID:         uid,
		StartedAt:   end.Add(-2 * time.Minute),
		EndedAt:     end,
		Goal:        100,
		Words:       42,
		Chars:       230,
		SurvivedMs:  120000,
		PeakMs:      15000,
		Deaths:      1,
		Punishments: 2,
		Flows:       3,
		Ghosts:      1,
		Ascended:    false,
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []int64
	for i, uid := range []string{"a", "b", "c"} {
		events := []model.SessionEvent{
			{Seq: 0, Type: "activated", At: base, TimeLeftMs: 10000, Status: "SAFE"},
			{Seq: 1, Type: "punished", At: base.Add(time.Second), TimeLeftMs: 8000, Status: "MOCKERY"},
		}
		id, err := st.InsertSession(ctx, sampleSession(uid, base.Add(time.Duration(i)*time.Hour)), events)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].UID != "a" || sessions[2].UID != "c" {
		t.Fatalf("expected oldest first, got %+v", sessions)
	}
	if sessions[1].Words != 42 || sessions[1].Punishments != 2 || sessions[1].Ascended {
		t.Fatalf("unexpected aggregate %+v", sessions[1])
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 || recent[0].SessionID != ids[2] {
		t.Fatalf("expected only the last session, got %+v", recent)
	}

	last, err := st.ListSessions(ctx, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].SessionID != ids[1] {
		t.Fatalf("expected last two sessions, got %+v", last)
	}

	events, err := st.ListEvents(ctx, ids[0])
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[1].Type != "punished" || !events[1].At.Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected events %+v", events)
	}

	counts, err := st.EventCounts(ctx, ids[:2])
	if err != nil {
		t.Fatalf("event counts: %v", err)
	}
	if len(counts) != 2 || counts[0].Count != 2 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestInsertSessionRejectsDuplicateUID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := st.InsertSession(ctx, sampleSession("dup", end), nil); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := st.InsertSession(ctx, sampleSession("dup", end), nil); err == nil {
		t.Fatalf("expected unique constraint error")
	}
}

func TestDraftLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.LoadDraft(ctx); err != nil || ok {
		t.Fatalf("expected no draft, got ok=%v err=%v", ok, err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := st.SaveDraft(ctx, model.Draft{Text: "first", UpdatedAt: now}); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if err := st.SaveDraft(ctx, model.Draft{Text: "second", UpdatedAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("overwrite draft: %v", err)
	}
	draft, ok, err := st.LoadDraft(ctx)
	if err != nil || !ok {
		t.Fatalf("load draft: ok=%v err=%v", ok, err)
	}
	if draft.Text != "second" || !draft.UpdatedAt.Equal(now.Add(time.Second)) {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if err := st.DiscardDraft(ctx); err != nil {
		t.Fatalf("discard draft: %v", err)
	}
	if _, ok, err := st.LoadDraft(ctx); err != nil || ok {
		t.Fatalf("expected draft gone, got ok=%v err=%v", ok, err)
	}
	if err := st.DiscardDraft(ctx); err != nil {
		t.Fatalf("discard is idempotent: %v", err)
	}
}

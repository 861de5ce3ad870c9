package reaper

import "testing"

func TestTimerTableTiesResolveInDeclarationOrder(t *testing.T) {
	var tt timerTable
	tt.set(timerGhost, at(1000))
	tt.set(timerOverride, at(1000))
	tt.set(timerPulse, at(1200))

	name, due, ok := tt.next(at(2000))
	if !ok || name != timerOverride || !due.Equal(at(1000)) {
		t.Fatalf("expected override at 1000, got %s %v %v", name, due, ok)
	}
	tt.cancel(name)
	if name, _, _ = tt.next(at(2000)); name != timerGhost {
		t.Fatalf("expected ghost next, got %s", name)
	}
}

func TestTimerTableNotDueYet(t *testing.T) {
	var tt timerTable
	tt.set(timerGrace, at(500))
	if _, _, ok := tt.next(at(499)); ok {
		t.Fatalf("expected nothing due before deadline")
	}
	if earliest, ok := tt.earliest(); !ok || !earliest.Equal(at(500)) {
		t.Fatalf("expected earliest at 500, got %v %v", earliest, ok)
	}
	tt.cancelAll()
	if _, ok := tt.earliest(); ok {
		t.Fatalf("expected empty table")
	}
	if tt.pending(timerGrace) {
		t.Fatalf("expected grace cancelled")
	}
}

func TestTimerNameString(t *testing.T) {
	if timerFlowClear.String() != "flow-clear" || timerName(99).String() != "unknown" {
		t.Fatalf("unexpected timer names")
	}
}

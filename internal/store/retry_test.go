package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite3 "modernc.org/sqlite/lib"
)

type codeErr struct {
	code int
}

func (e *codeErr) Error() string { return fmt.Sprintf("sqlite error (%d)", e.code) }

func (e *codeErr) Code() int { return e.code }

func TestIsTransientSQLiteErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("no such table: sessions"), want: false},
		{name: "parenthesised count", err: errors.New("deleted (5) rows"), want: false},
		{name: "locked text only", err: errors.New("database is locked"), want: false},
		{name: "busy", err: &codeErr{code: sqlite3.SQLITE_BUSY}, want: true},
		{name: "busy snapshot", err: &codeErr{code: sqlite3.SQLITE_BUSY_SNAPSHOT}, want: true},
		{name: "locked", err: &codeErr{code: sqlite3.SQLITE_LOCKED}, want: true},
		{name: "short read", err: &codeErr{code: sqlite3.SQLITE_IOERR_SHORT_READ}, want: true},
		{name: "other ioerr", err: &codeErr{code: sqlite3.SQLITE_IOERR}, want: false},
		{name: "constraint", err: &codeErr{code: sqlite3.SQLITE_CONSTRAINT}, want: false},
		{name: "wrapped busy", err: fmt.Errorf("insert session: %w", &codeErr{code: sqlite3.SQLITE_BUSY}), want: true},
	}
	for _, tc := range cases {
		if got := isTransientSQLiteErr(tc.err); got != tc.want {
			t.Fatalf("%s: isTransientSQLiteErr(%v) = %v, want %v", tc.name, tc.err, got, tc.want)
		}
	}
}

func TestRetryOpRetriesTransient(t *testing.T) {
	cfg := retryConfig{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: 2 * time.Millisecond}
	calls := 0
	err := retryOp(cfg, func() error {
		calls++
		if calls < 3 {
			return &codeErr{code: sqlite3.SQLITE_BUSY}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryOpStopsOnPermanentError(t *testing.T) {
	cfg := retryConfig{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: 2 * time.Millisecond}
	calls := 0
	permanent := errors.New("constraint failed")
	err := retryOp(cfg, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected one call returning permanent error, got %d calls, err %v", calls, err)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	cfg := retryConfig{maxRetries: 5, baseDelay: 10 * time.Millisecond, maxDelay: 40 * time.Millisecond}
	for attempt := 0; attempt < 6; attempt++ {
		d := backoffDelay(cfg, attempt)
		if d > cfg.maxDelay+cfg.baseDelay {
			t.Fatalf("attempt %d: delay %v exceeds cap", attempt, d)
		}
	}
}

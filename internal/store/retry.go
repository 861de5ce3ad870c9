package store

import (
	"errors"
	"math/rand"
	"time"

	sqlite3 "modernc.org/sqlite/lib"
)

// retryConfig bounds how long a write keeps retrying on lock contention.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var defaultRetryConfig = retryConfig{
	maxRetries: 3,
	baseDelay:  25 * time.Millisecond,
	maxDelay:   250 * time.Millisecond,
}

// sqliteCoder is satisfied by *sqlite.Error, which reports the extended
// result code of the failed call.
type sqliteCoder interface {
	Code() int
}

// isTransientSQLiteErr reports whether err carries a SQLite result code
// worth retrying: a busy or locked database, or a short read.
func isTransientSQLiteErr(err error) bool {
	var coded sqliteCoder
	if !errors.As(err, &coded) {
		return false
	}
	code := coded.Code()
	if code == sqlite3.SQLITE_IOERR_SHORT_READ {
		return true
	}
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// retryOp runs fn until it succeeds, fails permanently, or retries run out.
func retryOp(cfg retryConfig, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isTransientSQLiteErr(err) || attempt >= cfg.maxRetries {
			return err
		}
		time.Sleep(backoffDelay(cfg, attempt))
	}
}

// backoffDelay grows exponentially from baseDelay, capped at maxDelay,
// with up to baseDelay of jitter on top.
func backoffDelay(cfg retryConfig, attempt int) time.Duration {
	delay := cfg.baseDelay << uint(attempt)
	if delay <= 0 || delay > cfg.maxDelay {
		delay = cfg.maxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(cfg.baseDelay)))
}

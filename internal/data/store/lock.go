package store

import (
	"errors"
	"time"
)

// ErrLockTimeout is returned when another tracker process holds the lock for too long
var ErrLockTimeout = errors.New("timed out waiting for state file lock")

// Locker serialises load-mutate-save cycles across tracker processes
type Locker interface {
	// Lock blocks until the lock is held and returns the function that releases it
	Lock() (unlock func(), err error)
}

// NopLocker performs no locking
type NopLocker struct{}

// Lock returns immediately
func (NopLocker) Lock() (func(), error) {
	return func() {}, nil
}

// FileLocker takes an exclusive advisory lock on a side file. Git hooks and a
// running watcher are separate processes, so an in-memory mutex cannot cover them.
type FileLocker struct {
	path    string
	timeout time.Duration
	poll    time.Duration
}

// NewFileLocker creates a locker on the given lock file path
func NewFileLocker(path string, timeout time.Duration) *FileLocker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FileLocker{
		path:    path,
		timeout: timeout,
		poll:    25 * time.Millisecond,
	}
}

// Path returns the lock file path
func (l *FileLocker) Path() string {
	return l.path
}

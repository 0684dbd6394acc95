package feed

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("feed already running")

	errRefresh = errors.New("refresh requested")
)

// FeedError is a failure of the push connection itself.
type FeedError struct {
	Op  string // dial | read | decode
	URL string
	Err error
}

func (e *FeedError) Error() string { return fmt.Sprintf("feed %s %s: %v", e.Op, e.URL, e.Err) }

func (e *FeedError) Unwrap() error { return e.Err }

// MalformedEntry is a snapshot entry that was dropped.
type MalformedEntry struct {
	ID     string
	Reason string
}

func (m MalformedEntry) Error() string { return fmt.Sprintf("entry %q dropped: %s", m.ID, m.Reason) }

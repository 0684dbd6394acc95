// Package feed keeps a live, complete view of the irrigation schedule by
// subscribing to the remote service's push connection.
package feed

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"irrigation/pkg/clock"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateFailed     State = "failed"
	StateClosed     State = "closed"
)

// Source hands out snapshot subscriptions.
type Source interface {
	Subscribe() (<-chan *Snapshot, func())
}

// Reporter receives the failures the feed surfaces to the user.
type Reporter interface {
	FeedFailed(err error)
	EntryDropped(entry MalformedEntry)
}

type nopReporter struct{}

func (nopReporter) FeedFailed(error)            {}
func (nopReporter) EntryDropped(MalformedEntry) {}

type Option func(*Feed)

func WithClock(c clock.Clock) Option { return func(f *Feed) { f.clock = c } }

func WithReporter(r Reporter) Option { return func(f *Feed) { f.reporter = r } }

// Feed owns one push subscription. Run drives the connection; Subscribe and
// Current give read access to the latest snapshot.
type Feed struct {
	url      string
	dialer   Dialer
	clock    clock.Clock
	reporter Reporter

	current atomic.Pointer[Snapshot]
	seq     atomic.Uint64
	running atomic.Bool
	refresh chan struct{}

	mu     sync.Mutex
	state  State
	subs   map[uint64]chan *Snapshot
	nextID uint64
}

func New(url string, dialer Dialer, opts ...Option) *Feed {
	f := &Feed{
		url:      url,
		dialer:   dialer,
		clock:    clock.Real(nil),
		reporter: nopReporter{},
		refresh:  make(chan struct{}, 1),
		state:    StateIdle,
		subs:     map[uint64]chan *Snapshot{},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Feed) URL() string { return f.url }

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Feed) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// Current returns the installed snapshot, or nil before the first message.
func (f *Feed) Current() *Snapshot { return f.current.Load() }

// Refresh asks Run to drop the current connection, if any, and subscribe
// again. The remote service pushes a full snapshot on connect. Refresh never
// blocks; concurrent requests collapse into one.
func (f *Feed) Refresh() {
	select {
	case f.refresh <- struct{}{}:
	default:
	}
}

// Subscribe registers a consumer. The channel holds at most one pending
// snapshot; a slow consumer skips intermediate snapshots but never sees
// them out of order. The returned func unsubscribes and closes the channel;
// it is safe to call more than once.
func (f *Feed) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, 1)
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	if cur := f.current.Load(); cur != nil {
		ch <- cur
	}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			close(ch)
			f.mu.Unlock()
		})
	}
}

func (f *Feed) publish(s *Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current.Store(s)
	for _, ch := range f.subs {
		select {
		case ch <- s:
		default:
			// Replace the stale pending snapshot; only publish sends, under mu.
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

// Run holds the subscription until ctx is done. A connection failure is
// reported once and the feed then waits for Refresh; it never reconnects on
// its own. The connection is closed on every return path.
func (f *Feed) Run(ctx context.Context) error {
	if !f.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer f.running.Store(false)
	defer f.setState(StateClosed)

	for {
		err := f.session(ctx)
		if ctx.Err() != nil {
			log.Printf("[feed] closed")
			return nil
		}
		if errors.Is(err, errRefresh) {
			log.Printf("[feed] refresh requested, resubscribing")
			continue
		}
		f.setState(StateFailed)
		log.Printf("[feed] %v", err)
		f.reporter.FeedFailed(err)

		select {
		case <-ctx.Done():
			log.Printf("[feed] closed")
			return nil
		case <-f.refresh:
			log.Printf("[feed] refresh requested after failure")
		}
	}
}

func (f *Feed) session(ctx context.Context) error {
	f.setState(StateConnecting)
	conn, err := f.dialer.Dial(ctx, f.url)
	if err != nil {
		return &FeedError{Op: "dial", URL: f.url, Err: err}
	}
	f.setState(StateActive)
	log.Printf("[feed] connected to %s", f.url)

	readErr := make(chan error, 1)
	go func() { readErr <- f.readLoop(conn) }()

	select {
	case <-ctx.Done():
		conn.Close()
		<-readErr
		return ctx.Err()
	case <-f.refresh:
		conn.Close()
		<-readErr
		return errRefresh
	case err := <-readErr:
		conn.Close()
		return &FeedError{Op: "read", URL: f.url, Err: err}
	}
}

func (f *Feed) readLoop(conn Conn) error {
	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.handle(payload)
	}
}

func (f *Feed) handle(payload []byte) {
	snap, dropped, err := Parse(payload, f.clock.Now())
	if err != nil {
		ferr := &FeedError{Op: "decode", URL: f.url, Err: err}
		log.Printf("[feed] %v", ferr)
		f.reporter.FeedFailed(ferr)
		return
	}
	for _, d := range dropped {
		log.Printf("[feed] %v", d)
		f.reporter.EntryDropped(d)
	}
	snap.Seq = f.seq.Add(1)
	f.publish(snap)
}

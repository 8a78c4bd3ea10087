// Copyright 2024 The go-netmap Authors. All rights reserved.
//
// Use of this source code is governed by MIT license which
// can be found in the LICENSE file in the root of the source
// tree.

package netmap

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	"github.com/halvorsen/go-netmap/internal/reactor"
)

// AsyncEndpoint adapts one Endpoint's file descriptor into a
// readiness-driven byte-stream surface: blocking Read/Write/Flush
// methods gated on epoll readiness rather than a busy loop, the usual
// Go substitute for a callback- or future-driven poll_read/poll_write
// interface. A single reactor is shared by every AsyncTXRing and
// AsyncRXRing derived from the same AsyncEndpoint, one readiness
// source per file descriptor.
type AsyncEndpoint struct {
	endpoint *Endpoint
	reactor  reactor.Reactor

	mu        sync.Mutex
	waiters   map[reactor.EventType][]chan struct{}
	closeOnce sync.Once
}

// NewAsyncEndpoint wraps ep for asynchronous use, starting its own
// background poll loop. The caller must call Close when done.
func NewAsyncEndpoint(ep *Endpoint) (*AsyncEndpoint, error) {
	r, err := reactor.New()
	if err != nil {
		return nil, &Error{Kind: KindUnsupportedPlatform, Err: err}
	}

	ae := &AsyncEndpoint{
		endpoint: ep,
		reactor:  r,
		waiters:  make(map[reactor.EventType][]chan struct{}),
	}

	if err := r.Register(ep.FD(), reactor.EventRead|reactor.EventWrite, ae.onReady); err != nil {
		r.Close()
		return nil, &Error{Kind: KindIO, Err: err}
	}

	go ae.loop()
	return ae, nil
}

func (ae *AsyncEndpoint) onReady(fd int, events reactor.EventType) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	// EventError (hangup, fd failure) wakes every waiter regardless of
	// which event it asked for: the fd won't become read/write ready
	// on its own after this, so the caller's next Send/Recv/Sync is
	// what actually surfaces the failure.
	for kind, chans := range ae.waiters {
		if events&kind == 0 && events&reactor.EventError == 0 {
			continue
		}
		for _, ch := range chans {
			close(ch)
		}
		delete(ae.waiters, kind)
	}
}

func (ae *AsyncEndpoint) loop() {
	for {
		if err := ae.reactor.Poll(100); err != nil {
			return
		}
	}
}

// wait blocks until the reactor reports ev for this endpoint's fd, or
// ctx is done. It returns ctx.Err() on cancellation.
func (ae *AsyncEndpoint) wait(ctx context.Context, ev reactor.EventType) error {
	ch := make(chan struct{})

	ae.mu.Lock()
	ae.waiters[ev] = append(ae.waiters[ev], ch)
	ae.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		ae.removeWaiter(ev, ch)
		return ctx.Err()
	}
}

// removeWaiter drops ch from ae.waiters[ev], for a wait() call whose
// context was cancelled before onReady ever fired for it. Without
// this, a congested ring fed a string of short-lived contexts leaks
// one channel per timed-out call for the life of the AsyncEndpoint.
func (ae *AsyncEndpoint) removeWaiter(ev reactor.EventType, ch chan struct{}) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	chans := ae.waiters[ev]
	for i, c := range chans {
		if c == ch {
			ae.waiters[ev] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
}

// Close stops the poll loop and releases the reactor's resources. It
// does not close the underlying Endpoint.
func (ae *AsyncEndpoint) Close() error {
	var err error
	ae.closeOnce.Do(func() {
		ae.reactor.Unregister(ae.endpoint.FD())
		err = ae.reactor.Close()
	})
	return err
}

// AsyncTXRing wraps a TXRing with blocking, context-aware Write/Flush
// methods, retrying the sync ioctl under readiness instead of busy
// polling.
type AsyncTXRing struct {
	ep   *AsyncEndpoint
	ring *TXRing
}

// NewAsyncTXRing returns an async wrapper around ring, driven by ae's
// reactor.
func NewAsyncTXRing(ae *AsyncEndpoint, ring *TXRing) *AsyncTXRing {
	return &AsyncTXRing{ep: ae, ring: ring}
}

// Write sends p as a single packet, blocking until the ring has space
// or ctx is done. An empty p is a no-op that returns immediately
// without touching the ring. An oversize payload fails immediately
// without blocking.
func (a *AsyncTXRing) Write(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		err := a.ring.Send(p)
		switch {
		case err == nil:
			return len(p), nil
		case isInsufficientSpace(err):
			if waitErr := a.ep.wait(ctx, reactor.EventWrite); waitErr != nil {
				return 0, waitErr
			}
			if syncErr := a.Flush(); syncErr != nil {
				return 0, syncErr
			}
		default:
			return 0, err
		}
	}
}

// Flush invokes the TX-sync ioctl, publishing pending sends to the
// NIC and refreshing tail. Each invocation is counted by the
// reactor package's ioctl test-mode counter.
func (a *AsyncTXRing) Flush() error {
	reactor.CountSyncIoctl()
	return a.ring.Sync()
}

// rxBatchSize bounds how many frames one fill (one Sync) drains into
// pending; Read serves frames only from pending and calls fill again
// once pending is empty. Draining a batch per ioctl rather than one frame per
// ioctl is the difference between an RX path that scales and one
// that spends most of its time in the kernel.
const rxBatchSize = 64

// AsyncRXRing wraps an RXRing with a blocking, context-aware Read
// method. Frames drained by one Sync are buffered in pending (a FIFO
// from momentics-hioload-ws's task-queue dependency, repurposed here
// to decouple "packets received this syscall" from "packets served to
// the caller") so a single readiness wakeup can satisfy several Read
// calls without re-entering the kernel.
type AsyncRXRing struct {
	ep      *AsyncEndpoint
	ring    *RXRing
	pending *queue.Queue
}

// NewAsyncRXRing returns an async wrapper around ring, driven by ae's
// reactor.
func NewAsyncRXRing(ae *AsyncEndpoint, ring *RXRing) *AsyncRXRing {
	return &AsyncRXRing{ep: ae, ring: ring, pending: queue.New()}
}

// Read copies the next available frame into p, blocking until one
// arrives or ctx is done. A zero-length slot is consumed silently and
// Read retries rather than returning a spurious zero-byte result to
// the caller.
func (a *AsyncRXRing) Read(ctx context.Context, p []byte) (int, error) {
	for {
		if a.pending.Length() > 0 {
			f := a.pending.Remove().(OwnedFrame)
			if f.Len() == 0 {
				continue
			}
			return copy(p, f.Bytes()), nil
		}

		if err := a.fill(); err != nil {
			return 0, err
		}
		if a.pending.Length() > 0 {
			continue
		}

		if waitErr := a.ep.wait(ctx, reactor.EventRead); waitErr != nil {
			return 0, waitErr
		}
	}
}

// fill syncs the ring once and drains up to rxBatchSize available
// frames into pending as owned copies, since a borrowed Frame's
// validity ends at the next Recv/Sync call on this ring.
func (a *AsyncRXRing) fill() error {
	reactor.CountSyncIoctl()
	if err := a.ring.Sync(); err != nil {
		return err
	}

	for i := 0; i < rxBatchSize; i++ {
		f, ok := a.ring.Recv()
		if !ok {
			break
		}
		a.pending.Add(NewOwnedFrame(f.Bytes()))
	}
	return nil
}

func isInsufficientSpace(err error) bool {
	nmErr, ok := err.(*Error)
	return ok && nmErr.Kind == KindInsufficientSpace
}

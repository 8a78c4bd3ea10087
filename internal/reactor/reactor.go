// Copyright 2024 The go-netmap Authors. All rights reserved.
//
// Use of this source code is governed by MIT license which
// can be found in the LICENSE file in the root of the source
// tree.

// Package reactor provides the event-readiness primitive the async
// adapter drives its suspend/resume cycle on. Its shape is grounded
// on momentics-hioload-ws's reactor package
// (Register/Unregister/Poll over epoll), adapted so a single reactor
// instance can be shared by every ring handle of one endpoint, the
// way a cooperative scheduler shares one readiness source per file
// descriptor.
package reactor

import "sync/atomic"

// EventType is a bitmask of readiness conditions.
type EventType uint8

const (
	// EventRead indicates the fd is readable.
	EventRead EventType = 1 << iota
	// EventWrite indicates the fd is writable.
	EventWrite
	// EventError indicates the fd hit an error or hangup condition.
	EventError
)

// Callback is invoked by Poll when a registered fd becomes ready.
type Callback func(fd int, events EventType)

// Reactor multiplexes readiness across file descriptors registered
// with Register, delivering events to their callbacks from Poll.
type Reactor interface {
	// Register starts watching fd for the given events, invoking cb
	// on each Poll call that observes readiness.
	Register(fd int, events EventType, cb Callback) error

	// Modify changes the watched events for an already-registered fd.
	Modify(fd int, events EventType) error

	// Unregister stops watching fd.
	Unregister(fd int) error

	// Poll blocks up to timeoutMs (negative blocks indefinitely) for
	// readiness on any registered fd, dispatching callbacks for
	// everything it observes before returning.
	Poll(timeoutMs int) error

	// Close releases the reactor's own resources (e.g. the epoll fd).
	Close() error
}

// syncIoctlCount is incremented by the async adapter each time it
// issues the framework's TX/RX sync ioctl. Exposing this as a process-
// wide counter lets tests assert that batching actually reduces ioctl
// traffic instead of trusting it by inspection; it is shared by every
// AsyncEndpoint in the process.
var syncIoctlCount atomic.Int64

// CountSyncIoctl records one TX/RX sync ioctl invocation.
func CountSyncIoctl() {
	syncIoctlCount.Add(1)
}

// SyncIoctlCount returns the number of sync ioctls counted so far.
func SyncIoctlCount() int64 {
	return syncIoctlCount.Load()
}

// ResetSyncIoctlCount zeroes the counter, for test isolation between
// cases in the same process.
func ResetSyncIoctlCount() {
	syncIoctlCount.Store(0)
}

//go:build !linux

// Copyright 2024 The go-netmap Authors. All rights reserved.
//
// Use of this source code is governed by MIT license which
// can be found in the LICENSE file in the root of the source
// tree.

package reactor

import "fmt"

// stubReactor reports KindUnsupportedPlatform-flavored errors on every
// call. The framework this package bridges is Linux/BSD kernel-bypass
// software; the async adapter still needs to build and fail cleanly
// on other platforms rather than not compile at all.
type stubReactor struct{}

// New returns the platform's Reactor implementation. Non-Linux
// platforms have no epoll, so New always returns an error.
func New() (Reactor, error) {
	return nil, fmt.Errorf("reactor: unsupported platform")
}

func (stubReactor) Register(fd int, events EventType, cb Callback) error {
	return fmt.Errorf("reactor: unsupported platform")
}

func (stubReactor) Modify(fd int, events EventType) error {
	return fmt.Errorf("reactor: unsupported platform")
}

func (stubReactor) Unregister(fd int) error {
	return fmt.Errorf("reactor: unsupported platform")
}

func (stubReactor) Poll(timeoutMs int) error {
	return fmt.Errorf("reactor: unsupported platform")
}

func (stubReactor) Close() error {
	return nil
}

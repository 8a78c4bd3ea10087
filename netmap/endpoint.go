// Copyright 2024 The go-netmap Authors. All rights reserved.
//
// Use of this source code is governed by MIT license which
// can be found in the LICENSE file in the root of the source
// tree.

package netmap

/*
#define NETMAP_WITH_LIBS
#include <net/netmap_user.h>
*/
import "C"

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Builder configures and opens an Endpoint.
//
// The zero value is not usable; construct one with NewBuilder.
type Builder struct {
	txRings    int
	rxRings    int
	extraFlags uint32
}

// NewBuilder returns a Builder with framework defaults: 0 rings
// requested (meaning "all rings of the relevant kind") and no extra
// flags.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithTXRings requests n TX rings. 0 (the default) asks the framework
// for its default ring count.
func (b *Builder) WithTXRings(n int) *Builder {
	b.txRings = n
	return b
}

// WithRXRings requests n RX rings.
func (b *Builder) WithRXRings(n int) *Builder {
	b.rxRings = n
	return b
}

// WithFlags ORs extra flags verbatim into the request's nr_flags.
func (b *Builder) WithFlags(flags uint32) *Builder {
	b.extraFlags |= flags
	return b
}

// Open parses ident, constructs the framework's request structure,
// and opens the endpoint. See parseIdent for the identifier grammar
// and buildRequest for where the requested ring counts are placed;
// the effective ring counts are read from the opened descriptor here,
// from the host fields for a host attachment and the hardware fields
// otherwise.
func (b *Builder) Open(ident string) (*Endpoint, error) {
	parsed, err := parseIdent(ident)
	if err != nil {
		return nil, err
	}

	req, err := buildRequest(parsed, b.txRings, b.rxRings, b.extraFlags)
	if err != nil {
		return nil, err
	}

	desc, bindErr := cOpen(parsed.raw, req)
	if bindErr != nil {
		return nil, bindErr
	}

	ep := &Endpoint{
		desc:       desc,
		isHostIF:   parsed.wantsHostRings,
		numTXRings: int(desc.nifp.ni_tx_rings),
		numRXRings: int(desc.nifp.ni_rx_rings),
	}
	if parsed.wantsHostRings {
		ep.numTXRings = int(desc.nifp.ni_host_tx_rings)
		ep.numRXRings = int(desc.nifp.ni_host_rx_rings)
	}
	ep.issuedTX = make([]bool, ep.numTXRings)
	ep.issuedRX = make([]bool, ep.numRXRings)

	slog.Debug("netmap: endpoint opened",
		"ident", ident, "tx_rings", ep.numTXRings, "rx_rings", ep.numRXRings,
		"host", ep.isHostIF)

	return ep, nil
}

// Endpoint is a user-space handle to one opened attachment: a
// physical NIC, a host-stack attachment, a VALE port, or a named
// pipe.
//
// An Endpoint is safe to hand off across goroutines, but it is not
// safe for concurrent ring issuance and close to race: callers must
// serialize Close against any in-flight TXRing/RXRing calls, same as
// the framework's own single-owner-per-descriptor contract.
type Endpoint struct {
	desc *C.struct_nm_desc

	numTXRings int
	numRXRings int
	isHostIF   bool

	mu       sync.Mutex
	issuedTX []bool
	issuedRX []bool

	closeOnce sync.Once
	poisonMu  sync.Mutex
	poisoned  atomic.Bool
	poisonErr atomic.Value // error
}

// NumTXRings returns the effective TX ring count for this attachment
// kind (hardware or host, per parsed identifier).
func (e *Endpoint) NumTXRings() int { return e.numTXRings }

// NumRXRings returns the effective RX ring count.
func (e *Endpoint) NumRXRings() int { return e.numRXRings }

// IsHostIF reports whether this endpoint attached to the host stack
// (the identifier carried a trailing '^').
func (e *Endpoint) IsHostIF() bool { return e.isHostIF }

// FD returns the endpoint's underlying file descriptor, for use by
// the async adapter's readiness integration.
func (e *Endpoint) FD() int { return int(e.desc.fd) }

// errClosed stands in for a nil cause: atomic.Value rejects storing a
// nil interface, and a clean Close still needs to poison the endpoint.
var errClosed = errors.New("netmap: endpoint closed")

// poison marks the endpoint as fatally failed; all subsequent ring
// operations that return an error return KindIO wrapping cause.
// RXRing.Recv and RXRing.RecvBatch return no error: on a poisoned
// endpoint they report no frame. Reserved for conditions
// that make the descriptor itself unusable (a closed or failed
// mapping) — a transient sync-ioctl failure is not fatal and must not
// poison the endpoint.
func (e *Endpoint) poison(cause error) {
	if cause == nil {
		cause = errClosed
	}

	e.poisonMu.Lock()
	defer e.poisonMu.Unlock()
	if e.poisoned.Load() {
		return
	}
	// Store the cause before flipping the flag: checkPoisoned reads
	// poisoned first, and must never observe poisoned==true with
	// poisonErr still unset.
	e.poisonErr.Store(cause)
	e.poisoned.Store(true)
}

func (e *Endpoint) checkPoisoned() error {
	if e.poisoned.Load() {
		if v := e.poisonErr.Load(); v != nil {
			return errIO(v.(error))
		}
		return errIO(nil)
	}
	return nil
}

// TXRing returns an exclusive handle to TX ring index. Each index may
// be issued at most once per Endpoint lifetime, preventing two mutable
// handles from aliasing the same ring; a second call for the same
// index, or an out-of-range index, returns KindInvalidRingIndex.
func (e *Endpoint) TXRing(index int) (*TXRing, error) {
	if err := e.checkPoisoned(); err != nil {
		return nil, err
	}
	if index < 0 || index >= e.numTXRings {
		return nil, errInvalidRingIndex(index)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.issuedTX[index] {
		return nil, errInvalidRingIndex(index)
	}
	e.issuedTX[index] = true

	return &TXRing{ring: ring{
		endpoint: e,
		c:        cTXRingPtr(e.desc, index),
		index:    index,
	}}, nil
}

// RXRing returns an exclusive handle to RX ring index, with the same
// single-issue contract as TXRing.
func (e *Endpoint) RXRing(index int) (*RXRing, error) {
	if err := e.checkPoisoned(); err != nil {
		return nil, err
	}
	if index < 0 || index >= e.numRXRings {
		return nil, errInvalidRingIndex(index)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.issuedRX[index] {
		return nil, errInvalidRingIndex(index)
	}
	e.issuedRX[index] = true

	return &RXRing{ring: ring{
		endpoint: e,
		c:        cRXRingPtr(e.desc, index),
		index:    index,
	}}, nil
}

// Close releases the endpoint's file descriptor and unmaps its shared
// memory region. Ring handles issued by this endpoint borrow from it
// and must not be used afterward. Close poisons the endpoint so that
// any ring handle still reachable after Close fails cleanly with an
// I/O error (or, for Recv and RecvBatch, reports no frame) instead of
// touching an unmapped region.
func (e *Endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = cClose(e.desc)
		e.poison(err)
		slog.Debug("netmap: endpoint closed", "err", err)
	})
	return err
}

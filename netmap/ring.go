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

import "unsafe"

// ring is the state shared by TXRing and RXRing: a borrowed, exclusive
// reference to one ring of one Endpoint. TX and RX don't share a base
// class — Go has none — so both embed this type and differ only in
// which operations they expose.
type ring struct {
	endpoint *Endpoint
	c        *C.struct_netmap_ring
	index    int
}

func (r *ring) numSlots() uint32 { return uint32(r.c.num_slots) }
func (r *ring) bufSize() uint32  { return uint32(r.c.nr_buf_size) }
func (r *ring) head() uint32     { return uint32(r.c.head) }
func (r *ring) cur() uint32      { return uint32(r.c.cur) }
func (r *ring) tail() uint32     { return uint32(r.c.tail) }
func (r *ring) setHead(v uint32) { r.c.head = C.uint32_t(v) }
func (r *ring) setCur(v uint32)  { r.c.cur = C.uint32_t(v) }

func (r *ring) slotAt(i uint32) *C.struct_netmap_slot {
	base := unsafe.Pointer(&r.c.slot[0])
	sz := unsafe.Sizeof(r.c.slot[0])
	return (*C.struct_netmap_slot)(unsafe.Pointer(uintptr(base) + uintptr(i)*sz))
}

// slotBytes returns a slice aliasing slot i's buffer, bounded by
// length bytes. The slice is only valid until the ring's cursors
// next advance.
func (r *ring) slotBytes(i uint32, length uint32) []byte {
	slot := r.slotAt(i)
	ptr := cBufPtr(r.c, uint32(slot.buf_idx))
	return unsafe.Slice((*byte)(ptr), length)
}

// RingStats carries basic per-ring receive accounting, the kind of
// counters any complete ring handle naturally exposes alongside the
// zero-copy path.
type RingStats struct {
	PktRecv     uint64
	PktOverflow uint64
	BytesRecv   uint64
}

// TXRing is an exclusive handle to one TX ring of an Endpoint.
type TXRing struct {
	ring
}

// RXRing is an exclusive handle to one RX ring of an Endpoint.
type RXRing struct {
	ring

	stats RingStats
}

// Stats returns the ring's running receive counters.
func (r *RXRing) Stats() RingStats { return r.stats }

// Sync invokes the framework's TX-sync ioctl, the only operation that
// crosses into the kernel on the hot path. It releases [head, new_tail)
// to the NIC and refreshes tail. A failed sync is reported as an I/O
// error for the caller to retry; it does not poison the endpoint, since
// the kernel sync can fail transiently under load.
func (t *TXRing) Sync() error {
	if err := t.endpoint.checkPoisoned(); err != nil {
		return err
	}
	if err := cTXSync(t.c); err != nil {
		return err
	}
	return nil
}

// Sync invokes the framework's RX-sync ioctl, publishing newly
// arrived slots by advancing the in-memory tail. Like TXRing.Sync, a
// failed sync is returned as an I/O error and does not poison the
// endpoint.
func (r *RXRing) Sync() error {
	if err := r.endpoint.checkPoisoned(); err != nil {
		return err
	}
	if err := cRXSync(r.c); err != nil {
		return err
	}
	return nil
}

// Send copies payload into the slot at cur and advances cur/head both
// to (cur+1) mod N. It does not invoke the kernel; callers must call
// Sync to publish.
func (t *TXRing) Send(payload []byte) error {
	if err := t.endpoint.checkPoisoned(); err != nil {
		return err
	}
	if uint32(len(payload)) > t.bufSize() {
		return errPacketTooLarge(len(payload))
	}

	n := t.numSlots()
	cur := t.cur()
	if !txHasSpace(cur, t.tail(), n) {
		return errInsufficientSpace()
	}

	slot := t.slotAt(cur)
	dst := t.slotBytes(cur, t.bufSize())
	copy(dst, payload)
	slot.len = C.uint16_t(len(payload))
	slot.flags = 0

	next := modAdd(cur, 1, n)
	t.setCur(next)
	t.setHead(next)
	return nil
}

// Recv returns the frame at cur if one is available, advancing cur
// (and head, to match) to the next slot. The returned frame is
// borrowed: valid only until the next Recv, RecvBatch or Sync call on
// this ring.
func (r *RXRing) Recv() (Frame, bool) {
	if r.endpoint.checkPoisoned() != nil {
		return nil, false
	}

	n := r.numSlots()
	cur := r.cur()
	if !rxHasPacket(cur, r.tail()) {
		return nil, false
	}

	slot := r.slotAt(cur)
	data := r.slotBytes(cur, uint32(slot.len))

	next := modAdd(cur, 1, n)
	r.setCur(next)
	r.setHead(next)

	r.stats.PktRecv++
	r.stats.BytesRecv += uint64(len(data))

	return borrowedFrame{data: data}, true
}

// RecvBatch fills out with successive Recv results until either the
// ring is empty or out is filled, returning the count filled. Payload
// lifetimes all bind to the next Sync.
func (r *RXRing) RecvBatch(out []Frame) int {
	for i := range out {
		f, ok := r.Recv()
		if !ok {
			return i
		}
		out[i] = f
	}
	return len(out)
}

// TXReservation is a scoped, exclusive reservation over n consecutive
// TX slots obtained from ReserveBatch. It exists only between
// ReserveBatch and Commit; a reservation that is never committed
// leaves the ring's cursors untouched.
type TXReservation struct {
	ring      *TXRing
	start     uint32
	count     int
	committed bool
}

// ReserveBatch reserves n consecutive TX slots starting at cur,
// without advancing cursors until Commit.
func (t *TXRing) ReserveBatch(n int) (*TXReservation, error) {
	if err := t.endpoint.checkPoisoned(); err != nil {
		return nil, err
	}
	free := txFree(t.cur(), t.tail(), t.numSlots())
	if uint32(n) > free {
		return nil, errInsufficientSpace()
	}
	return &TXReservation{ring: t, start: t.cur(), count: n}, nil
}

// Packet returns a mutable slice into slot i's buffer (bounded to
// length bytes) and records length as that slot's payload length.
// i must be < the reservation's slot count and length <= nr_buf_size.
func (res *TXReservation) Packet(i int, length int) ([]byte, error) {
	if i < 0 || i >= res.count {
		return nil, errInvalidRingIndex(i)
	}
	if uint32(length) > res.ring.bufSize() {
		return nil, errPacketTooLarge(length)
	}

	idx := modAdd(res.start, uint32(i), res.ring.numSlots())
	slot := res.ring.slotAt(idx)
	slot.len = C.uint16_t(length)
	slot.flags = 0
	return res.ring.slotBytes(idx, uint32(length)), nil
}

// Commit advances the ring's head and cur to the end of the
// reservation's slot range, publishing all of them for the next Sync.
// Commit may only be called once; calling it again is a no-op error.
func (res *TXReservation) Commit() error {
	if err := res.ring.endpoint.checkPoisoned(); err != nil {
		return err
	}
	if res.committed {
		return errAlreadyCommitted()
	}
	res.committed = true
	next := modAdd(res.start, uint32(res.count), res.ring.numSlots())
	res.ring.setCur(next)
	res.ring.setHead(next)
	return nil
}

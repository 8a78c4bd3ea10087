// Copyright 2024 The go-netmap Authors. All rights reserved.
//
// Use of this source code is governed by MIT license which
// can be found in the LICENSE file in the root of the source
// tree.

package netmap

/*
#cgo CFLAGS: -I/opt/netmap/include
#cgo LDFLAGS: -L/opt/netmap/lib -lnetmap
#define NETMAP_WITH_LIBS
#include <net/netmap_user.h>

// go_nm_open hides nm_open's parent-descriptor argument, which this
// package never uses (no descriptor sharing across nm_open calls).
static struct nm_desc *go_nm_open(const char *ifname, struct nmreq *req, uint64_t flags) {
	return nm_open(ifname, req, flags, NULL);
}

static int go_nm_close(struct nm_desc *d) {
	return nm_close(d);
}

static int go_nm_txsync(struct netmap_ring *ring) {
	return nm_txsync(ring);
}

static int go_nm_rxsync(struct netmap_ring *ring) {
	return nm_rxsync(ring);
}
*/
import "C"

import "unsafe"

// Registration-mode bits placed into nr_flags. Exactly one is selected
// for hardware/VALE and host attachments; a pipe carries none (the
// pipe name is self-describing).
const (
	flagRegNICOnly  uint32 = uint32(C.NR_REG_ALL_NIC) << C.NR_REG_SHIFT
	flagRegHostOnly uint32 = uint32(C.NR_REG_SW) << C.NR_REG_SHIFT
)

// cOpen issues the framework's open primitive for ident with the
// given request. It returns the resulting descriptor or a *Error of
// kind KindBindFail.
func cOpen(ident string, req *nmRequest) (*C.struct_nm_desc, *Error) {
	cIdent := C.CString(ident)
	defer C.free(unsafe.Pointer(cIdent))

	desc := C.go_nm_open(cIdent, &req.c, 0)
	if desc == nil {
		return nil, errBindFail(ident, errnoCause())
	}
	return desc, nil
}

func cClose(desc *C.struct_nm_desc) error {
	if C.go_nm_close(desc) != 0 {
		return errIO(errnoCause())
	}
	return nil
}

func cTXRingPtr(desc *C.struct_nm_desc, index int) *C.struct_netmap_ring {
	return C.NETMAP_TXRING(desc.nifp, C.uint32_t(index))
}

func cRXRingPtr(desc *C.struct_nm_desc, index int) *C.struct_netmap_ring {
	return C.NETMAP_RXRING(desc.nifp, C.uint32_t(index))
}

// cTXSync/cRXSync invoke the only operations in this package that
// cross into the kernel on the hot path. They delegate to
// netmap_user.h's own nm_txsync/nm_rxsync, which issue the
// NIOCTXSYNC/NIOCRXSYNC ioctl on the ring's owning fd and refresh
// head/cur/tail in place.
func cTXSync(ring *C.struct_netmap_ring) error {
	if C.go_nm_txsync(ring) != 0 {
		return errIO(errnoCause())
	}
	return nil
}

func cRXSync(ring *C.struct_netmap_ring) error {
	if C.go_nm_rxsync(ring) != 0 {
		return errIO(errnoCause())
	}
	return nil
}

func cBufPtr(ring *C.struct_netmap_ring, bufIdx uint32) unsafe.Pointer {
	return unsafe.Pointer(C.NETMAP_BUF(ring, C.uint32_t(bufIdx)))
}

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
*/
import "C"

// nmRequest wraps the framework's request structure during
// construction.
type nmRequest struct {
	c C.struct_nmreq
}

// buildRequest copies the base name into the request, selects exactly
// one registration mode based on the parsed identifier's flags, and
// ORs in user-supplied extra flags.
func buildRequest(p parsedIdent, txRings, rxRings int, extraFlags uint32) (*nmRequest, error) {
	req := &nmRequest{}

	nameBytes := []byte(p.base)
	if len(nameBytes)+1 > len(req.c.nr_name) {
		return nil, errBindFail(p.base, nil)
	}
	for i := range req.c.nr_name {
		req.c.nr_name[i] = 0
	}
	for i, b := range nameBytes {
		req.c.nr_name[i] = C.char(b)
	}

	req.c.nr_version = C.NETMAP_API

	switch {
	case p.isPipe:
		// Pipes default to 1/1 if the caller requested 0, matching
		// the framework's own default for a pipe endpoint.
		if txRings == 0 {
			txRings = 1
		}
		if rxRings == 0 {
			rxRings = 1
		}
		req.c.nr_tx_rings = C.uint16_t(txRings)
		req.c.nr_rx_rings = C.uint16_t(rxRings)
	case p.wantsHostRings:
		req.c.nr_flags |= C.uint32_t(flagRegHostOnly)
		req.c.nr_host_tx_rings = C.uint16_t(txRings)
		req.c.nr_host_rx_rings = C.uint16_t(rxRings)
	default:
		req.c.nr_flags |= C.uint32_t(flagRegNICOnly)
		req.c.nr_tx_rings = C.uint16_t(txRings)
		req.c.nr_rx_rings = C.uint16_t(rxRings)
	}

	req.c.nr_flags |= C.uint32_t(extraFlags)

	return req, nil
}

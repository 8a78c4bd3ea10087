package netmap

// This file isolates the ring cursor arithmetic as pure functions over
// plain integers, independent of the cgo-backed ring storage in
// ring.go. Keeping the arithmetic free of pointers lets it be
// property-tested directly (see cursor_test.go) without a real
// framework attachment, while ring.go's methods remain the single
// place that reads/writes the authoritative cursors living in shared
// memory.

// modAdd advances x by delta modulo n, using true modulus rather than
// assuming n is a power of two. Ring sizes reported by the framework
// are not guaranteed to be powers of two, so a mask-based wraparound
// would be wrong in general.
func modAdd(x, delta, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (x + delta) % n
}

// txHasSpace reports whether a TX ring with the given cur/tail/n has
// room for at least one more slot, reserving one slot to distinguish
// full from empty per framework convention.
func txHasSpace(cur, tail, n uint32) bool {
	return modAdd(cur, 1, n) != tail
}

// txFree returns the number of additional slots a TX ring can accept
// beyond its current cur, with one slot reserved per framework
// convention.
func txFree(cur, tail, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return modAdd(tail+n-cur-1, 0, n)
}

// rxHasPacket reports whether an RX ring has at least one packet
// available to read.
func rxHasPacket(cur, tail uint32) bool {
	return cur != tail
}

package netmap

import "testing"

func TestModAdd(t *testing.T) {
	cases := []struct {
		x, delta, n, want uint32
	}{
		{0, 1, 8, 1},
		{7, 1, 8, 0},
		{5, 3, 8, 0},
		{0, 0, 8, 0},
		{3, 10, 5, 3}, // 3+10=13 mod 5 = 3
	}

	for _, c := range cases {
		if got := modAdd(c.x, c.delta, c.n); got != c.want {
			t.Errorf("modAdd(%d,%d,%d) = %d, want %d", c.x, c.delta, c.n, got, c.want)
		}
	}
}

func TestTxHasSpace(t *testing.T) {
	const n = 8

	// empty ring: cur == tail, plenty of space
	if !txHasSpace(0, 0, n) {
		t.Error("expected space in empty ring")
	}

	// one slot away from colliding with tail: still space until cur+1==tail
	if !txHasSpace(5, 7, n) {
		t.Error("expected space when one slot remains")
	}

	if !txHasSpace(6, 0, n) {
		// cur+1 mod n = 7, tail = 0, not equal -> should have space
		t.Error("expected space, cur+1 != tail here")
	}

	// full: cur+1 == tail (one slot reserved)
	if txHasSpace(7, 0, n) {
		t.Error("expected ring full when cur+1 mod n == tail")
	}
}

func TestTxFree(t *testing.T) {
	const n = 8

	// empty ring: tail == cur, free slots = n-1 (one reserved)
	if got := txFree(0, 0, n); got != n-1 {
		t.Errorf("txFree empty = %d, want %d", got, n-1)
	}

	// reserve_batch(num_slots) on an empty ring must fail: free < n
	if got := txFree(0, 0, n); got >= n {
		t.Errorf("txFree must always be < n, got %d", got)
	}

	// one slot consumed from head (cur advanced once, tail unchanged)
	if got := txFree(1, 0, n); got != n-2 {
		t.Errorf("txFree after one send = %d, want %d", got, n-2)
	}
}

func TestRxHasPacket(t *testing.T) {
	if rxHasPacket(3, 3) {
		t.Error("expected no packet when cur == tail")
	}
	if !rxHasPacket(3, 4) {
		t.Error("expected a packet when cur != tail")
	}
}

// TestTxInvariantAfterSends verifies that for any sequence of sends
// interleaved with kernel-side slot reclamation, (cur-tail) mod N
// never exceeds N-1 — the ring always keeps the one slot reserved to
// tell full from empty apart.
func TestTxInvariantAfterSends(t *testing.T) {
	const n = 16
	var cur, tail uint32

	for i := 0; i < 1000; i++ {
		if txHasSpace(cur, tail, n) {
			cur = modAdd(cur, 1, n)
		}
		// occasionally the kernel frees slots, but never past cur
		if i%3 == 0 && tail != cur {
			tail = modAdd(tail, 1, n)
		}

		diff := modAdd(cur+n-tail, 0, n)
		if diff > n-1 {
			t.Fatalf("invariant violated at step %d: (cur-tail) mod n = %d", i, diff)
		}
	}
}

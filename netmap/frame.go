package netmap

// Frame is a read-only view over one received packet's payload bytes.
// It may be borrowed (zero-copy, aliasing ring memory) or owned (a
// copied byte vector). See the borrowedFrame and OwnedFrame doc
// comments for their respective lifetimes.
type Frame interface {
	// Bytes returns the payload. For a borrowed frame, the returned
	// slice is only valid until the next Recv, RecvBatch or Sync call
	// on the ring that produced it.
	Bytes() []byte

	// Len returns len(Bytes()).
	Len() int
}

// borrowedFrame aliases a slot's buffer directly; it is zero-copy but
// its validity ends at the next cursor-advancing call on its ring.
type borrowedFrame struct {
	data []byte
}

func (f borrowedFrame) Bytes() []byte { return f.data }
func (f borrowedFrame) Len() int      { return len(f.data) }

// OwnedFrame is a copied frame whose lifetime is independent of any
// ring. Used by callers that need a frame to outlive a Sync call, and
// by any in-process path that has no shared memory to borrow from.
type OwnedFrame struct {
	data []byte
}

// NewOwnedFrame copies b into a new OwnedFrame.
func NewOwnedFrame(b []byte) OwnedFrame {
	cp := make([]byte, len(b))
	copy(cp, b)
	return OwnedFrame{data: cp}
}

func (f OwnedFrame) Bytes() []byte { return f.data }
func (f OwnedFrame) Len() int      { return len(f.data) }

var (
	_ Frame = borrowedFrame{}
	_ Frame = OwnedFrame{}
)

package server

import "sync"

// history keeps the most recent broadcast frames in a fixed-size ring so
// late joiners can backfill the conversation. Frames are stored in their
// encoded form and served back verbatim.
type history struct {
	mu    sync.Mutex
	buf   [][]byte
	start int
	count int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{buf: make([][]byte, capacity)}
}

// add appends an encoded frame, evicting the oldest when the ring is full.
func (h *history) add(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = frame
		h.count++
		return
	}
	h.buf[h.start] = frame
	h.start = (h.start + 1) % len(h.buf)
}

// recent returns up to limit of the newest frames in oldest-first order. A
// non-positive limit returns everything retained.
func (h *history) recent(limit int) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([][]byte, 0, n)
	for i := h.count - n; i < h.count; i++ {
		out = append(out, h.buf[(h.start+i)%len(h.buf)])
	}
	return out
}

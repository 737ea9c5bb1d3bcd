package command

import "sync"

// tailBuffer is an io.Writer that keeps only the most recent limit bytes.
// Old bytes are evicted as new ones arrive, so memory stays bounded no
// matter how much the child writes. A limit of zero or less keeps
// everything.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
	total int64
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total += int64(len(p))
	if b.limit > 0 && len(p) >= b.limit {
		b.buf = append(b.buf[:0], p[len(p)-b.limit:]...)
		return len(p), nil
	}
	b.buf = append(b.buf, p...)
	if b.limit > 0 && len(b.buf) > b.limit {
		excess := len(b.buf) - b.limit
		b.buf = append(b.buf[:0], b.buf[excess:]...)
	}
	return len(p), nil
}

// Bytes returns a copy of the retained bytes.
func (b *tailBuffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf...)
}

// Total returns how many bytes were written, including evicted ones.
func (b *tailBuffer) Total() int64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

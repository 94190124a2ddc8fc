package monitor

import "time"

// window is a fixed-capacity ring of durations with a running sum.
type window struct {
	buf  []time.Duration
	next int
	full bool
	sum  time.Duration
}

func newWindow(capacity int) *window {
	return &window{buf: make([]time.Duration, capacity)}
}

func (w *window) add(d time.Duration) {
	if w.full {
		w.sum -= w.buf[w.next]
	}
	w.buf[w.next] = d
	w.sum += d
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.full = true
	}
}

func (w *window) len() int {
	if w.full {
		return len(w.buf)
	}
	return w.next
}

// mean returns the average in milliseconds, or 0 when empty.
func (w *window) mean() float64 {
	n := w.len()
	if n == 0 {
		return 0
	}
	return float64(w.sum) / float64(n) / float64(time.Millisecond)
}

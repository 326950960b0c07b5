package utils

import (
	"io"
)

// CounterReader counts the bytes read through it. onRead, when set, is called
// after every successful read with the running total.
type CounterReader struct {
	r      io.Reader
	c      int64
	onRead func(total int64)
}

func NewCounterReader(r io.Reader, onRead func(total int64)) *CounterReader {
	return &CounterReader{r: r, onRead: onRead}
}

func (r *CounterReader) Count() int64 {
	return r.c
}

func (r *CounterReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.c += int64(n)
		if r.onRead != nil {
			r.onRead(r.c)
		}
	}
	return n, err
}

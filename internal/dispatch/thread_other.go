//go:build !linux

package dispatch

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentThread falls back to the goroutine id where the kernel thread id is
// not available. The owner goroutine is locked to its thread, so the two
// identify the same owner.
func currentThread() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(field, ' '); i > 0 {
		field = field[:i]
	}
	id, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

//go:build debug

package arena

import "fmt"

// assertOffset panics if off cannot hold a header before limit.
// Only enabled with -tags debug.
func assertOffset(method string, off, limit uint32) {
	if off >= limit || limit-off < HeaderSize {
		panic(fmt.Sprintf("%s: offset %#x outside region of %d bytes", method, off, limit))
	}
}

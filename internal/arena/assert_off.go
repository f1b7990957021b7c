//go:build !debug

package arena

// assertOffset is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertOffset(string, uint32, uint32) {}

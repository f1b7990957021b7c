package arena

// Option supplies the build-time tunables of a heap region. Both
// values must match between the writer that initialized a region and
// any later reader adopting it.
type Option interface {
	// Granularity is the minimum allocation unit in bytes: request
	// sizes round up to it, and no free block smaller than it is
	// ever created. Power of two, at most 8.
	Granularity() int

	// Sentinel is the magic value stamped into every header,
	// checked before Free writes anything.
	Sentinel() uint32
}

const (
	DefaultGranularity = 8
	DefaultSentinel    = 0xDEADBEEF
)

type testOption struct {
	granularity int
	sentinel    uint32
}

func (o testOption) Granularity() int {
	if o.granularity == 0 {
		return DefaultGranularity
	}
	return o.granularity
}

func (o testOption) Sentinel() uint32 {
	if o.sentinel == 0 {
		return DefaultSentinel
	}
	return o.sentinel
}

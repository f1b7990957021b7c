package fixheap

import "errors"

var (
	ErrRegionTooSmall   = errors.New("region too small")
	ErrRegionTooLarge   = errors.New("region too large")
	ErrGranularity      = errors.New("invalid granularity")
	ErrUnknownMagicCode = errors.New("unknown magic code")
	ErrCorruptChain     = errors.New("corrupt block chain")
	ErrClosed           = errors.New("closed")
	ErrUnsupported      = errors.New("unsupported")
)

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderCodec(t *testing.T) {
	buf := make([]byte, HeaderSize)
	h := header{
		Magic: DefaultSentinel,
		Size:  2048 - HeaderSize,
		Flags: flagFree,
		Next:  nilOff,
		Prev:  128,
	}

	encodeHeader(buf, h)
	require.Equal(t, h, decodeHeader(buf))
	require.True(t, h.free())

	h.Flags &^= flagFree
	encodeHeader(buf, h)
	require.False(t, decodeHeader(buf).free())

	// The reserved tail bytes are always cleared on encode.
	buf[20], buf[23] = 0xff, 0xff
	encodeHeader(buf, h)
	require.Equal(t, []byte{0, 0, 0, 0}, buf[20:24])
}

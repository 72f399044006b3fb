package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerdictRoundTrip(t *testing.T) {
	for v := InQueue; v <= InternalError; v++ {
		require.Equal(t, v, DecodeVerdict(EncodeVerdict(v)))
	}
}

func TestDecodeVerdictOutOfRange(t *testing.T) {
	cases := []int{0, -1, 11, 9999}
	for _, i := range cases {
		require.Equal(t, InternalError, DecodeVerdict(i))
	}
}

func TestVerdictTerminal(t *testing.T) {
	require.False(t, InQueue.Terminal())
	require.False(t, Compiling.Terminal())
	require.False(t, Testing.Terminal())
	for _, v := range []Verdict{Accepted, WrongAnswer, RuntimeError, TimeLimitExceeded, MemoryLimitExceeded, CompilationError, InternalError} {
		require.True(t, v.Terminal())
	}
}

func TestVerdictWireEncoding(t *testing.T) {
	// The encoding is a stable wire/storage contract (§6); these exact
	// integers must never shift.
	require.Equal(t, 1, EncodeVerdict(InQueue))
	require.Equal(t, 2, EncodeVerdict(Compiling))
	require.Equal(t, 3, EncodeVerdict(Testing))
	require.Equal(t, 4, EncodeVerdict(Accepted))
	require.Equal(t, 5, EncodeVerdict(WrongAnswer))
	require.Equal(t, 6, EncodeVerdict(RuntimeError))
	require.Equal(t, 7, EncodeVerdict(TimeLimitExceeded))
	require.Equal(t, 8, EncodeVerdict(MemoryLimitExceeded))
	require.Equal(t, 9, EncodeVerdict(CompilationError))
	require.Equal(t, 10, EncodeVerdict(InternalError))
}

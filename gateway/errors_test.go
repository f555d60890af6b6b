package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodesAreUnique(t *testing.T) {
	seen := map[uint32]Kind{}
	for kind, code := range codes {
		require.GreaterOrEqual(t, code, uint32(6000))
		prev, dup := seen[code]
		require.False(t, dup, "%s and %s share code %d", kind, prev, code)
		seen[code] = kind

		back, ok := KindForCode(code)
		require.True(t, ok)
		require.Equal(t, kind, back)
	}
	_, ok := KindForCode(1)
	require.False(t, ok)
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", wrapError(KindExternalCallFailed, "call failed", cause))

	require.True(t, IsKind(err, KindExternalCallFailed))
	require.False(t, IsKind(err, KindNotAuthorized))
	require.Equal(t, KindExternalCallFailed, KindOf(err))
	require.Equal(t, uint32(6004), CodeOf(err))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "boom")

	plain := errors.New("plain")
	require.Equal(t, Kind(""), KindOf(plain))
	require.Zero(t, CodeOf(plain))
	require.Nil(t, wrapError(KindInternal, "x", nil).(*Error).Cause)
}

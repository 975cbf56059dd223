package srcerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tapelang/bfjit/srcerr"
)

func TestErrorStringIncludesPositionAndKind(t *testing.T) {
	err := srcerr.New(srcerr.Position{Line: 3, Column: 7}, srcerr.KindUnmatchedClose, "']' has no matching '['")
	require.Equal(t, "3:7: unmatched-closing-bracket: ']' has no matching '['", err.Error())
}

func TestUnpositionedErrorOmitsLocation(t *testing.T) {
	err := srcerr.NewUnpositioned(srcerr.KindJITMemory, "mapping region for executable code", nil)
	require.Equal(t, "jit-memory-error: mapping region for executable code", err.Error())
}

func TestWrapIncludesUnderlyingError(t *testing.T) {
	underlying := errors.New("disk on fire")
	err := srcerr.Wrap(srcerr.Position{Line: 1, Column: 1}, srcerr.KindIO, "read next byte from source", underlying)

	require.Contains(t, err.Error(), "disk on fire")
	require.ErrorIs(t, err, underlying)
}

func TestUnwrapReturnsWrappedError(t *testing.T) {
	underlying := errors.New("boom")
	err := srcerr.Wrap(srcerr.Position{}, srcerr.KindIO, "msg", underlying)
	require.Equal(t, underlying, err.Unwrap())
}

func TestKindStringValues(t *testing.T) {
	cases := map[srcerr.Kind]string{
		srcerr.KindIO:             "io-error",
		srcerr.KindUnmatchedClose: "unmatched-closing-bracket",
		srcerr.KindUnmatchedOpen:  "unmatched-opening-bracket",
		srcerr.KindUnsupportedOp:  "unsupported-operation",
		srcerr.KindJITMemory:      "jit-memory-error",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
}

func TestPositionString(t *testing.T) {
	require.Equal(t, "4:2", srcerr.Position{Line: 4, Column: 2}.String())
}

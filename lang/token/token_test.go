package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	for k := ILLEGAL; k <= DOLLAR; k++ {
		require.NotEqual(t, "unknown", k.String(), "kind %d should have a name", int(k))
	}
	require.Equal(t, "unknown", Kind(9999).String())
}

func TestKeywords(t *testing.T) {
	for word, kind := range Keywords {
		require.Equal(t, kind, Keywords[word])
	}
	require.Len(t, Keywords, 10)
}

func TestMakePos(t *testing.T) {
	p := MakePos(3, 7)
	line, col := p.LineCol()
	require.Equal(t, 3, line)
	require.Equal(t, 7, col)
	require.False(t, p.Unknown())
	require.True(t, Pos(0).Unknown())
}

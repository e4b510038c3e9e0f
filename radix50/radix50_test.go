package radix50

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt11img/rt11err"
)

// TestEncodeDecodeWordRoundTrip covers testable property 6: decoding the
// encoding of any <=3-character, representable, uppercase string returns
// that string.
func TestEncodeDecodeWordRoundTrip(t *testing.T) {
	cases := []string{"ABC", "A", "", "RT1", "X.$", "123"}
	for _, s := range cases {
		w, err := EncodeWord(s)
		require.NoError(t, err)

		got, err := DecodeWord(w)
		require.NoError(t, err)

		padded := (s + "   ")[:3]
		assert.Equal(t, padded, got)
	}
}

func TestEncodeDecodeMultiWord(t *testing.T) {
	words, err := Encode("HELLO")
	require.NoError(t, err)
	require.Len(t, words, 2)

	got, err := Decode(words)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", got)
}

func TestEncodeWordRejectsOverlong(t *testing.T) {
	_, err := EncodeWord("ABCD")
	require.Error(t, err)
	kind, ok := rt11err.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, rt11err.NameInvalid, kind)
}

func TestEncodeWordRejectsUnrepresentableCharacter(t *testing.T) {
	_, err := EncodeWord("a!b")
	require.Error(t, err)
	kind, ok := rt11err.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, rt11err.NameInvalid, kind)
}

func TestDecodeWordRejectsOutOfRangeValue(t *testing.T) {
	_, err := DecodeWord(0xFFFF)
	require.Error(t, err)
	kind, ok := rt11err.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, rt11err.Corruption, kind)
}

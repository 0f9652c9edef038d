package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Compressible(t *testing.T) {
	data := bytes.Repeat([]byte(`{"engine":"faiss","space_type":"l2"}`), 200)

	for _, typ := range []Type{LZ4, ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			framed, err := Encode(data, typ)
			require.NoError(t, err)
			assert.Less(t, len(framed), len(data)/2)

			out, err := Decode(framed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestEncode_StoresIncompressibleRaw(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 17 % 256)
	}

	framed, err := Encode(data, LZ4)
	require.NoError(t, err)

	out, err := Decode(framed)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestEncode_None(t *testing.T) {
	data := []byte("model")
	framed, err := Encode(data, None)
	require.NoError(t, err)
	assert.Len(t, framed, headerSize+len(data))

	out, err := Decode(framed)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	_, err = Encode(data, Type(9))
	assert.Error(t, err)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCorrupt)

	framed, err := Encode(bytes.Repeat([]byte("a"), 512), ZSTD)
	require.NoError(t, err)
	_, err = Decode(framed[:len(framed)-1])
	assert.ErrorIs(t, err, ErrCorrupt)

	framed[0] = 7
	_, err = Decode(framed)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{None, LZ4, ZSTD} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseType("snappy")
	assert.Error(t, err)
}

package compress_test

import (
	"testing"

	"github.com/hupe1980/modsum/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, name string) {
	t.Helper()

	c, err := compress.ByName(name)
	require.NoError(t, err)
	assert.Equal(t, name, c.Name())

	data := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly, repeatedly")
	compressed, err := c.Compress(data)
	require.NoError(t, err)

	got, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestNoneCodecRoundTrip(t *testing.T) {
	roundTrip(t, "none")
}

func TestNoneCodecIsDefaultForEmptyName(t *testing.T) {
	c, err := compress.ByName("")
	require.NoError(t, err)
	assert.Equal(t, "none", c.Name())
}

func TestZstdCodecRoundTrip(t *testing.T) {
	roundTrip(t, "zstd")
}

func TestLZ4CodecRoundTrip(t *testing.T) {
	roundTrip(t, "lz4")
}

func TestByNameUnknownCodec(t *testing.T) {
	_, err := compress.ByName("bogus")
	assert.Error(t, err)
}

func TestNamesIncludesRegisteredCodecs(t *testing.T) {
	names := compress.Names()
	assert.Contains(t, names, "none")
	assert.Contains(t, names, "zstd")
	assert.Contains(t, names, "lz4")
}

package guid_test

import (
	"testing"

	"github.com/hupe1980/modsum/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfIsDeterministic(t *testing.T) {
	a := guid.Of("$s4main3fooyyF")
	b := guid.Of("$s4main3fooyyF")
	require.Equal(t, a, b)
}

func TestOfDistinguishesNames(t *testing.T) {
	a := guid.Of("$s4main3fooyyF")
	b := guid.Of("$s4main3baryyF")
	assert.NotEqual(t, a, b)
}

func TestZero(t *testing.T) {
	assert.True(t, guid.Zero.IsZero())
	assert.False(t, guid.Of("anything").IsZero())
}

func TestString(t *testing.T) {
	g := guid.GUID(0x0123456789abcdef)
	assert.Equal(t, "0123456789abcdef", g.String())
}

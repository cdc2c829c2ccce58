package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairs(t *testing.T) {
	p, err := ParsePairs([]string{"d_fast=12", "touch_pct=0.8"})
	require.NoError(t, err)
	assert.Equal(t, Params{"d_fast": "12", "touch_pct": "0.8"}, p)
}

func TestParsePairs_Malformed(t *testing.T) {
	_, err := ParsePairs([]string{"d_fast"})
	assert.Error(t, err)

	_, err = ParsePairs([]string{"=12"})
	assert.Error(t, err)
}

func TestBinder_TypedBinding(t *testing.T) {
	var n int
	var f float64
	b := NewBinder(Params{"n": "7", "f": "2.5"})
	b.Int("n", &n)
	b.Float("f", &f)

	require.NoError(t, b.Finish())
	assert.Equal(t, 7, n)
	assert.Equal(t, 2.5, f)
}

func TestBinder_UnboundKeysKeepDefaults(t *testing.T) {
	n := 42
	b := NewBinder(Params{})
	b.Int("n", &n)

	require.NoError(t, b.Finish())
	assert.Equal(t, 42, n)
}

func TestBinder_RejectsUnknownKey(t *testing.T) {
	var n int
	b := NewBinder(Params{"n": "1", "typo": "2"})
	b.Int("n", &n)

	err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo")
}

func TestBinder_RejectsBadValue(t *testing.T) {
	var n int
	b := NewBinder(Params{"n": "abc"})
	b.Int("n", &n)

	err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n")
	assert.Equal(t, 0, n)
}

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizerPlain(t *testing.T) {
	tok := NewTokenizer("one two  three")

	for _, want := range []string{"one", "two", "three"} {
		got, err := tok.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.False(t, tok.More())
}

func TestTokenizerQuoted(t *testing.T) {
	tok := NewTokenizer(`"my song.mp3"`)

	got, err := tok.Next()
	require.NoError(t, err)
	assert.Equal(t, "my song.mp3", got)
	assert.False(t, tok.More())
}

func TestTokenizerEscapes(t *testing.T) {
	tok := NewTokenizer(`"a \"quoted\" name" 'single \\ quote'`)

	got, err := tok.Next()
	require.NoError(t, err)
	assert.Equal(t, `a "quoted" name`, got)

	got, err = tok.Next()
	require.NoError(t, err)
	assert.Equal(t, `single \ quote`, got)
}

func TestTokenizerUnterminatedQuote(t *testing.T) {
	tok := NewTokenizer(`"never ends`)

	_, err := tok.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing closing")
}

func TestTokenizerTrailingBackslash(t *testing.T) {
	tok := NewTokenizer(`"oops\`)

	_, err := tok.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escape")
}

func TestTokenizerExhausted(t *testing.T) {
	tok := NewTokenizer("")

	_, err := tok.Next()
	assert.Equal(t, errMissingArg, err)
}

func TestNextInt(t *testing.T) {
	tok := NewTokenizer(`7 "50" -1 junk`)

	n, err := tok.NextInt()
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	// quoting an integer is fine
	n, err = tok.NextInt()
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	_, err = tok.NextInt()
	assert.Error(t, err, "negative numbers are rejected")

	_, err = tok.NextInt()
	assert.Error(t, err)
}

func TestNextBool(t *testing.T) {
	tok := NewTokenizer("0 1 2")

	b, err := tok.NextBool()
	require.NoError(t, err)
	assert.False(t, b)

	b, err = tok.NextBool()
	require.NoError(t, err)
	assert.True(t, b)

	_, err = tok.NextBool()
	assert.Error(t, err)
}

func TestNextRange(t *testing.T) {
	tok := NewTokenizer("5 2:8 9:3")

	rng, err := tok.NextRange()
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 5, End: 5}, rng)

	rng, err = tok.NextRange()
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 2, End: 8}, rng)
	assert.Equal(t, 7, rng.Len())
	assert.True(t, rng.Contains(8))
	assert.False(t, rng.Contains(9))

	_, err = tok.NextRange()
	assert.Error(t, err, "decreasing ranges are rejected")
}

func TestNextDuration(t *testing.T) {
	tok := NewTokenizer("90 12.5")

	d, err := tok.NextDuration()
	require.NoError(t, err)
	assert.Equal(t, 90.0, d.Seconds())

	d, err = tok.NextDuration()
	require.NoError(t, err)
	assert.Equal(t, 12.5, d.Seconds())
}

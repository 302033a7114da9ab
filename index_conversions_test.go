package qpack

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderStreamRelativeIndexConversion(t *testing.T) {
	require.Equal(t, uint64(0), absoluteIndexToEncoderStreamRelative(0, 1))
	require.Equal(t, uint64(4), absoluteIndexToEncoderStreamRelative(5, 10))

	abs, ok := encoderStreamRelativeIndexToAbsolute(0, 10)
	require.True(t, ok)
	require.Equal(t, uint64(9), abs)
	abs, ok = encoderStreamRelativeIndexToAbsolute(9, 10)
	require.True(t, ok)
	require.Equal(t, uint64(0), abs)

	_, ok = encoderStreamRelativeIndexToAbsolute(0, 0)
	require.False(t, ok)
	_, ok = encoderStreamRelativeIndexToAbsolute(10, 10)
	require.False(t, ok)
}

func TestRequestStreamRelativeIndexConversion(t *testing.T) {
	require.Equal(t, uint64(0), absoluteIndexToRequestStreamRelative(0, 1))
	require.Equal(t, uint64(2), absoluteIndexToRequestStreamRelative(2, 5))

	abs, ok := requestStreamRelativeIndexToAbsolute(4, 5)
	require.True(t, ok)
	require.Equal(t, uint64(0), abs)
	abs, ok = requestStreamRelativeIndexToAbsolute(0, 5)
	require.True(t, ok)
	require.Equal(t, uint64(4), abs)

	_, ok = requestStreamRelativeIndexToAbsolute(5, 5)
	require.False(t, ok)
	_, ok = requestStreamRelativeIndexToAbsolute(0, 0)
	require.False(t, ok)
}

func TestPostBaseIndexConversion(t *testing.T) {
	abs, ok := postBaseIndexToAbsolute(0, 5)
	require.True(t, ok)
	require.Equal(t, uint64(5), abs)
	abs, ok = postBaseIndexToAbsolute(math.MaxUint64-6, 5)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64-1), abs)

	_, ok = postBaseIndexToAbsolute(math.MaxUint64-5, 5)
	require.False(t, ok)
	_, ok = postBaseIndexToAbsolute(math.MaxUint64, 0)
	require.False(t, ok)
}

func TestRequiredInsertCountRoundTrip(t *testing.T) {
	testcases := []struct {
		requiredInsertCount uint64
		maxEntries          uint64
		totalInserts        uint64
	}{
		{0, 0, 0},
		{0, 100, 0},
		{0, 100, 500},
		{15, 100, 25},
		{20, 100, 10},
		{100, 100, 50},
		{200, 100, 250},
		{12345, 100, 12340},
		// Decoding depends on totalInserts to undo the wrapping, even
		// for values the encoder encodes identically.
		{401, 100, 500},
		{600, 100, 500},
	}

	for _, tc := range testcases {
		encoded := encodeRequiredInsertCount(tc.requiredInsertCount, tc.maxEntries)
		decoded, ok := decodeRequiredInsertCount(encoded, tc.maxEntries, tc.totalInserts)
		require.True(t, ok)
		require.Equal(t, tc.requiredInsertCount, decoded)
	}
}

func TestEncodeRequiredInsertCountWraps(t *testing.T) {
	// 401 and 601 are congruent modulo 2 * maxEntries.
	require.Equal(t, encodeRequiredInsertCount(401, 100), encodeRequiredInsertCount(601, 100))
	require.NotEqual(t, encodeRequiredInsertCount(401, 100), encodeRequiredInsertCount(402, 100))
	require.Equal(t, uint64(0), encodeRequiredInsertCount(0, 100))
}

func TestDecodeRequiredInsertCountErrors(t *testing.T) {
	testcases := []struct {
		name         string
		encoded      uint64
		maxEntries   uint64
		totalInserts uint64
	}{
		{"non-zero encoding without a dynamic table", 1, 0, 0},
		{"encoded value outside the wrapping range", 201, 100, 0},
		{"decodes to zero", 1, 10, 2},
		{"would require a negative wrap", 20, 10, 2},
		{"insert count close to overflowing", 1, 100, math.MaxUint64 - 50},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := decodeRequiredInsertCount(tc.encoded, tc.maxEntries, tc.totalInserts)
			require.False(t, ok)
		})
	}
}

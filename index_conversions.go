package qpack

import "math"

// Converters between the index spaces of RFC 9204, Section 3.2.5:
// absolute indices (zero at the first entry ever inserted), encoder
// stream relative indices (zero at the most recently inserted entry),
// and request stream relative and post-base indices (counted down and
// up from the base).

func absoluteIndexToEncoderStreamRelative(absoluteIndex, insertedCount uint64) uint64 {
	return insertedCount - absoluteIndex - 1
}

func encoderStreamRelativeIndexToAbsolute(relativeIndex, insertedCount uint64) (uint64, bool) {
	if relativeIndex >= insertedCount {
		return 0, false
	}
	return insertedCount - relativeIndex - 1, true
}

func absoluteIndexToRequestStreamRelative(absoluteIndex, base uint64) uint64 {
	return base - absoluteIndex - 1
}

func requestStreamRelativeIndexToAbsolute(relativeIndex, base uint64) (uint64, bool) {
	if relativeIndex >= base {
		return 0, false
	}
	return base - relativeIndex - 1, true
}

func postBaseIndexToAbsolute(postBaseIndex, base uint64) (uint64, bool) {
	if postBaseIndex >= math.MaxUint64-base {
		return 0, false
	}
	return base + postBaseIndex, true
}

// encodeRequiredInsertCount returns the wire encoding of the Required
// Insert Count (RFC 9204, Section 4.5.1.1).
func encodeRequiredInsertCount(requiredInsertCount, maxEntries uint64) uint64 {
	if requiredInsertCount == 0 {
		return 0
	}
	return requiredInsertCount%(2*maxEntries) + 1
}

// decodeRequiredInsertCount reconstructs the Required Insert Count from
// its wire encoding. totalInserts is the total number of entries added
// to the dynamic table so far. It reports failure for encodings that
// cannot be produced by a correctly operating encoder.
func decodeRequiredInsertCount(encoded, maxEntries, totalInserts uint64) (uint64, bool) {
	if encoded == 0 {
		return 0, true
	}
	fullRange := 2 * maxEntries
	if encoded > fullRange {
		return 0, false
	}
	if totalInserts > math.MaxUint64-maxEntries {
		return 0, false
	}
	maxValue := totalInserts + maxEntries
	maxWrapped := maxValue / fullRange * fullRange
	requiredInsertCount := maxWrapped + encoded - 1
	if requiredInsertCount > maxValue {
		// The encoder's value wrapped around one fewer time.
		if requiredInsertCount <= fullRange {
			return 0, false
		}
		requiredInsertCount -= fullRange
	}
	// A Required Insert Count of zero is encoded as zero, never like this.
	if requiredInsertCount == 0 {
		return 0, false
	}
	return requiredInsertCount, true
}

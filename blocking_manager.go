package qpack

import "math"

// An indexSet holds the absolute indices of the dynamic table entries
// referenced by one header block. Entries referenced more than once
// appear more than once.
type indexSet []uint64

// requiredInsertCount returns the Required Insert Count of a header
// block: one more than the largest referenced index, or zero if the
// block references no dynamic table entries.
func requiredInsertCount(indices indexSet) uint64 {
	var count uint64
	for _, index := range indices {
		if index+1 > count {
			count = index + 1
		}
	}
	return count
}

// referenceCounts tracks the number of unacknowledged references to
// each dynamic table entry, by absolute index.
type referenceCounts struct {
	counts   map[uint64]uint64
	smallest uint64
}

func (c *referenceCounts) increase(index uint64) {
	c.counts[index]++
	if index < c.smallest {
		c.smallest = index
	}
}

func (c *referenceCounts) decrease(index uint64) {
	count, ok := c.counts[index]
	if !ok {
		panic("qpack: reference count underflow")
	}
	if count > 1 {
		c.counts[index] = count - 1
		return
	}
	delete(c.counts, index)
	if index == c.smallest {
		c.smallest = math.MaxUint64
		for i := range c.counts {
			if i < c.smallest {
				c.smallest = i
			}
		}
	}
}

type encoderStreamReference struct {
	insertedIndex uint64
	referredIndex uint64
}

// A blockingManager does the encoder side bookkeeping needed to respect
// the peer's blocked stream budget and to keep entries that are still
// referenced by in-flight header blocks from being evicted.
type blockingManager struct {
	// Unacknowledged header blocks per stream, oldest first.
	headerBlocks       map[uint64][]indexSet
	knownReceivedCount uint64
	refs               referenceCounts

	// References sent on the encoder stream itself (the name of an
	// Insert With Name Reference, the target of a Duplicate), keyed by
	// the absolute index of the entry they produced. They pin the
	// referred entry until the produced entry is known received.
	// Inserted indices only grow, so the slice is ordered.
	unackedEncoderStreamRefs []encoderStreamReference
}

func newBlockingManager() *blockingManager {
	return &blockingManager{
		headerBlocks: make(map[uint64][]indexSet),
		refs:         referenceCounts{counts: make(map[uint64]uint64), smallest: math.MaxUint64},
	}
}

// onHeaderBlockSent registers the dynamic table references of a header
// block sent on the given stream.
func (m *blockingManager) onHeaderBlockSent(streamID uint64, indices indexSet) {
	for _, index := range indices {
		m.refs.increase(index)
	}
	m.headerBlocks[streamID] = append(m.headerBlocks[streamID], indices)
}

// onHeaderAcknowledgement releases the oldest unacknowledged block on
// the stream and raises the known received count to that block's
// Required Insert Count. It reports failure if no block is outstanding.
func (m *blockingManager) onHeaderAcknowledgement(streamID uint64) bool {
	blocks := m.headerBlocks[streamID]
	if len(blocks) == 0 {
		return false
	}
	indices := blocks[0]
	if count := requiredInsertCount(indices); count > m.knownReceivedCount {
		m.increaseKnownReceivedCountTo(count)
	}
	for _, index := range indices {
		m.refs.decrease(index)
	}
	if len(blocks) == 1 {
		delete(m.headerBlocks, streamID)
	} else {
		m.headerBlocks[streamID] = blocks[1:]
	}
	return true
}

// onStreamCancellation releases all unacknowledged blocks on the
// stream. Cancelling a stream with no outstanding blocks is legal.
func (m *blockingManager) onStreamCancellation(streamID uint64) {
	for _, indices := range m.headerBlocks[streamID] {
		for _, index := range indices {
			m.refs.decrease(index)
		}
	}
	delete(m.headerBlocks, streamID)
}

// onInsertCountIncrement raises the known received count. It reports
// failure on overflow; validation against the number of inserted
// entries is up to the caller.
func (m *blockingManager) onInsertCountIncrement(increment uint64) bool {
	if increment > math.MaxUint64-m.knownReceivedCount {
		return false
	}
	m.increaseKnownReceivedCountTo(m.knownReceivedCount + increment)
	return true
}

// onReferenceSentOnEncoderStream records that inserting the entry at
// insertedIndex referenced the entry at referredIndex.
func (m *blockingManager) onReferenceSentOnEncoderStream(insertedIndex, referredIndex uint64) {
	m.unackedEncoderStreamRefs = append(m.unackedEncoderStreamRefs, encoderStreamReference{insertedIndex, referredIndex})
	m.refs.increase(referredIndex)
}

func (m *blockingManager) increaseKnownReceivedCountTo(count uint64) {
	m.knownReceivedCount = count
	// An encoder stream reference is consumed once the entry it
	// produced is known received.
	for len(m.unackedEncoderStreamRefs) > 0 && m.unackedEncoderStreamRefs[0].insertedIndex < m.knownReceivedCount {
		m.refs.decrease(m.unackedEncoderStreamRefs[0].referredIndex)
		m.unackedEncoderStreamRefs = m.unackedEncoderStreamRefs[1:]
	}
}

// blockingAllowedOnStream reports whether sending a header block with
// blocking references on the given stream keeps the number of blocked
// streams within maxBlockedStreams.
func (m *blockingManager) blockingAllowedOnStream(streamID, maxBlockedStreams uint64) bool {
	// Common case: the limit covers all streams with unacknowledged
	// header blocks, blocked or not, plus this one.
	if uint64(len(m.headerBlocks))+1 <= maxBlockedStreams {
		return true
	}
	if maxBlockedStreams == 0 {
		return false
	}
	var blockedStreamCount uint64
	for id, blocks := range m.headerBlocks {
		for _, indices := range blocks {
			if requiredInsertCount(indices) > m.knownReceivedCount {
				// A stream that is already blocked can take more
				// blocking references without raising the count.
				if id == streamID {
					return true
				}
				blockedStreamCount++
				if blockedStreamCount+1 > maxBlockedStreams {
					return false
				}
				break
			}
		}
	}
	return true
}

// smallestBlockingIndex returns the smallest absolute index still
// referenced by an unacknowledged header block or encoder stream
// instruction, or the maximum uint64 if there is none. The entry at
// that index and all newer entries must not be evicted.
func (m *blockingManager) smallestBlockingIndex() uint64 {
	return m.refs.smallest
}

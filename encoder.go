package qpack

import (
	"errors"
	"fmt"
	"math"
)

// A DecoderStreamErrorDelegate is notified when data arriving on the
// decoder stream cannot be processed. Such errors are fatal: the
// connection must be closed with H3_QPACK_DECODER_STREAM_ERROR.
type DecoderStreamErrorDelegate interface {
	OnDecoderStreamError(err DecoderStreamError)
}

// Entries in the oldest quarter of the dynamic table are draining: they
// are not referenced anymore so that they can be evicted soon.
const drainingFraction = 0.25

// An Encoder is the encoding half of a connection's QPACK context. It
// encodes header lists into header blocks for request streams, manages
// the dynamic table through the encoder stream, and processes the
// acknowledgements arriving on the decoder stream.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	table           *headerTable
	blockingManager *blockingManager
	sender          *encoderStreamSender
	receiver        *decoderStreamReceiver
	errorDelegate   DecoderStreamErrorDelegate

	maxBlockedStreams uint64
	errorDetected     bool
}

// NewEncoder returns an encoder writing dynamic table updates to the
// encoder stream through sender. errorDelegate is told about fatal
// decoder stream errors. The dynamic table stays unused until the
// maximum capacity learned from the peer's settings is applied with
// SetMaximumDynamicTableCapacity and SetDynamicTableCapacity.
func NewEncoder(sender StreamSender, errorDelegate DecoderStreamErrorDelegate) *Encoder {
	e := &Encoder{
		table:           newHeaderTable(),
		blockingManager: newBlockingManager(),
		sender:          &encoderStreamSender{sender: sender},
		errorDelegate:   errorDelegate,
	}
	e.receiver = newDecoderStreamReceiver(e)
	return e
}

// SetMaximumDynamicTableCapacity sets the upper bound for the dynamic
// table capacity, the peer's SETTINGS_QPACK_MAX_TABLE_CAPACITY. It can
// be set only once; repeated calls succeed only with the same value.
func (e *Encoder) SetMaximumDynamicTableCapacity(maxCapacity uint64) bool {
	return e.table.setMaximumDynamicTableCapacity(maxCapacity)
}

// SetDynamicTableCapacity sets the capacity of the dynamic table and
// announces it with a Set Dynamic Table Capacity instruction. It fails
// if capacity exceeds the maximum the peer advertised.
func (e *Encoder) SetDynamicTableCapacity(capacity uint64) bool {
	if !e.table.setDynamicTableCapacity(capacity) {
		return false
	}
	e.sender.sendSetDynamicTableCapacity(capacity)
	return true
}

// SetMaximumBlockedStreams sets the number of streams the peer is
// willing to have blocked, its SETTINGS_QPACK_BLOCKED_STREAMS. The
// limit can only grow.
func (e *Encoder) SetMaximumBlockedStreams(maxBlockedStreams uint64) bool {
	if maxBlockedStreams < e.maxBlockedStreams {
		return false
	}
	e.maxBlockedStreams = maxBlockedStreams
	return true
}

// EncodeHeaderList encodes a header list into a header block for the
// given request stream. Instructions growing the dynamic table are
// buffered on the encoder stream as a side effect; they precede the
// block as long as the encoder stream is flushed before the block is
// handed to the transport.
func (e *Encoder) EncodeHeaderList(streamID uint64, headers []HeaderField) []byte {
	var referredIndices indexSet
	representations := e.firstPassEncode(streamID, headers, &referredIndices)
	count := requiredInsertCount(referredIndices)
	if len(referredIndices) > 0 {
		e.blockingManager.onHeaderBlockSent(streamID, referredIndices)
	}
	return e.secondPassEncode(representations, count)
}

// OnDecoderStreamData processes data arriving on the decoder stream.
// Errors are reported to the error delegate, once; all data after an
// error is discarded.
func (e *Encoder) OnDecoderStreamData(data []byte) {
	if e.errorDetected {
		return
	}
	if err := e.receiver.Decode(data); err != nil {
		e.onDecoderStreamError(err)
	}
}

// FlushEncoderStream writes all pending instructions to the encoder
// stream.
func (e *Encoder) FlushEncoderStream() {
	e.sender.flush()
}

// firstPassEncode picks a representation for every field and issues the
// needed encoder stream instructions. Dynamic table references are
// returned with absolute indices; the second pass makes them relative.
func (e *Encoder) firstPassEncode(streamID uint64, headers []HeaderField, referredIndices *indexSet) []instructionWithValues {
	representations := make([]instructionWithValues, 0, len(headers))

	canWrite := e.sender.canWrite()
	knownReceivedCount := e.blockingManager.knownReceivedCount
	drainingIndex := e.table.drainingIndex(drainingFraction)
	blockingAllowed := e.blockingManager.blockingAllowedOnStream(streamID, e.maxBlockedStreams)

	// Smallest absolute index of all dynamic table entries referenced by
	// this header block so far. Insertions must not evict it.
	smallestNonEvictable := uint64(math.MaxUint64)

	for _, f := range headers {
		name, value := f.Name, f.Value
		match, isStatic, index := e.table.findHeaderField(name, value)
		switch match {
		case matchNameAndValue:
			if isStatic {
				representations = append(representations, indexedFieldRepresentation(true, index, referredIndices))
				break
			}
			if index >= drainingIndex {
				if blockingAllowed || index < knownReceivedCount {
					representations = append(representations, indexedFieldRepresentation(false, index, referredIndices))
					smallestNonEvictable = min(smallestNonEvictable, index)
					break
				}
			} else if blockingAllowed && canWrite &&
				entrySize(name, value) <= e.table.maxInsertSizeWithoutEvicting(min(smallestNonEvictable, e.blockingManager.smallestBlockingIndex())) {
				// The entry is draining. Duplicate it and refer to the
				// copy, so the original can be evicted.
				e.sender.sendDuplicate(absoluteIndexToEncoderStreamRelative(index, e.table.insertedCount()))
				newIndex := e.table.insertEntry(name, value)
				e.blockingManager.onReferenceSentOnEncoderStream(newIndex, index)
				representations = append(representations, indexedFieldRepresentation(false, newIndex, referredIndices))
				smallestNonEvictable = min(smallestNonEvictable, newIndex)
				break
			}
			representations = append(representations, literalField(name, value))

		case matchName:
			if isStatic {
				if blockingAllowed && canWrite &&
					entrySize(name, value) <= e.table.maxInsertSizeWithoutEvicting(min(smallestNonEvictable, e.blockingManager.smallestBlockingIndex())) {
					// Insert an entry with the static name and refer to it.
					e.sender.sendInsertWithNameReference(true, index, value)
					newIndex := e.table.insertEntry(name, value)
					representations = append(representations, indexedFieldRepresentation(false, newIndex, referredIndices))
					smallestNonEvictable = min(smallestNonEvictable, newIndex)
					break
				}
				representations = append(representations, literalFieldNameReference(true, index, value))
				break
			}
			if !blockingAllowed && index >= knownReceivedCount {
				// Any reference to the name entry would block the stream.
				representations = append(representations, literalField(name, value))
				break
			}
			if blockingAllowed && canWrite &&
				entrySize(name, value) <= e.table.maxInsertSizeWithoutEvicting(min(smallestNonEvictable, index, e.blockingManager.smallestBlockingIndex())) {
				// Insert an entry with the dynamic name and refer to it.
				e.sender.sendInsertWithNameReference(false, absoluteIndexToEncoderStreamRelative(index, e.table.insertedCount()), value)
				newIndex := e.table.insertEntry(name, value)
				e.blockingManager.onReferenceSentOnEncoderStream(newIndex, index)
				representations = append(representations, indexedFieldRepresentation(false, newIndex, referredIndices))
				smallestNonEvictable = min(smallestNonEvictable, newIndex)
				break
			}
			if index >= drainingIndex {
				representations = append(representations, literalNameReferenceRepresentation(false, index, value, referredIndices))
				smallestNonEvictable = min(smallestNonEvictable, index)
				break
			}
			representations = append(representations, literalField(name, value))

		case matchNone:
			if blockingAllowed && canWrite &&
				entrySize(name, value) <= e.table.maxInsertSizeWithoutEvicting(min(smallestNonEvictable, e.blockingManager.smallestBlockingIndex())) {
				// Insert the entry and refer to it.
				e.sender.sendInsertWithoutNameReference(name, value)
				newIndex := e.table.insertEntry(name, value)
				representations = append(representations, indexedFieldRepresentation(false, newIndex, referredIndices))
				smallestNonEvictable = min(smallestNonEvictable, newIndex)
				break
			}
			representations = append(representations, literalField(name, value))
		}
	}

	if canWrite {
		e.sender.flush()
	}
	return representations
}

// secondPassEncode serializes the header block. The base equals the
// Required Insert Count, so all dynamic references are relative and the
// sign bit and Delta Base are zero.
func (e *Encoder) secondPassEncode(representations []instructionWithValues, requiredInsertCount uint64) []byte {
	buf := appendInstruction(nil, headerBlockPrefix(encodeRequiredInsertCount(requiredInsertCount, e.table.maxEntries), false, 0))
	base := requiredInsertCount
	for _, rep := range representations {
		if (rep.instr == indexedFieldInstruction || rep.instr == literalFieldNameReferenceInstruction) && !rep.sBit {
			rep.varint = absoluteIndexToRequestStreamRelative(rep.varint, base)
		}
		buf = appendInstruction(buf, rep)
	}
	return buf
}

func (e *Encoder) onDecoderStreamError(err error) {
	e.errorDetected = true
	e.errorDelegate.OnDecoderStreamError(DecoderStreamError{Err: err})
}

func (e *Encoder) onInsertCountIncrement(increment uint64) bool {
	if increment == 0 {
		e.onDecoderStreamError(errors.New("invalid increment value 0"))
		return false
	}
	if !e.blockingManager.onInsertCountIncrement(increment) {
		e.onDecoderStreamError(errors.New("insert count increment overflow"))
		return false
	}
	if e.blockingManager.knownReceivedCount > e.table.insertedCount() {
		e.onDecoderStreamError(fmt.Errorf("known received count %d exceeds inserted entry count %d",
			e.blockingManager.knownReceivedCount, e.table.insertedCount()))
		return false
	}
	return true
}

func (e *Encoder) onHeaderAcknowledgement(streamID uint64) bool {
	if !e.blockingManager.onHeaderAcknowledgement(streamID) {
		e.onDecoderStreamError(fmt.Errorf("header acknowledgement for stream %d with no outstanding header blocks", streamID))
		return false
	}
	return true
}

func (e *Encoder) onStreamCancellation(streamID uint64) bool {
	e.blockingManager.onStreamCancellation(streamID)
	return true
}

// indexedFieldRepresentation refers to a table entry, recording dynamic
// references for the blocking manager.
func indexedFieldRepresentation(isStatic bool, index uint64, referredIndices *indexSet) instructionWithValues {
	if !isStatic {
		*referredIndices = append(*referredIndices, index)
	}
	return indexedField(isStatic, index)
}

func literalNameReferenceRepresentation(isStatic bool, nameIndex uint64, value string, referredIndices *indexSet) instructionWithValues {
	if !isStatic {
		*referredIndices = append(*referredIndices, nameIndex)
	}
	return literalFieldNameReference(isStatic, nameIndex, value)
}

package qpack

import (
	"errors"
	"math"
)

// A HeadersHandler receives the results of decoding a single header
// block. Unless decoding is cancelled, exactly one of
// OnDecodingCompleted and OnDecodingErrorDetected is called, after
// which no further methods are invoked.
type HeadersHandler interface {
	// OnHeaderDecoded is called for every field line, in order.
	OnHeaderDecoded(f HeaderField)
	// OnDecodingCompleted is called once the entire block has been
	// decoded.
	OnDecodingCompleted()
	// OnDecodingErrorDetected is called when the block cannot be
	// decoded. The error renders this header block unusable but does
	// not affect other streams.
	OnDecodingErrorDetected(err error)
}

// The completion visitor is told when a block finishes decoding, so the
// connection can acknowledge it on the decoder stream.
type decodingCompletedVisitor interface {
	onBlockDecodingCompleted(streamID, requiredInsertCount uint64)
}

// A ProgressiveDecoder decodes a single header block as its bytes
// arrive on a request stream. If the block references dynamic table
// entries the encoder stream has not delivered yet, input is buffered
// until the table catches up.
type ProgressiveDecoder struct {
	streamID uint64
	table    *headerTable
	visitor  decodingCompletedVisitor
	handler  HeadersHandler

	prefixDecoder *instructionDecoder
	fieldDecoder  *instructionDecoder

	requiredInsertCount uint64
	base                uint64

	prefixDecoded bool
	blocked       bool
	buffer        []byte
	doneReading   bool
	errorDetected bool
	completed     bool
	cancelled     bool
}

func newProgressiveDecoder(streamID uint64, table *headerTable, visitor decodingCompletedVisitor, handler HeadersHandler) *ProgressiveDecoder {
	d := &ProgressiveDecoder{
		streamID: streamID,
		table:    table,
		visitor:  visitor,
		handler:  handler,
	}
	d.prefixDecoder = newInstructionDecoder(headerDataPrefixInstructions, d)
	d.fieldDecoder = newInstructionDecoder(requestStreamInstructions, d)
	return d
}

// Decode feeds the next bytes of the header block to the decoder.
// Decoded fields are delivered to the handler from within this call.
// Data arriving after an error, completion or cancellation is ignored.
func (d *ProgressiveDecoder) Decode(data []byte) {
	if d.done() || d.doneReading || len(data) == 0 {
		return
	}
	if d.blocked {
		d.buffer = append(d.buffer, data...)
		return
	}
	d.decodeData(data)
}

// EndHeaderBlock signals that the last byte of the header block has
// been passed to Decode. The handler is notified of completion, or of
// an error if the block ended mid-instruction. If the stream is
// blocked, the notification waits until the block can be decoded.
func (d *ProgressiveDecoder) EndHeaderBlock() {
	if d.done() || d.doneReading {
		return
	}
	d.doneReading = true
	if !d.blocked {
		d.finishDecoding()
	}
}

// Cancel abandons decoding, for example because the stream was reset.
// The handler is not called again.
func (d *ProgressiveDecoder) Cancel() {
	if d.done() {
		return
	}
	if d.blocked {
		d.table.unregisterObserver(d.requiredInsertCount, d)
		d.blocked = false
		d.buffer = nil
	}
	d.cancelled = true
}

func (d *ProgressiveDecoder) done() bool {
	return d.errorDetected || d.completed || d.cancelled
}

func (d *ProgressiveDecoder) decodeData(data []byte) {
	if !d.prefixDecoded {
		n, err := d.prefixDecoder.Decode(data)
		if err != nil {
			d.onError(decodingError{err})
			return
		}
		if d.errorDetected {
			return
		}
		data = data[n:]
		if !d.prefixDecoded {
			// The prefix needs more bytes; everything was consumed.
			return
		}
		if d.blocked {
			d.buffer = append(d.buffer, data...)
			return
		}
	}
	if len(data) == 0 {
		return
	}
	if _, err := d.fieldDecoder.Decode(data); err != nil {
		d.onError(decodingError{err})
	}
}

// onInsertCountReachedThreshold unblocks the stream: the dynamic table
// now holds every entry the header block requires.
func (d *ProgressiveDecoder) onInsertCountReachedThreshold() {
	d.blocked = false
	buffered := d.buffer
	d.buffer = nil
	if len(buffered) > 0 {
		d.decodeData(buffered)
	}
	if d.doneReading && !d.errorDetected {
		d.finishDecoding()
	}
}

func (d *ProgressiveDecoder) finishDecoding() {
	if !d.prefixDecoded {
		d.onError(decodingError{errIncompleteHeaderDataPrefix})
		return
	}
	if !d.fieldDecoder.atInstructionBoundary() {
		d.onError(decodingError{errIncompleteHeaderBlock})
		return
	}
	d.completed = true
	if d.visitor != nil {
		d.visitor.onBlockDecodingCompleted(d.streamID, d.requiredInsertCount)
	}
	d.handler.OnDecodingCompleted()
}

func (d *ProgressiveDecoder) onError(err error) {
	d.errorDetected = true
	d.handler.OnDecodingErrorDetected(err)
}

func (d *ProgressiveDecoder) onInstructionDecoded(in *instruction) bool {
	switch in {
	case headerDataPrefixInstruction:
		return d.onPrefixDecoded()
	case indexedFieldInstruction:
		return d.onIndexedField(d.fieldDecoder.sBit, d.fieldDecoder.varint)
	case indexedFieldPostBaseInstruction:
		return d.onIndexedFieldPostBase(d.fieldDecoder.varint)
	case literalFieldNameReferenceInstruction:
		return d.onLiteralFieldNameReference(d.fieldDecoder.sBit, d.fieldDecoder.varint, d.fieldDecoder.value)
	case literalFieldPostBaseInstruction:
		return d.onLiteralFieldPostBase(d.fieldDecoder.varint, d.fieldDecoder.value)
	case literalFieldInstruction:
		d.handler.OnHeaderDecoded(HeaderField{Name: d.fieldDecoder.name, Value: d.fieldDecoder.value})
		return true
	default:
		panic("qpack: unknown request stream instruction")
	}
}

func (d *ProgressiveDecoder) onPrefixDecoded() bool {
	requiredInsertCount, ok := decodeRequiredInsertCount(d.prefixDecoder.varint, d.table.maxEntries, d.table.insertedCount())
	if !ok {
		d.onError(decodingError{errors.New("error decoding required insert count")})
		return false
	}
	d.requiredInsertCount = requiredInsertCount
	base, ok := d.deltaBaseToBase(d.prefixDecoder.sBit, d.prefixDecoder.varint2)
	if !ok {
		d.onError(decodingError{errors.New("error calculating base")})
		return false
	}
	d.base = base
	d.prefixDecoded = true
	if d.requiredInsertCount > d.table.insertedCount() {
		d.blocked = true
		d.table.registerObserver(d.requiredInsertCount, d)
	}
	// Halt the prefix decoder. The remaining bytes are field lines.
	return false
}

// deltaBaseToBase computes the Base from the sign bit and Delta Base of
// the header block prefix (RFC 9204, Section 4.5.1.2).
func (d *ProgressiveDecoder) deltaBaseToBase(sign bool, deltaBase uint64) (uint64, bool) {
	if sign {
		if deltaBase == math.MaxUint64 || d.requiredInsertCount < deltaBase+1 {
			return 0, false
		}
		return d.requiredInsertCount - deltaBase - 1, true
	}
	if deltaBase > math.MaxUint64-d.requiredInsertCount {
		return 0, false
	}
	return d.requiredInsertCount + deltaBase, true
}

func (d *ProgressiveDecoder) onIndexedField(isStatic bool, index uint64) bool {
	if isStatic {
		f, ok := d.table.lookupEntry(true, index)
		if !ok {
			d.onError(decodingError{invalidIndexError(index)})
			return false
		}
		d.handler.OnHeaderDecoded(f)
		return true
	}
	absIndex, ok := requestStreamRelativeIndexToAbsolute(index, d.base)
	if !ok {
		d.onError(decodingError{errors.New("invalid relative index")})
		return false
	}
	return d.onDynamicIndexedField(absIndex)
}

func (d *ProgressiveDecoder) onIndexedFieldPostBase(index uint64) bool {
	absIndex, ok := postBaseIndexToAbsolute(index, d.base)
	if !ok {
		d.onError(decodingError{errors.New("invalid post-base index")})
		return false
	}
	return d.onDynamicIndexedField(absIndex)
}

func (d *ProgressiveDecoder) onDynamicIndexedField(absIndex uint64) bool {
	f, ok := d.lookupDynamicEntry(absIndex)
	if !ok {
		return false
	}
	d.handler.OnHeaderDecoded(f)
	return true
}

func (d *ProgressiveDecoder) onLiteralFieldNameReference(isStatic bool, nameIndex uint64, value string) bool {
	if isStatic {
		f, ok := d.table.lookupEntry(true, nameIndex)
		if !ok {
			d.onError(decodingError{invalidIndexError(nameIndex)})
			return false
		}
		d.handler.OnHeaderDecoded(HeaderField{Name: f.Name, Value: value})
		return true
	}
	absIndex, ok := requestStreamRelativeIndexToAbsolute(nameIndex, d.base)
	if !ok {
		d.onError(decodingError{errors.New("invalid relative index")})
		return false
	}
	return d.onDynamicNameReference(absIndex, value)
}

func (d *ProgressiveDecoder) onLiteralFieldPostBase(nameIndex uint64, value string) bool {
	absIndex, ok := postBaseIndexToAbsolute(nameIndex, d.base)
	if !ok {
		d.onError(decodingError{errors.New("invalid post-base index")})
		return false
	}
	return d.onDynamicNameReference(absIndex, value)
}

func (d *ProgressiveDecoder) onDynamicNameReference(absIndex uint64, value string) bool {
	f, ok := d.lookupDynamicEntry(absIndex)
	if !ok {
		return false
	}
	d.handler.OnHeaderDecoded(HeaderField{Name: f.Name, Value: value})
	return true
}

// lookupDynamicEntry resolves an absolute dynamic table index, checking
// it against the block's Required Insert Count. Only entries the prefix
// declared may be referenced; this also guarantees the stream was not
// unblocked too early.
func (d *ProgressiveDecoder) lookupDynamicEntry(absIndex uint64) (HeaderField, bool) {
	if absIndex >= d.requiredInsertCount {
		d.onError(decodingError{errors.New("index larger than required insert count")})
		return HeaderField{}, false
	}
	f, ok := d.table.lookupEntry(false, absIndex)
	if !ok {
		d.onError(decodingError{errors.New("dynamic table entry already evicted")})
		return HeaderField{}, false
	}
	return f, true
}

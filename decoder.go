package qpack

import (
	"errors"
	"fmt"
)

// An EncoderStreamErrorDelegate is notified when data arriving on the
// encoder stream cannot be processed. Such errors are fatal: the
// connection must be closed with H3_QPACK_ENCODER_STREAM_ERROR.
type EncoderStreamErrorDelegate interface {
	OnEncoderStreamError(err EncoderStreamError)
}

// A Decoder is the decoding half of a connection's QPACK context. It
// mirrors the peer encoder's dynamic table by applying the instructions
// arriving on the encoder stream, decodes header blocks from request
// streams, and acknowledges both on the decoder stream.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	table         *headerTable
	receiver      *encoderStreamReceiver
	sender        *decoderStreamSender
	errorDelegate EncoderStreamErrorDelegate

	knownReceivedCount    uint64
	limitIncludesOverhead bool
	errorDetected         bool
}

// NewDecoder returns a decoder allowing the peer a dynamic table of up
// to maxTableCapacity bytes, the value advertised in
// SETTINGS_QPACK_MAX_TABLE_CAPACITY. Acknowledgements are written to
// the decoder stream through sender; errorDelegate is told about fatal
// encoder stream errors.
func NewDecoder(maxTableCapacity uint64, sender StreamSender, errorDelegate EncoderStreamErrorDelegate) *Decoder {
	d := &Decoder{
		table:                 newHeaderTable(),
		sender:                &decoderStreamSender{sender: sender},
		errorDelegate:         errorDelegate,
		limitIncludesOverhead: true,
	}
	d.table.setMaximumDynamicTableCapacity(maxTableCapacity)
	d.receiver = newEncoderStreamReceiver(d)
	return d
}

// OnEncoderStreamData processes data arriving on the encoder stream.
// Errors are reported to the error delegate, once; all data after an
// error is discarded.
func (d *Decoder) OnEncoderStreamData(data []byte) {
	if d.errorDetected {
		return
	}
	if err := d.receiver.Decode(data); err != nil {
		d.onEncoderStreamError(err)
	}
}

// DecodeHeaderBlock returns an accumulator decoding one header block
// from the given request stream, delivering the complete header list to
// visitor. Lists larger than maxHeaderListSize are dropped and reported
// as exceeding the limit; a limit of zero means no limit. Completed
// blocks are acknowledged on the decoder stream.
func (d *Decoder) DecodeHeaderBlock(streamID, maxHeaderListSize uint64, visitor Visitor) *DecodedHeadersAccumulator {
	a := newDecodedHeadersAccumulator(visitor, maxHeaderListSize, d.limitIncludesOverhead)
	a.decoder = d.CreateProgressiveDecoder(streamID, a)
	return a
}

// CreateProgressiveDecoder returns a decoder for a single header block
// on the given request stream, delivering fields one at a time.
// Completed blocks are acknowledged on the decoder stream.
func (d *Decoder) CreateProgressiveDecoder(streamID uint64, handler HeadersHandler) *ProgressiveDecoder {
	return newProgressiveDecoder(streamID, d.table, d, handler)
}

// DecodeFull decodes a complete, self-contained header block. It is a
// shortcut for blocks that do not use the dynamic table, as produced
// during 0-RTT or with a table capacity of zero; a block referencing
// entries not yet received fails instead of blocking. Nothing is
// acknowledged on the decoder stream.
func (d *Decoder) DecodeFull(data []byte) ([]HeaderField, error) {
	var h fullBlockHandler
	pd := newProgressiveDecoder(0, d.table, nil, &h)
	pd.Decode(data)
	if h.err == nil {
		pd.EndHeaderBlock()
	}
	if h.err != nil {
		return nil, h.err
	}
	if !h.done {
		pd.Cancel()
		return nil, decodingError{errors.New("header block references entries not yet received")}
	}
	return h.fields, nil
}

// SetHeaderListSizeLimitIncludesOverhead selects whether the header
// list size limit counts 32 bytes of overhead per field, as defined for
// SETTINGS_MAX_FIELD_SECTION_SIZE (the default), or raw name and value
// lengths only.
func (d *Decoder) SetHeaderListSizeLimitIncludesOverhead(includesOverhead bool) {
	d.limitIncludesOverhead = includesOverhead
}

// OnStreamReset tells the peer that the header blocks of the given
// request stream were discarded, so it can release the stream's dynamic
// table references. Decoding must be abandoned separately, by
// cancelling the stream's accumulator or progressive decoder.
func (d *Decoder) OnStreamReset(streamID uint64) {
	if d.table.maxCapacity > 0 {
		d.sender.sendStreamCancellation(streamID)
	}
}

// FlushDecoderStream writes all pending acknowledgements to the decoder
// stream.
func (d *Decoder) FlushDecoderStream() {
	d.sender.flush()
}

func (d *Decoder) onEncoderStreamError(err error) {
	d.errorDetected = true
	d.errorDelegate.OnEncoderStreamError(EncoderStreamError{Err: err})
}

func (d *Decoder) onInsertWithNameReference(isStatic bool, nameIndex uint64, value string) bool {
	if isStatic {
		f, ok := d.table.lookupEntry(true, nameIndex)
		if !ok {
			d.onEncoderStreamError(fmt.Errorf("invalid static table index %d", nameIndex))
			return false
		}
		return d.insertEntry(f.Name, value)
	}
	f, ok := d.lookupRelative(nameIndex)
	if !ok {
		return false
	}
	return d.insertEntry(f.Name, value)
}

func (d *Decoder) onInsertWithoutNameReference(name, value string) bool {
	return d.insertEntry(name, value)
}

func (d *Decoder) onDuplicate(index uint64) bool {
	f, ok := d.lookupRelative(index)
	if !ok {
		return false
	}
	return d.insertEntry(f.Name, f.Value)
}

func (d *Decoder) onSetDynamicTableCapacity(capacity uint64) bool {
	if !d.table.setDynamicTableCapacity(capacity) {
		d.onEncoderStreamError(fmt.Errorf("dynamic table capacity %d exceeds maximum %d", capacity, d.table.maxCapacity))
		return false
	}
	return true
}

func (d *Decoder) lookupRelative(relativeIndex uint64) (HeaderField, bool) {
	absIndex, ok := encoderStreamRelativeIndexToAbsolute(relativeIndex, d.table.insertedCount())
	if !ok {
		d.onEncoderStreamError(fmt.Errorf("invalid relative index %d", relativeIndex))
		return HeaderField{}, false
	}
	f, ok := d.table.lookupEntry(false, absIndex)
	if !ok {
		d.onEncoderStreamError(errors.New("dynamic table entry already evicted"))
		return HeaderField{}, false
	}
	return f, true
}

// insertEntry adds an entry to the mirrored dynamic table and resumes
// streams that were blocked waiting for it.
func (d *Decoder) insertEntry(name, value string) bool {
	if !d.table.entryFitsDynamicTableCapacity(name, value) {
		d.onEncoderStreamError(errors.New("inserted entry larger than dynamic table capacity"))
		return false
	}
	d.table.insertEntry(name, value)
	for _, obs := range d.table.readyObservers() {
		obs.onInsertCountReachedThreshold()
	}
	return true
}

// onBlockDecodingCompleted acknowledges a decoded header block and any
// inserts the acknowledgement does not already imply.
func (d *Decoder) onBlockDecodingCompleted(streamID, requiredInsertCount uint64) {
	if requiredInsertCount > 0 {
		d.sender.sendHeaderAcknowledgement(streamID)
		if d.knownReceivedCount < requiredInsertCount {
			d.knownReceivedCount = requiredInsertCount
		}
	}
	if d.knownReceivedCount < d.table.insertedCount() {
		d.sender.sendInsertCountIncrement(d.table.insertedCount() - d.knownReceivedCount)
		d.knownReceivedCount = d.table.insertedCount()
	}
}

type fullBlockHandler struct {
	fields []HeaderField
	err    error
	done   bool
}

func (h *fullBlockHandler) OnHeaderDecoded(f HeaderField)     { h.fields = append(h.fields, f) }
func (h *fullBlockHandler) OnDecodingCompleted()              { h.done = true }
func (h *fullBlockHandler) OnDecodingErrorDetected(err error) { h.err = err }

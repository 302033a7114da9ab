package qpack

// A decoderStreamReceiverDelegate is called with each instruction
// decoded from the decoder stream. Returning false halts the receiver.
type decoderStreamReceiverDelegate interface {
	onInsertCountIncrement(increment uint64) bool
	onHeaderAcknowledgement(streamID uint64) bool
	onStreamCancellation(streamID uint64) bool
}

// A decoderStreamReceiver decodes the instruction sequence arriving on
// the decoder stream. Any decoding error is fatal to the connection.
type decoderStreamReceiver struct {
	instrDecoder *instructionDecoder
	delegate     decoderStreamReceiverDelegate
}

func newDecoderStreamReceiver(delegate decoderStreamReceiverDelegate) *decoderStreamReceiver {
	r := &decoderStreamReceiver{delegate: delegate}
	r.instrDecoder = newInstructionDecoder(decoderStreamInstructions, r)
	return r
}

func (r *decoderStreamReceiver) Decode(data []byte) error {
	_, err := r.instrDecoder.Decode(data)
	return err
}

func (r *decoderStreamReceiver) onInstructionDecoded(in *instruction) bool {
	d := r.instrDecoder
	switch in {
	case insertCountIncrementInstruction:
		return r.delegate.onInsertCountIncrement(d.varint)
	case headerAcknowledgementInstruction:
		return r.delegate.onHeaderAcknowledgement(d.varint)
	case streamCancellationInstruction:
		return r.delegate.onStreamCancellation(d.varint)
	default:
		panic("qpack: unknown decoder stream instruction")
	}
}

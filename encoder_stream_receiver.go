package qpack

// An encoderStreamReceiverDelegate is called with each instruction
// decoded from the encoder stream. Returning false halts the receiver.
type encoderStreamReceiverDelegate interface {
	onInsertWithNameReference(isStatic bool, nameIndex uint64, value string) bool
	onInsertWithoutNameReference(name, value string) bool
	onDuplicate(index uint64) bool
	onSetDynamicTableCapacity(capacity uint64) bool
}

// An encoderStreamReceiver decodes the instruction sequence arriving on
// the encoder stream. Any decoding error is fatal to the connection.
type encoderStreamReceiver struct {
	instrDecoder *instructionDecoder
	delegate     encoderStreamReceiverDelegate
}

func newEncoderStreamReceiver(delegate encoderStreamReceiverDelegate) *encoderStreamReceiver {
	r := &encoderStreamReceiver{delegate: delegate}
	r.instrDecoder = newInstructionDecoder(encoderStreamInstructions, r)
	return r
}

func (r *encoderStreamReceiver) Decode(data []byte) error {
	_, err := r.instrDecoder.Decode(data)
	return err
}

func (r *encoderStreamReceiver) onInstructionDecoded(in *instruction) bool {
	d := r.instrDecoder
	switch in {
	case insertWithNameReferenceInstruction:
		return r.delegate.onInsertWithNameReference(d.sBit, d.varint, d.value)
	case insertWithoutNameReferenceInstruction:
		return r.delegate.onInsertWithoutNameReference(d.name, d.value)
	case duplicateInstruction:
		return r.delegate.onDuplicate(d.varint)
	case setDynamicTableCapacityInstruction:
		return r.delegate.onSetDynamicTableCapacity(d.varint)
	default:
		panic("qpack: unknown encoder stream instruction")
	}
}

package qpack

// A StreamSender writes data to one of the unidirectional QPACK streams.
// QPACK streams are never closed and are exempt from stream flow
// control, so writes cannot fail.
type StreamSender interface {
	// WriteStreamData writes data to the stream. The slice is reused by
	// the caller; implementations must not retain it.
	WriteStreamData(data []byte)
	// NumBytesBuffered returns the number of bytes written to the stream
	// but not yet delivered to the peer.
	NumBytesBuffered() uint64
}

// Maximum amount of data allowed to accumulate on the encoder stream
// before the encoder stops issuing instructions that would add to it.
const maxBytesBufferedByStream = 1 << 20

// An encoderStreamSender serializes instructions for the encoder stream.
// Instructions are buffered and handed to the stream on flush, so that
// the instructions for one header block go out in a single write.
type encoderStreamSender struct {
	sender StreamSender
	buf    []byte
}

func (s *encoderStreamSender) sendInsertWithNameReference(isStatic bool, nameIndex uint64, value string) {
	s.buf = appendInstruction(s.buf, insertWithNameReference(isStatic, nameIndex, value))
}

func (s *encoderStreamSender) sendInsertWithoutNameReference(name, value string) {
	s.buf = appendInstruction(s.buf, insertWithoutNameReference(name, value))
}

func (s *encoderStreamSender) sendDuplicate(index uint64) {
	s.buf = appendInstruction(s.buf, duplicate(index))
}

func (s *encoderStreamSender) sendSetDynamicTableCapacity(capacity uint64) {
	s.buf = appendInstruction(s.buf, setDynamicTableCapacity(capacity))
}

// canWrite reports whether the stream can absorb further instructions.
// It turns false when too many bytes are buffered locally or in the
// stream itself.
func (s *encoderStreamSender) canWrite() bool {
	return uint64(len(s.buf))+s.sender.NumBytesBuffered() <= maxBytesBufferedByStream
}

func (s *encoderStreamSender) bufferedByteCount() uint64 {
	return uint64(len(s.buf))
}

// flush hands all buffered instructions to the stream.
func (s *encoderStreamSender) flush() {
	if len(s.buf) == 0 {
		return
	}
	s.sender.WriteStreamData(s.buf)
	s.buf = s.buf[:0]
}

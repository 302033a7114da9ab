package qpack

// A decoderStreamSender serializes instructions for the decoder stream.
// Instructions are buffered until flushed, so that acknowledgements
// produced while processing a packet go out together.
type decoderStreamSender struct {
	sender StreamSender
	buf    []byte
}

func (s *decoderStreamSender) sendInsertCountIncrement(increment uint64) {
	s.buf = appendInstruction(s.buf, insertCountIncrement(increment))
}

func (s *decoderStreamSender) sendHeaderAcknowledgement(streamID uint64) {
	s.buf = appendInstruction(s.buf, headerAcknowledgement(streamID))
}

func (s *decoderStreamSender) sendStreamCancellation(streamID uint64) {
	s.buf = appendInstruction(s.buf, streamCancellation(streamID))
}

func (s *decoderStreamSender) flush() {
	if len(s.buf) == 0 {
		return
	}
	s.sender.WriteStreamData(s.buf)
	s.buf = s.buf[:0]
}

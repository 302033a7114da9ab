package qpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testStreamSender struct {
	data     []byte
	buffered uint64
}

func (s *testStreamSender) WriteStreamData(data []byte) { s.data = append(s.data, data...) }
func (s *testStreamSender) NumBytesBuffered() uint64    { return s.buffered }

type encoderStreamEvent struct {
	kind     string
	isStatic bool
	index    uint64
	capacity uint64
	name     string
	value    string
}

type recordingEncoderStreamDelegate struct {
	events []encoderStreamEvent
	halt   bool
}

func (d *recordingEncoderStreamDelegate) onInsertWithNameReference(isStatic bool, nameIndex uint64, value string) bool {
	d.events = append(d.events, encoderStreamEvent{kind: "insert with name reference", isStatic: isStatic, index: nameIndex, value: value})
	return !d.halt
}

func (d *recordingEncoderStreamDelegate) onInsertWithoutNameReference(name, value string) bool {
	d.events = append(d.events, encoderStreamEvent{kind: "insert without name reference", name: name, value: value})
	return !d.halt
}

func (d *recordingEncoderStreamDelegate) onDuplicate(index uint64) bool {
	d.events = append(d.events, encoderStreamEvent{kind: "duplicate", index: index})
	return !d.halt
}

func (d *recordingEncoderStreamDelegate) onSetDynamicTableCapacity(capacity uint64) bool {
	d.events = append(d.events, encoderStreamEvent{kind: "set capacity", capacity: capacity})
	return !d.halt
}

func TestEncoderStreamSenderBuffersUntilFlush(t *testing.T) {
	sender := &testStreamSender{}
	s := &encoderStreamSender{sender: sender}
	s.sendSetDynamicTableCapacity(220)
	s.sendDuplicate(2)
	require.Empty(t, sender.data)
	require.Equal(t, uint64(4), s.bufferedByteCount())

	s.flush()
	require.Equal(t, []byte{0x3f, 0xbd, 0x01, 0x02}, sender.data)
	require.Zero(t, s.bufferedByteCount())

	// Flushing an empty buffer writes nothing.
	s.flush()
	require.Equal(t, []byte{0x3f, 0xbd, 0x01, 0x02}, sender.data)
}

func TestEncoderStreamSenderBackpressure(t *testing.T) {
	sender := &testStreamSender{}
	s := &encoderStreamSender{sender: sender}
	require.True(t, s.canWrite())

	s.buf = make([]byte, maxBytesBufferedByStream)
	require.True(t, s.canWrite())
	s.buf = append(s.buf, 0)
	require.False(t, s.canWrite())

	// Bytes buffered by the stream itself count as well.
	s.buf = nil
	sender.buffered = maxBytesBufferedByStream + 1
	require.False(t, s.canWrite())
	sender.buffered = 0
	require.True(t, s.canWrite())
}

func TestEncoderStreamReceiver(t *testing.T) {
	sender := &testStreamSender{}
	s := &encoderStreamSender{sender: sender}
	s.sendSetDynamicTableCapacity(1024)
	s.sendInsertWithNameReference(true, 0, "www.example.com")
	s.sendInsertWithoutNameReference("custom-header", "custom-value")
	s.sendDuplicate(3)
	s.flush()

	delegate := &recordingEncoderStreamDelegate{}
	r := newEncoderStreamReceiver(delegate)
	require.NoError(t, r.Decode(sender.data))
	require.Equal(t, []encoderStreamEvent{
		{kind: "set capacity", capacity: 1024},
		{kind: "insert with name reference", isStatic: true, index: 0, value: "www.example.com"},
		{kind: "insert without name reference", name: "custom-header", value: "custom-value"},
		{kind: "duplicate", index: 3},
	}, delegate.events)
}

func TestEncoderStreamReceiverHalts(t *testing.T) {
	var data []byte
	data = appendInstruction(data, duplicate(1))
	data = appendInstruction(data, duplicate(2))

	delegate := &recordingEncoderStreamDelegate{halt: true}
	r := newEncoderStreamReceiver(delegate)
	require.NoError(t, r.Decode(data))
	require.Len(t, delegate.events, 1)
}

func TestEncoderStreamReceiverError(t *testing.T) {
	data := append([]byte{0b00111111}, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}...)
	r := newEncoderStreamReceiver(&recordingEncoderStreamDelegate{})
	require.ErrorIs(t, r.Decode(data), errIntegerTooLarge)
}

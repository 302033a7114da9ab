package qpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type decoderStreamEvent struct {
	kind  string
	value uint64
}

type recordingDecoderStreamDelegate struct {
	events []decoderStreamEvent
	halt   bool
}

func (d *recordingDecoderStreamDelegate) onInsertCountIncrement(increment uint64) bool {
	d.events = append(d.events, decoderStreamEvent{"insert count increment", increment})
	return !d.halt
}

func (d *recordingDecoderStreamDelegate) onHeaderAcknowledgement(streamID uint64) bool {
	d.events = append(d.events, decoderStreamEvent{"header acknowledgement", streamID})
	return !d.halt
}

func (d *recordingDecoderStreamDelegate) onStreamCancellation(streamID uint64) bool {
	d.events = append(d.events, decoderStreamEvent{"stream cancellation", streamID})
	return !d.halt
}

func TestDecoderStreamSenderBuffersUntilFlush(t *testing.T) {
	sender := &testStreamSender{}
	s := &decoderStreamSender{sender: sender}
	s.sendHeaderAcknowledgement(4)
	s.sendInsertCountIncrement(1)
	s.sendStreamCancellation(8)
	require.Empty(t, sender.data)

	s.flush()
	require.Equal(t, []byte{0x84, 0x01, 0x48}, sender.data)

	s.flush()
	require.Equal(t, []byte{0x84, 0x01, 0x48}, sender.data)
}

func TestDecoderStreamReceiver(t *testing.T) {
	sender := &testStreamSender{}
	s := &decoderStreamSender{sender: sender}
	s.sendHeaderAcknowledgement(400)
	s.sendStreamCancellation(4)
	s.sendInsertCountIncrement(127)
	s.flush()

	delegate := &recordingDecoderStreamDelegate{}
	r := newDecoderStreamReceiver(delegate)
	require.NoError(t, r.Decode(sender.data))
	require.Equal(t, []decoderStreamEvent{
		{"header acknowledgement", 400},
		{"stream cancellation", 4},
		{"insert count increment", 127},
	}, delegate.events)
}

func TestDecoderStreamReceiverSplitInput(t *testing.T) {
	var data []byte
	data = appendInstruction(data, headerAcknowledgement(1000))
	data = appendInstruction(data, insertCountIncrement(70))

	for i := 0; i <= len(data); i++ {
		delegate := &recordingDecoderStreamDelegate{}
		r := newDecoderStreamReceiver(delegate)
		require.NoError(t, r.Decode(data[:i]))
		require.NoError(t, r.Decode(data[i:]))
		require.Equal(t, []decoderStreamEvent{
			{"header acknowledgement", 1000},
			{"insert count increment", 70},
		}, delegate.events)
	}
}

func TestDecoderStreamReceiverHalts(t *testing.T) {
	var data []byte
	data = appendInstruction(data, headerAcknowledgement(1))
	data = appendInstruction(data, headerAcknowledgement(2))

	delegate := &recordingDecoderStreamDelegate{halt: true}
	r := newDecoderStreamReceiver(delegate)
	require.NoError(t, r.Decode(data))
	require.Len(t, delegate.events, 1)
}

func TestDecoderStreamReceiverError(t *testing.T) {
	data := append([]byte{0x3f}, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}...)
	r := newDecoderStreamReceiver(&recordingDecoderStreamDelegate{})
	require.ErrorIs(t, r.Decode(data), errIntegerTooLarge)
}

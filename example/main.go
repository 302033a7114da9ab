// Command example walks through a QPACK conversation: an encoder and a
// decoder exchange the header blocks of two requests, together with the
// instructions flowing on the encoder and decoder streams.
package main

import (
	"fmt"

	"github.com/h3kit/qpack"
)

// A pipe collects the bytes written to one unidirectional stream until
// they are delivered to the peer.
type pipe struct {
	name string
	data []byte
}

func (p *pipe) WriteStreamData(data []byte) { p.data = append(p.data, data...) }
func (p *pipe) NumBytesBuffered() uint64    { return 0 }

func (p *pipe) deliver(to func([]byte)) {
	if len(p.data) == 0 {
		return
	}
	fmt.Printf("%s: delivering %d bytes: %x\n", p.name, len(p.data), p.data)
	to(p.data)
	p.data = nil
}

type connectionErrors struct{}

func (connectionErrors) OnEncoderStreamError(err qpack.EncoderStreamError) { panic(err) }
func (connectionErrors) OnDecoderStreamError(err qpack.DecoderStreamError) { panic(err) }

type printingVisitor struct {
	streamID uint64
}

func (v printingVisitor) OnHeadersDecoded(headers qpack.DecodedHeaders, sizeLimitExceeded bool) {
	fmt.Printf("stream %d: decoded %d fields, %d bytes compressed, %d bytes uncompressed:\n",
		v.streamID, len(headers.Fields), headers.CompressedSize, headers.UncompressedSize)
	for _, f := range headers.Fields {
		fmt.Printf("stream %d:   %s: %s\n", v.streamID, f.Name, f.Value)
	}
}

func (v printingVisitor) OnHeaderDecodingError(err error) {
	fmt.Printf("stream %d: decoding failed: %v\n", v.streamID, err)
}

func main() {
	encoderStream := &pipe{name: "encoder stream"}
	decoderStream := &pipe{name: "decoder stream"}

	encoder := qpack.NewEncoder(encoderStream, connectionErrors{})
	decoder := qpack.NewDecoder(4096, decoderStream, connectionErrors{})

	// The settings an HTTP/3 connection exchanges during its handshake.
	encoder.SetMaximumDynamicTableCapacity(4096)
	encoder.SetDynamicTableCapacity(4096)
	encoder.SetMaximumBlockedStreams(16)

	headers := []qpack.HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "https"},
		{Name: ":authority", Value: "www.example.com"},
		{Name: ":path", Value: "/index.html"},
		{Name: "user-agent", Value: "qpack-example/1.0"},
	}

	fmt.Println("First request, stream 0:")
	block := encoder.EncodeHeaderList(0, headers)
	fmt.Printf("header block: %x\n", block)

	// The encoder stream arrives first, so the header block can be
	// decoded right away.
	encoderStream.deliver(decoder.OnEncoderStreamData)
	acc := decoder.DecodeHeaderBlock(0, 0, printingVisitor{streamID: 0})
	acc.Decode(block)
	acc.EndHeaderBlock()

	decoder.FlushDecoderStream()
	decoderStream.deliver(encoder.OnDecoderStreamData)

	// The second request reuses the dynamic table entries, shrinking
	// the header block.
	fmt.Println("\nSecond request, stream 4:")
	headers[3] = qpack.HeaderField{Name: ":path", Value: "/style.css"}
	block = encoder.EncodeHeaderList(4, headers)
	fmt.Printf("header block: %x\n", block)

	// This time the header block outruns the encoder stream, so
	// decoding blocks until the instructions arrive.
	acc = decoder.DecodeHeaderBlock(4, 0, printingVisitor{streamID: 4})
	acc.Decode(block)
	acc.EndHeaderBlock()
	fmt.Println("header block is blocked, waiting for the encoder stream")

	encoderStream.deliver(decoder.OnEncoderStreamData)
	decoder.FlushDecoderStream()
	decoderStream.deliver(encoder.OnDecoderStreamData)
}

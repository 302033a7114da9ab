package qpack

import (
	"fmt"
	"reflect"

	"github.com/h3kit/qpack"
)

type nopStreamSender struct{}

func (nopStreamSender) WriteStreamData([]byte)   {}
func (nopStreamSender) NumBytesBuffered() uint64 { return 0 }

type streamErrors struct {
	err error
}

func (e *streamErrors) OnEncoderStreamError(err qpack.EncoderStreamError) { e.err = err }
func (e *streamErrors) OnDecoderStreamError(err qpack.DecoderStreamError) { e.err = err }

// Fuzz feeds the input to one of the three byte stream surfaces: the
// encoder stream, the decoder stream, or a request stream's header
// block. Header blocks that decode successfully are re-encoded and
// decoded again, which must yield the same header fields.
func Fuzz(data []byte) int {
	if len(data) < 1 {
		return 0
	}
	switch data[0] % 3 {
	case 0:
		return fuzzEncoderStream(data[1:])
	case 1:
		return fuzzDecoderStream(data[1:])
	default:
		return fuzzHeaderBlock(data[1:])
	}
}

func fuzzEncoderStream(data []byte) int {
	errs := &streamErrors{}
	decoder := qpack.NewDecoder(16*1024, nopStreamSender{}, errs)
	decoder.OnEncoderStreamData(data)
	if errs.err != nil {
		return 0
	}
	return 1
}

func fuzzDecoderStream(data []byte) int {
	errs := &streamErrors{}
	encoder := qpack.NewEncoder(nopStreamSender{}, errs)
	encoder.OnDecoderStreamData(data)
	if errs.err != nil {
		return 0
	}
	return 1
}

func fuzzHeaderBlock(data []byte) int {
	decoder := qpack.NewDecoder(0, nopStreamSender{}, &streamErrors{})
	fields, err := decoder.DecodeFull(data)
	if err != nil {
		return 0
	}
	if len(fields) == 0 {
		return 0
	}

	encoder := qpack.NewEncoder(nopStreamSender{}, &streamErrors{})
	encoded := encoder.EncodeHeaderList(0, fields)

	reencodedFields, err := decoder.DecodeFull(encoded)
	if err != nil {
		fmt.Printf("Fields: %#v\n", fields)
		panic(err)
	}
	if !reflect.DeepEqual(fields, reencodedFields) {
		fmt.Printf("%#v vs %#v", fields, reencodedFields)
		panic("unequal")
	}
	return 1
}

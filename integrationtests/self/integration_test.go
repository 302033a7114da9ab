package self

import (
	"golang.org/x/exp/rand"

	"github.com/h3kit/qpack"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// A stream buffers the bytes written to one unidirectional stream until
// they are read by the test and handed to the peer.
type stream struct {
	data []byte
}

func (s *stream) WriteStreamData(data []byte) { s.data = append(s.data, data...) }
func (s *stream) NumBytesBuffered() uint64    { return 0 }

func (s *stream) read() []byte {
	data := s.data
	s.data = nil
	return data
}

type errorList struct {
	errs []error
}

func (l *errorList) OnEncoderStreamError(err qpack.EncoderStreamError) { l.errs = append(l.errs, err) }
func (l *errorList) OnDecoderStreamError(err qpack.DecoderStreamError) { l.errs = append(l.errs, err) }

type headerSink struct {
	headers qpack.DecodedHeaders
	decoded bool
	err     error
}

func (s *headerSink) OnHeadersDecoded(headers qpack.DecodedHeaders, sizeLimitExceeded bool) {
	s.headers = headers
	s.decoded = true
}

func (s *headerSink) OnHeaderDecodingError(err error) { s.err = err }

func randomString(l int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789-"
	s := make([]byte, l)
	for i := range s {
		s[i] = charset[rand.Intn(len(charset))]
	}
	return string(s)
}

// randomHeaderFields mixes static table entries, static names with
// custom values, and entirely custom fields.
func randomHeaderFields(n int) []qpack.HeaderField {
	hfs := make([]qpack.HeaderField, 0, n)
	for i := 0; i < n; i++ {
		switch rand.Intn(3) {
		case 0:
			hfs = append(hfs, staticTable[rand.Intn(len(staticTable))])
		case 1:
			hfs = append(hfs, qpack.HeaderField{
				Name:  staticTable[rand.Intn(len(staticTable))].Name,
				Value: randomString(1 + rand.Intn(15)),
			})
		default:
			hfs = append(hfs, qpack.HeaderField{
				Name:  randomString(1 + rand.Intn(10)),
				Value: randomString(rand.Intn(20)),
			})
		}
	}
	return hfs
}

var _ = Describe("Self Tests", func() {
	var (
		encoderStream *stream
		decoderStream *stream
		connErrors    *errorList
		encoder       *qpack.Encoder
		decoder       *qpack.Decoder
	)

	BeforeEach(func() {
		encoderStream = &stream{}
		decoderStream = &stream{}
		connErrors = &errorList{}
		encoder = qpack.NewEncoder(encoderStream, connErrors)
		decoder = qpack.NewDecoder(4096, decoderStream, connErrors)
	})

	AfterEach(func() {
		Expect(connErrors.errs).To(BeEmpty())
	})

	decode := func(streamID uint64, block []byte) *headerSink {
		sink := &headerSink{}
		acc := decoder.DecodeHeaderBlock(streamID, 0, sink)
		acc.Decode(block)
		acc.EndHeaderBlock()
		return sink
	}

	It("encodes and decodes a single header", func() {
		hf := qpack.HeaderField{Name: "foo", Value: "bar"}
		block := encoder.EncodeHeaderList(0, []qpack.HeaderField{hf})
		sink := decode(0, block)
		Expect(sink.err).ToNot(HaveOccurred())
		Expect(sink.decoded).To(BeTrue())
		Expect(sink.headers.Fields).To(Equal([]qpack.HeaderField{hf}))
	})

	It("round trips random header lists without a dynamic table", func() {
		for i := 0; i < 50; i++ {
			headers := randomHeaderFields(1 + rand.Intn(10))
			block := encoder.EncodeHeaderList(0, headers)
			sink := decode(0, block)
			Expect(sink.err).ToNot(HaveOccurred())
			Expect(sink.decoded).To(BeTrue())
			Expect(sink.headers.Fields).To(Equal(headers))
		}
	})

	Context("with a dynamic table", func() {
		BeforeEach(func() {
			Expect(encoder.SetMaximumDynamicTableCapacity(4096)).To(BeTrue())
			Expect(encoder.SetDynamicTableCapacity(4096)).To(BeTrue())
			Expect(encoder.SetMaximumBlockedStreams(100)).To(BeTrue())
		})

		It("reuses dynamic table entries across requests", func() {
			headers := randomHeaderFields(5)
			var firstLen int
			for streamID := uint64(0); streamID < 40; streamID += 4 {
				block := encoder.EncodeHeaderList(streamID, headers)
				if streamID == 0 {
					firstLen = len(block)
				} else {
					Expect(len(block)).To(BeNumerically("<=", firstLen))
				}
				decoder.OnEncoderStreamData(encoderStream.read())
				sink := decode(streamID, block)
				Expect(sink.err).ToNot(HaveOccurred())
				Expect(sink.decoded).To(BeTrue())
				Expect(sink.headers.Fields).To(Equal(headers))
				decoder.FlushDecoderStream()
				encoder.OnDecoderStreamData(decoderStream.read())
			}
		})

		It("resolves blocked header blocks when the encoder stream catches up", func() {
			headers := append(randomHeaderFields(3), qpack.HeaderField{
				Name:  "x-blocking",
				Value: randomString(8),
			})
			block := encoder.EncodeHeaderList(4, headers)

			// The header block is decoded before any encoder stream data
			// is delivered, so it blocks on the insertions.
			sink := decode(4, block)
			Expect(sink.err).ToNot(HaveOccurred())
			Expect(sink.decoded).To(BeFalse())

			decoder.OnEncoderStreamData(encoderStream.read())
			Expect(sink.decoded).To(BeTrue())
			Expect(sink.headers.Fields).To(Equal(headers))

			decoder.FlushDecoderStream()
			encoder.OnDecoderStreamData(decoderStream.read())
		})

		It("abandons blocked header blocks when the stream is reset", func() {
			block := encoder.EncodeHeaderList(4, []qpack.HeaderField{
				{Name: "x-pending", Value: randomString(10)},
			})

			sink := &headerSink{}
			acc := decoder.DecodeHeaderBlock(4, 0, sink)
			acc.Decode(block)
			acc.EndHeaderBlock()
			Expect(sink.decoded).To(BeFalse())

			acc.Cancel()
			decoder.OnStreamReset(4)
			decoder.OnEncoderStreamData(encoderStream.read())
			Expect(sink.decoded).To(BeFalse())

			decoder.FlushDecoderStream()
			encoder.OnDecoderStreamData(decoderStream.read())
		})

		It("handles random conversations", func() {
			for i := 0; i < 100; i++ {
				streamID := uint64(i * 4)
				headers := randomHeaderFields(1 + rand.Intn(6))
				block := encoder.EncodeHeaderList(streamID, headers)

				// Half the time the header block beats the encoder stream.
				delayed := rand.Intn(2) == 0
				if !delayed {
					decoder.OnEncoderStreamData(encoderStream.read())
				}
				sink := decode(streamID, block)
				if delayed {
					decoder.OnEncoderStreamData(encoderStream.read())
				}
				Expect(sink.err).ToNot(HaveOccurred())
				Expect(sink.decoded).To(BeTrue())
				Expect(sink.headers.Fields).To(Equal(headers))

				decoder.FlushDecoderStream()
				encoder.OnDecoderStreamData(decoderStream.read())
			}
		})
	})
})

package qpack

// DecodedHeaders is the complete result of decoding one header block.
type DecodedHeaders struct {
	Fields []HeaderField
	// UncompressedSize is the sum of the name and value lengths of all
	// fields, including any dropped after the size limit was exceeded.
	UncompressedSize uint64
	// CompressedSize is the length of the header block on the wire.
	CompressedSize uint64
}

// A Visitor receives the outcome of decoding one header block. Exactly
// one of the two methods is called.
type Visitor interface {
	// OnHeadersDecoded is called with all decoded fields. If the
	// header list size limit was exceeded, sizeLimitExceeded is true
	// and Fields is empty, but the sizes still cover the whole block.
	OnHeadersDecoded(headers DecodedHeaders, sizeLimitExceeded bool)
	// OnHeaderDecodingError is called if the block cannot be decoded.
	OnHeaderDecodingError(err error)
}

// A DecodedHeadersAccumulator feeds a header block to a
// ProgressiveDecoder, collects the decoded fields and reports them to a
// Visitor in a single callback. It also enforces the header list size
// limit: blocks exceeding it are still decoded to keep the table state
// consistent, but their fields are withheld.
type DecodedHeadersAccumulator struct {
	decoder *ProgressiveDecoder
	visitor Visitor

	maxHeaderListSize     uint64
	limitIncludesOverhead bool

	fields                 []HeaderField
	sizeWithoutOverhead    uint64
	sizeIncludingOverhead  uint64
	compressedSize         uint64
	headerListSizeExceeded bool
}

func newDecodedHeadersAccumulator(visitor Visitor, maxHeaderListSize uint64, limitIncludesOverhead bool) *DecodedHeadersAccumulator {
	return &DecodedHeadersAccumulator{
		visitor:               visitor,
		maxHeaderListSize:     maxHeaderListSize,
		limitIncludesOverhead: limitIncludesOverhead,
	}
}

// Decode feeds the next bytes of the header block to the decoder.
func (a *DecodedHeadersAccumulator) Decode(data []byte) {
	a.compressedSize += uint64(len(data))
	a.decoder.Decode(data)
}

// EndHeaderBlock signals the end of the header block. The Visitor is
// called from within EndHeaderBlock unless the stream is blocked, in
// which case the callback fires once the dynamic table catches up.
func (a *DecodedHeadersAccumulator) EndHeaderBlock() {
	a.decoder.EndHeaderBlock()
}

// Cancel abandons decoding. The Visitor is not called.
func (a *DecodedHeadersAccumulator) Cancel() {
	a.decoder.Cancel()
}

func (a *DecodedHeadersAccumulator) OnHeaderDecoded(f HeaderField) {
	a.sizeWithoutOverhead += uint64(len(f.Name) + len(f.Value))
	if a.headerListSizeExceeded {
		return
	}
	a.sizeIncludingOverhead += entrySize(f.Name, f.Value)
	size := a.sizeWithoutOverhead
	if a.limitIncludesOverhead {
		size = a.sizeIncludingOverhead
	}
	if a.maxHeaderListSize > 0 && size > a.maxHeaderListSize {
		a.headerListSizeExceeded = true
		a.fields = nil
		return
	}
	a.fields = append(a.fields, f)
}

func (a *DecodedHeadersAccumulator) OnDecodingCompleted() {
	a.visitor.OnHeadersDecoded(DecodedHeaders{
		Fields:           a.fields,
		UncompressedSize: a.sizeWithoutOverhead,
		CompressedSize:   a.compressedSize,
	}, a.headerListSizeExceeded)
}

func (a *DecodedHeadersAccumulator) OnDecodingErrorDetected(err error) {
	a.visitor.OnHeaderDecodingError(err)
}

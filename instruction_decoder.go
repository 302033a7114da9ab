package qpack

import (
	"golang.org/x/net/http2/hpack"
)

// Maximum length of a decoded header name or value. Limits the memory a
// peer can tie up with a single string literal.
const stringLiteralLengthLimit = 1 << 20

// The delegate is called once per fully decoded instruction. The decoded
// field values remain valid until the decoder consumes further bytes.
// Returning false halts the decoder; remaining bytes stay unconsumed.
type instructionDelegate interface {
	onInstructionDecoded(in *instruction) bool
}

type decoderState uint8

const (
	stateStartInstruction decoderState = iota
	stateStartField
	stateReadBit
	stateVarintStart
	stateVarintResume
	stateVarintDone
	stateReadString
	stateReadStringDone
)

// An instructionDecoder decodes all instructions of one instruction set
// from a stream of bytes. It can suspend and resume at arbitrary byte
// boundaries, so callers can feed it stream data as it arrives.
type instructionDecoder struct {
	set      []*instruction
	delegate instructionDelegate

	state      decoderState
	instr      *instruction
	fieldIndex int

	sBit    bool
	varint  uint64
	varint2 uint64
	name    string
	value   string

	intDecoder   prefixedIntDecoder
	huffman      bool
	stringLength uint64
	stringBuf    []byte
}

func newInstructionDecoder(set []*instruction, delegate instructionDelegate) *instructionDecoder {
	return &instructionDecoder{set: set, delegate: delegate}
}

// Decode feeds data to the state machine. It returns the number of bytes
// consumed, which is less than len(data) only if the delegate halted the
// decoder or a decoding error occurred. After an error the decoder must
// not be used again.
func (d *instructionDecoder) Decode(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	total := 0
	for {
		var (
			n   int
			err error
		)
		switch d.state {
		case stateStartInstruction:
			d.startInstruction(data)
		case stateStartField:
			if halt := d.startField(); halt {
				return total, nil
			}
		case stateReadBit:
			d.readBit(data)
		case stateVarintStart:
			n = d.varintStart(data)
		case stateVarintResume:
			n, err = d.varintResume(data)
		case stateVarintDone:
			err = d.varintDone()
		case stateReadString:
			n = d.readString(data)
		case stateReadStringDone:
			err = d.readStringDone()
		}
		if err != nil {
			return total, err
		}
		data = data[n:]
		total += n
		// Every state except the three zero-byte transition states needs
		// at least one more byte to make progress.
		if len(data) == 0 && d.state != stateStartField && d.state != stateVarintDone && d.state != stateReadStringDone {
			return total, nil
		}
	}
}

// atInstructionBoundary reports whether the decoder is between
// instructions, with no partially decoded instruction pending.
func (d *instructionDecoder) atInstructionBoundary() bool {
	return d.state == stateStartInstruction
}

func (d *instructionDecoder) field() instructionField { return d.instr.fields[d.fieldIndex] }

func (d *instructionDecoder) startInstruction(data []byte) {
	d.instr = lookupInstruction(d.set, data[0])
	if d.instr == nil {
		// Instruction sets cover all possible bit patterns.
		panic("qpack: no instruction matches opcode")
	}
	d.fieldIndex = 0
	d.state = stateStartField
}

func (d *instructionDecoder) startField() (halt bool) {
	if d.fieldIndex >= len(d.instr.fields) {
		d.state = stateStartInstruction
		return !d.delegate.onInstructionDecoded(d.instr)
	}
	switch d.field().kind {
	case fieldSbit:
		d.state = stateReadBit
	default:
		d.state = stateVarintStart
	}
	return false
}

// readBit extracts a single bit from the current byte. The byte is not
// consumed: its remaining bits belong to the next field.
func (d *instructionDecoder) readBit(data []byte) {
	d.sBit = data[0]&d.field().param != 0
	d.fieldIndex++
	d.state = stateStartField
}

func (d *instructionDecoder) varintStart(data []byte) int {
	f := d.field()
	if f.kind == fieldName || f.kind == fieldValue {
		d.huffman = data[0]&(1<<f.param) != 0
	}
	if d.intDecoder.start(data[0], f.param) {
		d.state = stateVarintDone
	} else {
		d.state = stateVarintResume
	}
	return 1
}

func (d *instructionDecoder) varintResume(data []byte) (int, error) {
	n, err := d.intDecoder.resume(data)
	if err != nil {
		return n, err
	}
	if d.intDecoder.done {
		d.state = stateVarintDone
	}
	return n, nil
}

func (d *instructionDecoder) varintDone() error {
	switch d.field().kind {
	case fieldVarint:
		d.varint = d.intDecoder.value
	case fieldVarint2:
		d.varint2 = d.intDecoder.value
	default:
		// The integer is the length of a name or value literal.
		if d.intDecoder.value > stringLiteralLengthLimit {
			return errStringLiteralTooLong
		}
		d.stringLength = d.intDecoder.value
		d.stringBuf = d.stringBuf[:0]
		if d.stringLength == 0 {
			d.state = stateReadStringDone
		} else {
			d.state = stateReadString
		}
		return nil
	}
	d.fieldIndex++
	d.state = stateStartField
	return nil
}

func (d *instructionDecoder) readString(data []byte) int {
	n := int(min(uint64(len(data)), d.stringLength-uint64(len(d.stringBuf))))
	d.stringBuf = append(d.stringBuf, data[:n]...)
	if uint64(len(d.stringBuf)) == d.stringLength {
		d.state = stateReadStringDone
	}
	return n
}

func (d *instructionDecoder) readStringDone() error {
	var s string
	if d.huffman {
		var err error
		s, err = hpack.HuffmanDecodeToString(d.stringBuf)
		if err != nil {
			return err
		}
	} else {
		s = string(d.stringBuf)
	}
	if d.field().kind == fieldName {
		d.name = s
	} else {
		d.value = s
	}
	d.fieldIndex++
	d.state = stateStartField
	return nil
}

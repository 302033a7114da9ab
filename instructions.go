package qpack

// QPACK instructions and the header block prefix are described by tables
// of fields, interpreted by a single instruction codec. Bits covered
// neither by an opcode mask nor by a field (like the never-index bit on
// literal field lines) are ignored on decoding and zero on encoding.

type fieldKind uint8

const (
	// fieldSbit is a single bit in the first byte of the instruction.
	// param is the bit mask.
	fieldSbit fieldKind = iota
	// fieldVarint and fieldVarint2 are prefixed integers. param is the
	// prefix length in bits.
	fieldVarint
	fieldVarint2
	// fieldName and fieldValue are length-prefixed string literals,
	// optionally Huffman coded. param is the prefix length of the length
	// integer; the Huffman bit sits at 1<<param.
	fieldName
	fieldValue
)

type instructionField struct {
	kind  fieldKind
	param uint8
}

// An opcode identifies an instruction by the high bits of its first byte.
type opcode struct {
	value byte
	mask  byte
}

type instruction struct {
	opcode opcode
	fields []instructionField
}

func (in *instruction) matches(b byte) bool { return b&in.opcode.mask == in.opcode.value }

// lookupInstruction returns the instruction starting with byte b, or nil
// if no opcode matches.
func lookupInstruction(set []*instruction, b byte) *instruction {
	for _, in := range set {
		if in.matches(b) {
			return in
		}
	}
	return nil
}

// Encoder stream instructions (RFC 9204, Section 4.3).
var (
	insertWithNameReferenceInstruction = &instruction{
		opcode: opcode{value: 0b10000000, mask: 0b10000000},
		fields: []instructionField{{fieldSbit, 0b01000000}, {fieldVarint, 6}, {fieldValue, 7}},
	}
	insertWithoutNameReferenceInstruction = &instruction{
		opcode: opcode{value: 0b01000000, mask: 0b11000000},
		fields: []instructionField{{fieldName, 5}, {fieldValue, 7}},
	}
	setDynamicTableCapacityInstruction = &instruction{
		opcode: opcode{value: 0b00100000, mask: 0b11100000},
		fields: []instructionField{{fieldVarint, 5}},
	}
	duplicateInstruction = &instruction{
		opcode: opcode{value: 0b00000000, mask: 0b11100000},
		fields: []instructionField{{fieldVarint, 5}},
	}

	encoderStreamInstructions = []*instruction{
		insertWithNameReferenceInstruction,
		insertWithoutNameReferenceInstruction,
		setDynamicTableCapacityInstruction,
		duplicateInstruction,
	}
)

// Decoder stream instructions (RFC 9204, Section 4.4).
var (
	headerAcknowledgementInstruction = &instruction{
		opcode: opcode{value: 0b10000000, mask: 0b10000000},
		fields: []instructionField{{fieldVarint, 7}},
	}
	streamCancellationInstruction = &instruction{
		opcode: opcode{value: 0b01000000, mask: 0b11000000},
		fields: []instructionField{{fieldVarint, 6}},
	}
	insertCountIncrementInstruction = &instruction{
		opcode: opcode{value: 0b00000000, mask: 0b11000000},
		fields: []instructionField{{fieldVarint, 6}},
	}

	decoderStreamInstructions = []*instruction{
		headerAcknowledgementInstruction,
		streamCancellationInstruction,
		insertCountIncrementInstruction,
	}
)

// Field line representations on request streams (RFC 9204, Section 4.5).
var (
	indexedFieldInstruction = &instruction{
		opcode: opcode{value: 0b10000000, mask: 0b10000000},
		fields: []instructionField{{fieldSbit, 0b01000000}, {fieldVarint, 6}},
	}
	indexedFieldPostBaseInstruction = &instruction{
		opcode: opcode{value: 0b00010000, mask: 0b11110000},
		fields: []instructionField{{fieldVarint, 4}},
	}
	literalFieldNameReferenceInstruction = &instruction{
		opcode: opcode{value: 0b01000000, mask: 0b11000000},
		fields: []instructionField{{fieldSbit, 0b00010000}, {fieldVarint, 4}, {fieldValue, 7}},
	}
	literalFieldPostBaseInstruction = &instruction{
		opcode: opcode{value: 0b00000000, mask: 0b11110000},
		fields: []instructionField{{fieldVarint, 3}, {fieldValue, 7}},
	}
	literalFieldInstruction = &instruction{
		opcode: opcode{value: 0b00100000, mask: 0b11100000},
		fields: []instructionField{{fieldName, 3}, {fieldValue, 7}},
	}

	requestStreamInstructions = []*instruction{
		indexedFieldInstruction,
		indexedFieldPostBaseInstruction,
		literalFieldNameReferenceInstruction,
		literalFieldPostBaseInstruction,
		literalFieldInstruction,
	}
)

// The header block prefix (RFC 9204, Section 4.5.1) is decoded with the
// same machinery. Its opcode matches any byte.
var (
	headerDataPrefixInstruction = &instruction{
		opcode: opcode{value: 0x00, mask: 0x00},
		fields: []instructionField{{fieldVarint, 8}, {fieldSbit, 0b10000000}, {fieldVarint2, 7}},
	}

	headerDataPrefixInstructions = []*instruction{headerDataPrefixInstruction}
)

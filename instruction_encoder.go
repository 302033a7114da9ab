package qpack

import "golang.org/x/net/http2/hpack"

// An instructionWithValues is an instruction plus the values of its
// fields, ready to be serialized.
type instructionWithValues struct {
	instr   *instruction
	sBit    bool
	varint  uint64
	varint2 uint64
	name    string
	value   string
}

func insertWithNameReference(isStatic bool, nameIndex uint64, value string) instructionWithValues {
	return instructionWithValues{instr: insertWithNameReferenceInstruction, sBit: isStatic, varint: nameIndex, value: value}
}

func insertWithoutNameReference(name, value string) instructionWithValues {
	return instructionWithValues{instr: insertWithoutNameReferenceInstruction, name: name, value: value}
}

func duplicate(index uint64) instructionWithValues {
	return instructionWithValues{instr: duplicateInstruction, varint: index}
}

func setDynamicTableCapacity(capacity uint64) instructionWithValues {
	return instructionWithValues{instr: setDynamicTableCapacityInstruction, varint: capacity}
}

func headerAcknowledgement(streamID uint64) instructionWithValues {
	return instructionWithValues{instr: headerAcknowledgementInstruction, varint: streamID}
}

func streamCancellation(streamID uint64) instructionWithValues {
	return instructionWithValues{instr: streamCancellationInstruction, varint: streamID}
}

func insertCountIncrement(increment uint64) instructionWithValues {
	return instructionWithValues{instr: insertCountIncrementInstruction, varint: increment}
}

func headerBlockPrefix(encodedRequiredInsertCount uint64, sign bool, deltaBase uint64) instructionWithValues {
	return instructionWithValues{instr: headerDataPrefixInstruction, varint: encodedRequiredInsertCount, sBit: sign, varint2: deltaBase}
}

func indexedField(isStatic bool, index uint64) instructionWithValues {
	return instructionWithValues{instr: indexedFieldInstruction, sBit: isStatic, varint: index}
}

func indexedFieldPostBase(index uint64) instructionWithValues {
	return instructionWithValues{instr: indexedFieldPostBaseInstruction, varint: index}
}

func literalFieldNameReference(isStatic bool, nameIndex uint64, value string) instructionWithValues {
	return instructionWithValues{instr: literalFieldNameReferenceInstruction, sBit: isStatic, varint: nameIndex, value: value}
}

func literalFieldPostBase(nameIndex uint64, value string) instructionWithValues {
	return instructionWithValues{instr: literalFieldPostBaseInstruction, varint: nameIndex, value: value}
}

func literalField(name, value string) instructionWithValues {
	return instructionWithValues{instr: literalFieldInstruction, name: name, value: value}
}

// appendInstruction serializes in and returns the extended buffer.
// String literals are Huffman coded whenever that is shorter.
func appendInstruction(dst []byte, in instructionWithValues) []byte {
	// The opcode and any s-bits accumulate in the high bits of the first
	// byte of the next integer or string field.
	pending := in.instr.opcode.value
	for _, f := range in.instr.fields {
		switch f.kind {
		case fieldSbit:
			if in.sBit {
				pending |= f.param
			}
		case fieldVarint, fieldVarint2:
			v := in.varint
			if f.kind == fieldVarint2 {
				v = in.varint2
			}
			offset := len(dst)
			dst = appendVarInt(dst, f.param, v)
			dst[offset] |= pending
			pending = 0
		case fieldName, fieldValue:
			s := in.name
			if f.kind == fieldValue {
				s = in.value
			}
			offset := len(dst)
			if hl := hpack.HuffmanEncodeLength(s); hl < uint64(len(s)) {
				dst = appendVarInt(dst, f.param, hl)
				dst[offset] |= pending | byte(1)<<f.param
				dst = hpack.AppendHuffmanString(dst, s)
			} else {
				dst = appendVarInt(dst, f.param, uint64(len(s)))
				dst[offset] |= pending
				dst = append(dst, s...)
			}
			pending = 0
		}
	}
	return dst
}

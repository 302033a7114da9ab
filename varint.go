package qpack

// Integers on the wire use the prefixed representation from
// https://httpwg.org/specs/rfc7541.html#integer.representation.
// readVarInt and appendVarInt are copied from the HPACK implementation
// in golang.org/x/net/http2/hpack.

// Decoded integers must fit into 62 bits, matching the QUIC variable
// length integer range.
const maxPrefixedInt = 1<<62 - 1

// readVarInt reads an unsigned variable length integer off the
// beginning of p. n is the parameter as described in
// https://httpwg.org/specs/rfc7541.html#rfc.section.5.1.
//
// n must always be between 1 and 8.
//
// The returned remain buffer is either a smaller suffix of p, or err != nil.
// The error is errNeedMore if p doesn't contain a complete integer.
func readVarInt(n byte, p []byte) (i uint64, remain []byte, err error) {
	if n < 1 || n > 8 {
		panic("bad n")
	}
	if len(p) == 0 {
		return 0, p, errNeedMore
	}
	i = uint64(p[0])
	if n < 8 {
		i &= (1 << uint64(n)) - 1
	}
	if i < (1<<uint64(n))-1 {
		return i, p[1:], nil
	}

	origP := p
	p = p[1:]
	var m uint64
	for len(p) > 0 {
		b := p[0]
		p = p[1:]
		i += uint64(b&127) << m
		if b&128 == 0 {
			if i > maxPrefixedInt {
				return 0, origP, errIntegerTooLarge
			}
			return i, p, nil
		}
		m += 7
		if m >= 63 {
			return 0, origP, errIntegerTooLarge
		}
	}
	return 0, origP, errNeedMore
}

// appendVarInt appends i, as encoded in variable integer form using n
// bit prefix, to dst and returns the extended buffer.
//
// See
// https://httpwg.org/specs/rfc7541.html#integer.representation
func appendVarInt(dst []byte, n byte, i uint64) []byte {
	k := uint64((1 << n) - 1)
	if i < k {
		return append(dst, byte(i))
	}
	dst = append(dst, byte(k))
	i -= k
	for ; i >= 128; i >>= 7 {
		dst = append(dst, byte(0b10000000|(i&0b01111111)))
	}
	return append(dst, byte(i))
}

// A prefixedIntDecoder decodes a single prefixed integer that may arrive
// split across arbitrary byte boundaries.
type prefixedIntDecoder struct {
	value uint64
	shift uint
	done  bool
}

// start begins decoding an integer whose prefix bits are in b and reports
// whether the integer was fully contained in the prefix.
func (d *prefixedIntDecoder) start(b byte, prefixLen uint8) bool {
	mask := byte(1)<<prefixLen - 1
	d.value = uint64(b & mask)
	d.shift = 0
	d.done = d.value < uint64(mask)
	return d.done
}

// resume consumes continuation bytes until the integer is complete or data
// runs out. It returns the number of bytes consumed.
func (d *prefixedIntDecoder) resume(data []byte) (int, error) {
	for n, b := range data {
		shifted := uint64(b&127) << d.shift
		if d.shift > 62 || shifted>>d.shift != uint64(b&127) || shifted > maxPrefixedInt-d.value {
			return n, errIntegerTooLarge
		}
		d.value += shifted
		d.shift += 7
		if b&128 == 0 {
			d.done = true
			return n + 1, nil
		}
	}
	return len(data), nil
}

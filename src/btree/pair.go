package btree

import (
	"encoding/binary"
	"fmt"
)

const lenPrefixSize = 8

// Pair is one key/value record of a leaf. Keys compare byte-wise.
type Pair struct {
	Key   []byte
	Value []byte
}

// EncodedSize is the number of bytes ToBytes produces.
func (p Pair) EncodedSize() int {
	return 2*lenPrefixSize + len(p.Key) + len(p.Value)
}

// ToBytes encodes the pair as two length-prefixed byte strings.
func (p Pair) ToBytes() []byte {
	buf := make([]byte, p.EncodedSize())
	p.encodeTo(buf)
	return buf
}

func (p Pair) encodeTo(buf []byte) {
	off := putBytes(buf, p.Key)
	putBytes(buf[off:], p.Value)
}

func putBytes(buf []byte, b []byte) int {
	byteOrder.PutUint64(buf, uint64(len(b)))
	copy(buf[lenPrefixSize:], b)
	return lenPrefixSize + len(b)
}

// PairFromBytes decodes a pair. The returned slices alias data. It panics on
// malformed input.
func PairFromBytes(data []byte) Pair {
	key, rest := takeBytes(data)
	value, rest := takeBytes(rest)
	if len(rest) != 0 {
		panic(fmt.Sprintf("malformed pair: %d trailing bytes", len(rest)))
	}
	return Pair{Key: key, Value: value}
}

func takeBytes(data []byte) ([]byte, []byte) {
	if len(data) < lenPrefixSize {
		panic(fmt.Sprintf("malformed pair: %d bytes left for a length prefix", len(data)))
	}
	n := byteOrder.Uint64(data)
	data = data[lenPrefixSize:]
	if n > uint64(len(data)) {
		panic(fmt.Sprintf("malformed pair: length %d exceeds %d remaining bytes", n, len(data)))
	}
	return data[:n:n], data[n:]
}

var byteOrder = binary.NativeEndian

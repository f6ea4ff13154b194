package main

import (
	"encoding/binary"
	"errors"
)

// encodeVarint/decodeVarint stand in for the caller-supplied element codec
// the state reader treats as an opaque collaborator.
func encodeVarint(v int64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(v))
	return buf[:n]
}

func decodeVarint(b []byte) (int64, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, errors.New("decodeVarint: invalid varint")
	}
	return int64(v), nil
}

package statereader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
)

// encodeVarint/decodeVarint are the int codec used throughout these tests,
// standing in for the caller-supplied element/value codecs the spec treats
// as opaque collaborators.
func encodeVarint(v int) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(v))
	return buf[:n]
}

func decodeVarint(b []byte) (int, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, errors.New("decodeVarint: invalid varint")
	}
	return int(v), nil
}

// failingDecoder always errors, for exercising the decode-error-is-scoped
// property.
func failingDecoder(b []byte) (int, error) {
	return 0, fmt.Errorf("boom: %d bytes", len(b))
}

// fakeStore is a scripted BackingStore: each call pops the next configured
// response/error pair and records the request it was given.
type fakeStore struct {
	responses []*Response
	errs      []error
	requests  []Request
	calls     int
}

func (s *fakeStore) GetData(_ context.Context, req Request) (*Response, error) {
	s.requests = append(s.requests, req)
	i := s.calls
	s.calls++
	var resp *Response
	var err error
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return resp, err
}

const (
	testComputation = "computation"
	testWorkToken   = int64(5043)
)

var testKey = []byte("DATA_KEY")

func testBinding() Binding {
	return Binding{Computation: testComputation, Key: testKey, WorkToken: testWorkToken}
}

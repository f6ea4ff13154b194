package backingstore

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is the gRPC content-subtype this codec is registered under.
// Callers select it per-RPC via grpc.CallContentSubtype(jsonCodecName).
const jsonCodecName = "json"

// jsonCodec implements grpc/encoding.Codec over encoding/json. It lets
// Client use the real google.golang.org/grpc transport and connection
// management without generated protobuf message types, which would require
// a protoc toolchain this build does not have.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

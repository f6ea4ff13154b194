// Package backingstore provides implementations of the out-of-core
// collaborator statereader.BackingStore describes but does not implement:
// the remote, synchronous getData call a Reader issues once per flush.
//
// Two implementations are provided:
//
//   - Client dials a real backing-store process over gRPC, using a
//     hand-registered JSON codec (see jsoncodec.go) instead of generated
//     protobuf bindings.
//   - LocalStore persists state directly in an embedded Pebble database,
//     for local development and integration tests without a separate
//     server process.
package backingstore

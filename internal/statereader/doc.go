// Package statereader implements a deferred, batching reader for per-key
// state held by a remote backing store.
//
// # Overview
//
// A Reader is bound to one (computation, key, workToken) triple for the
// lifetime of a single unit of work. Callers register interest in state
// cells — values, lists, or watermark holds — via the Value, List, and
// Watermark factory functions, getting back a ValueHandle, ListHandle or
// WatermarkHandle immediately without touching the network. Registration
// is pure bookkeeping: the backing store is invoked only when a caller
// awaits a handle's result (or calls Flush), and then exactly once per
// Flush, carrying every tag registered since the previous Flush.
//
// # Batching
//
//	r := statereader.New(binding, client)
//	h1 := statereader.Value[int64](r, tag1, decodeVarint)
//	h2 := statereader.List[int64](r, tag2, decodeVarint)
//	v, err := h1.Get(ctx) // triggers one Flush covering both h1 and h2
//	list, err := h2.Get(ctx) // already resolved, no further round trip
//
// # Kinds
//
// | Kind | Wire shape | Result |
// |---|---|---|
// | Value | one fetch, payload decoded directly | T or absent |
// | List | one fetch, entries zero-byte prefixed | []T, possibly empty |
// | Watermark | same wire shape as List, no decoder | minimum timestamp or absent |
//
// # Errors
//
// Fatal errors (transport failure, envelope mismatch, an unrecognized tag
// in the response, a kind mismatch, a missing decoder, or an incomplete
// response) fail every handle in the flush that had not yet been routed
// when the error was discovered. A decode error is scoped to the single
// handle whose payload failed to decode; every other handle in the same
// flush resolves normally.
package statereader

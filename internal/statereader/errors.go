package statereader

import "errors"

// Sentinel errors identifying the fatal-flush taxonomy from the reader's
// error handling design. Wrap these with fmt.Errorf("...: %w", ...) to add
// detail; callers can still errors.Is against the sentinel.
var (
	// ErrTransport indicates the backing store call failed or returned no
	// response at all.
	ErrTransport = errors.New("statereader: backing store transport failure")

	// ErrEnvelopeMismatch indicates the response's computation/key block
	// shape or identity does not match the reader's binding.
	ErrEnvelopeMismatch = errors.New("statereader: response envelope mismatch")

	// ErrUnknownTag indicates the response referenced a tag that was not
	// part of the drained request set for this flush.
	ErrUnknownTag = errors.New("statereader: unknown tag in response")

	// ErrKindMismatch indicates an item was routed to a TagKey whose
	// recorded kind does not match the item's wire category.
	ErrKindMismatch = errors.New("statereader: kind mismatch for tag")

	// ErrMissingDecoder indicates a kind requiring a decoder had none
	// registered at consumption time. This indicates an internal bug in
	// the registry, not caller misuse.
	ErrMissingDecoder = errors.New("statereader: missing decoder for tag")

	// ErrIncompleteResponse indicates the drained tag set was not fully
	// consumed by the response.
	ErrIncompleteResponse = errors.New("statereader: incomplete response, tags left unrouted")

	// ErrDecode wraps a decoder failure. It is scoped to the single
	// handle whose payload failed to decode.
	ErrDecode = errors.New("statereader: decode error")

	// ErrAlreadyRouted indicates a flush attempted to route a response
	// item to a handle that had already reached a terminal state. This
	// indicates the backing store delivered the same tag twice across
	// flushes, a protocol-level double-delivery; see DESIGN.md for the
	// rationale for treating it as fatal rather than silently ignoring it.
	ErrAlreadyRouted = errors.New("statereader: tag already routed in a previous flush")
)

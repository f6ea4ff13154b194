package statereader

import "fmt"

// buildAux builds the tag-bytes → TagKey demultiplexing map used to route
// a response back onto the handles that requested it. It is intentionally
// keyed by tag bytes alone, not by (kind, tag): this mirrors the original
// source's map, under which a LIST and a WATERMARK TagKey sharing the same
// tag bytes in one flush collide, with the later registration winning. No
// part of this spec asks for that to be fixed, so it is carried forward
// rather than silently patched.
func buildAux(tags []TagKey) map[string]TagKey {
	aux := make(map[string]TagKey, len(tags))
	for _, t := range tags {
		aux[t.Tag] = t
	}
	return aux
}

// failRemaining fails every handle still referenced by aux with err. Called
// once a fatal condition aborts a flush, so that no awaiter hangs forever
// waiting on a tag this flush never got to route.
func (r *Reader) failRemaining(aux map[string]TagKey, err error) {
	for _, tagKey := range aux {
		entry, ok := r.registry.lookup(tagKey)
		if !ok {
			continue
		}
		if !entry.h.isDone() {
			entry.h.fail(err)
		}
	}
}

// consumeResponse routes every item in resp onto its registered handle,
// decoding per kind, then verifies the drained tag set was fully consumed.
// A fatal condition aborts routing and fails every tag still outstanding in
// aux with that error; a decode error only fails the one handle whose
// payload failed to decode; routing continues.
func (r *Reader) consumeResponse(aux map[string]TagKey, resp *Response) error {
	for _, item := range resp.Values {
		tagKey, ok := aux[string(item.Tag)]
		if !ok {
			err := fmt.Errorf("%w: tag %q in value response", ErrUnknownTag, item.Tag)
			r.failRemaining(aux, err)
			return err
		}
		if tagKey.Kind != KindValue {
			err := fmt.Errorf("%w: tag %q returned as value, registered as %s", ErrKindMismatch, item.Tag, tagKey.Kind)
			r.failRemaining(aux, err)
			return err
		}
		entry, ok := r.registry.lookup(tagKey)
		if !ok {
			err := fmt.Errorf("%w: tag %q has no registered handle", ErrUnknownTag, item.Tag)
			r.failRemaining(aux, err)
			return err
		}
		if entry.decoder == nil {
			err := fmt.Errorf("%w: tag %q (VALUE)", ErrMissingDecoder, item.Tag)
			r.failRemaining(aux, err)
			return err
		}
		if entry.h.isDone() {
			err := fmt.Errorf("%w: tag %q", ErrAlreadyRouted, item.Tag)
			r.failRemaining(aux, err)
			return err
		}
		delete(aux, string(item.Tag))
		consumeValue(entry.h, entry.decoder, item)
	}

	for _, item := range resp.Lists {
		tagKey, ok := aux[string(item.Tag)]
		if !ok {
			err := fmt.Errorf("%w: tag %q in list response", ErrUnknownTag, item.Tag)
			r.failRemaining(aux, err)
			return err
		}

		switch tagKey.Kind {
		case KindList:
			entry, ok := r.registry.lookup(tagKey)
			if !ok {
				err := fmt.Errorf("%w: tag %q has no registered handle", ErrUnknownTag, item.Tag)
				r.failRemaining(aux, err)
				return err
			}
			if entry.decoder == nil {
				err := fmt.Errorf("%w: tag %q (LIST)", ErrMissingDecoder, item.Tag)
				r.failRemaining(aux, err)
				return err
			}
			if entry.h.isDone() {
				err := fmt.Errorf("%w: tag %q", ErrAlreadyRouted, item.Tag)
				r.failRemaining(aux, err)
				return err
			}
			delete(aux, string(item.Tag))
			consumeList(entry.h, entry.decoder, item)
		case KindWatermark:
			entry, ok := r.registry.lookup(tagKey)
			if !ok {
				err := fmt.Errorf("%w: tag %q has no registered handle", ErrUnknownTag, item.Tag)
				r.failRemaining(aux, err)
				return err
			}
			if entry.h.isDone() {
				err := fmt.Errorf("%w: tag %q", ErrAlreadyRouted, item.Tag)
				r.failRemaining(aux, err)
				return err
			}
			delete(aux, string(item.Tag))
			consumeWatermark(entry.h, item)
		default:
			err := fmt.Errorf("%w: tag %q returned as list, registered as %s", ErrKindMismatch, item.Tag, tagKey.Kind)
			r.failRemaining(aux, err)
			return err
		}
	}

	if len(aux) != 0 {
		r.failRemaining(aux, ErrIncompleteResponse)
		return ErrIncompleteResponse
	}
	return nil
}

// consumeValue applies the VALUE decoding rule: empty/absent payload
// resolves to the absent marker without invoking the decoder; otherwise the
// payload bytes are handed to the decoder unmodified.
func consumeValue(h *handle, dec decoder, item ValueItem) {
	if item.Payload == nil || len(item.Payload.Data) == 0 {
		h.resolve(valueResult{present: false})
		return
	}
	v, err := dec(item.Payload.Data)
	if err != nil {
		h.fail(fmt.Errorf("%w: %v", ErrDecode, err))
		return
	}
	h.resolve(valueResult{present: true, v: v})
}

// consumeList applies the LIST decoding rule: a zero-entry item resolves to
// an empty sequence without consuming the decoder; each present entry has
// its single leading zero byte stripped before decoding; absent/empty
// entries are skipped.
func consumeList(h *handle, dec decoder, item ListItem) {
	if len(item.Entries) == 0 {
		h.resolve([]any{})
		return
	}
	out := make([]any, 0, len(item.Entries))
	for _, e := range item.Entries {
		if len(e.Data) == 0 {
			continue
		}
		v, err := dec(e.Data[1:])
		if err != nil {
			h.fail(fmt.Errorf("%w: %v", ErrDecode, err))
			return
		}
		out = append(out, v)
	}
	h.resolve(out)
}

// consumeWatermark applies the WATERMARK decoding rule: the result is the
// minimum of all entries' timestamps, converted microseconds→milliseconds.
// Entries with absent/empty payload are excluded from the minimum,
// following the original source's guarded loop body rather than its
// doc-comment's stated intent (see SPEC_FULL.md §1, deliberate deviations).
func consumeWatermark(h *handle, item ListItem) {
	var min *int64
	for _, e := range item.Entries {
		if len(e.Data) == 0 {
			continue
		}
		ms := e.Timestamp / 1000
		if min == nil || ms < *min {
			min = &ms
		}
	}
	if min == nil {
		h.resolve(watermarkResult{present: false})
		return
	}
	h.resolve(watermarkResult{present: true, ms: *min})
}

package backingstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/fluxstate/internal/storage/pebble"
	"github.com/rzbill/fluxstate/internal/statereader"
)

// cellKey encodes a (computation, key, kind, tag) state cell as a sortable
// string key, following the teacher's ns/{ns}/wq/{name}/... key-encoding
// convention.
//
// Format: cell/{computation}/{key}/{kind}/{tag}
func cellKey(computation string, key []byte, kind statereader.Kind, tag []byte) []byte {
	return []byte(fmt.Sprintf("cell/%s/%s/%d/%s", computation, key, kind, tag))
}

// storedValue is the JSON-encoded record kept for a single VALUE cell.
type storedValue struct {
	Data []byte `json:"data"`
}

// storedList is the JSON-encoded record kept for a LIST or WATERMARK cell.
// LocalStore stores raw entries exactly as statereader expects to receive
// them on the wire (zero-byte-prefixed for LIST, a single zero-byte payload
// plus a microsecond timestamp for WATERMARK), so GetData can hand them
// back unmodified.
type storedList struct {
	Entries []statereader.Payload `json:"entries"`
}

// LocalStore is a Pebble-backed statereader.BackingStore for local
// development and integration tests. Unlike Client, it answers GetData
// in-process: there is no network round trip, only a Pebble read per
// requested tag. This mirrors the teacher's internal/storage/pebble usage
// in the workqueue package, repurposed here to back state cells instead of
// queue messages.
type LocalStore struct {
	db *pebblestore.DB
}

// OpenLocalStore opens (or creates) a Pebble database at dataDir and wraps
// it as a LocalStore.
func OpenLocalStore(dataDir string) (*LocalStore, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dataDir})
	if err != nil {
		return nil, fmt.Errorf("backingstore: open local store: %w", err)
	}
	return &LocalStore{db: db}, nil
}

// Close closes the underlying Pebble database.
func (s *LocalStore) Close() error { return s.db.Close() }

// PutValue seeds a VALUE cell. data=nil represents an absent value.
func (s *LocalStore) PutValue(computation string, key, tag, data []byte) error {
	b, err := json.Marshal(storedValue{Data: data})
	if err != nil {
		return err
	}
	return s.db.Set(cellKey(computation, key, statereader.KindValue, tag), b)
}

// PutList seeds a LIST cell. Each entry's Data must already carry the
// single leading zero byte the wire convention requires for present
// elements.
func (s *LocalStore) PutList(computation string, key, tag []byte, entries []statereader.Payload) error {
	b, err := json.Marshal(storedList{Entries: entries})
	if err != nil {
		return err
	}
	return s.db.Set(cellKey(computation, key, statereader.KindList, tag), b)
}

// PutWatermarkHolds seeds a WATERMARK cell with hold timestamps in
// milliseconds; LocalStore converts them to the microsecond wire
// convention on read.
func (s *LocalStore) PutWatermarkHolds(computation string, key, tag []byte, holdsMs []int64) error {
	entries := make([]statereader.Payload, len(holdsMs))
	for i, ms := range holdsMs {
		entries[i] = statereader.Payload{Data: []byte{0x00}, Timestamp: ms * 1000}
	}
	b, err := json.Marshal(storedList{Entries: entries})
	if err != nil {
		return err
	}
	return s.db.Set(cellKey(computation, key, statereader.KindWatermark, tag), b)
}

// GetData implements statereader.BackingStore by reading each requested tag
// directly out of Pebble. A tag with no stored record answers as absent
// rather than as an error, matching how a real backing store would behave
// for state nothing has ever written to.
func (s *LocalStore) GetData(_ context.Context, req statereader.Request) (*statereader.Response, error) {
	resp := &statereader.Response{
		ComputationID: req.ComputationID,
		Key:           req.Key,
	}

	for _, vf := range req.ValueFetches {
		item := statereader.ValueItem{Tag: vf.Tag}
		raw, err := s.db.Get(cellKey(req.ComputationID, req.Key, statereader.KindValue, vf.Tag))
		if err == nil {
			var sv storedValue
			if uerr := json.Unmarshal(raw, &sv); uerr != nil {
				return nil, fmt.Errorf("backingstore: decode stored value for tag %q: %w", vf.Tag, uerr)
			}
			if sv.Data != nil {
				item.Payload = &statereader.Payload{Data: sv.Data}
			}
		} else if err != pebble.ErrNotFound {
			return nil, fmt.Errorf("backingstore: read value for tag %q: %w", vf.Tag, err)
		}
		resp.Values = append(resp.Values, item)
	}

	for _, lf := range req.ListFetches {
		// KindList and KindWatermark share the same wire shape; LocalStore
		// tries both storage kinds since it cannot tell which one a plain
		// ListFetch came from (neither can the real wire protocol).
		item := statereader.ListItem{Tag: lf.Tag}
		for _, kind := range []statereader.Kind{statereader.KindList, statereader.KindWatermark} {
			raw, err := s.db.Get(cellKey(req.ComputationID, req.Key, kind, lf.Tag))
			if err == nil {
				var sl storedList
				if uerr := json.Unmarshal(raw, &sl); uerr != nil {
					return nil, fmt.Errorf("backingstore: decode stored list for tag %q: %w", lf.Tag, uerr)
				}
				item.Entries = sl.Entries
				break
			} else if err != pebble.ErrNotFound {
				return nil, fmt.Errorf("backingstore: read list for tag %q: %w", lf.Tag, err)
			}
		}
		resp.Lists = append(resp.Lists, item)
	}

	return resp, nil
}

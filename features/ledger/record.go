package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"feedsync/features/feed"

	"github.com/rs/zerolog/log"
)

var (
	ErrDecodeRecord = errors.New("failed to decode hidden items record")
)

// legacySortMode is where ids from the flat, pre-sort-mode record format land.
const legacySortMode = feed.SortHot

// Encode serialises the ledger as source -> sort mode -> ordered ids.
func (l *Ledger) Encode() ([]byte, error) {
	l.mu.RLock()
	record := make(map[string]map[string][]string)
	for k, s := range l.sets {
		bySort, ok := record[k.Path()]
		if !ok {
			bySort = make(map[string][]string)
			record[k.Path()] = bySort
		}
		bySort[k.SortMode().String()] = s.ids()
	}
	l.mu.RUnlock()

	return json.Marshal(record)
}

// Decode builds a ledger from a stored record. A source whose value is a flat id list
// is read as if every id had been hidden under the hot sort mode.
func Decode(data []byte) (*Ledger, error) {
	l := New()
	if len(data) == 0 {
		return l, nil
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeRecord, err)
	}

	for path, raw := range record {
		src, err := feed.NewSource(path)
		if err != nil {
			log.Warn().Str("source", path).Msg("Skipping hidden items for invalid source")
			continue
		}

		var legacy []string
		if err := json.Unmarshal(raw, &legacy); err == nil {
			l.sets[feed.KeyOf(src, legacySortMode)] = newIDSet(legacy...)
			continue
		}

		var bySort map[string][]string
		if err := json.Unmarshal(raw, &bySort); err != nil {
			return nil, fmt.Errorf("%w: source %q: %w", ErrDecodeRecord, path, err)
		}
		for sort, ids := range bySort {
			l.sets[feed.KeyOf(src, feed.SortMode(sort))] = newIDSet(ids...)
		}
	}

	return l, nil
}

package store

import (
	"cmp"
	"slices"
)

// Mismatch is one record whose stored and replayed hashes differ. An
// empty hash means the record is missing on that side.
type Mismatch struct {
	Collection string `json:"collection"`
	Index      int    `json:"index"`
	Stored     string `json:"stored"`
	Replayed   string `json:"replayed"`
}

// ReplayResult is the outcome of comparing a stored run with a
// regeneration of it.
type ReplayResult struct {
	RunID      string
	Compared   int
	Mismatches []Mismatch
}

// Deterministic reports whether every record matched.
func (r ReplayResult) Deterministic() bool {
	return len(r.Mismatches) == 0
}

type recordKey struct {
	collection string
	index      int
}

// CompareRecords matches stored and replayed records by collection and
// index and reports every difference in (collection, index) order.
func CompareRecords(runID string, stored, replayed []Record) ReplayResult {
	res := ReplayResult{RunID: runID}

	hashes := make(map[recordKey]*Mismatch, len(stored))
	for _, r := range stored {
		hashes[recordKey{r.Collection, r.Index}] = &Mismatch{Collection: r.Collection, Index: r.Index, Stored: r.Hash}
	}
	for _, r := range replayed {
		k := recordKey{r.Collection, r.Index}
		m, ok := hashes[k]
		if !ok {
			m = &Mismatch{Collection: r.Collection, Index: r.Index}
			hashes[k] = m
		}
		m.Replayed = r.Hash
	}

	for _, m := range hashes {
		res.Compared++
		if m.Stored != m.Replayed {
			res.Mismatches = append(res.Mismatches, *m)
		}
	}
	slices.SortFunc(res.Mismatches, func(a, b Mismatch) int {
		return cmp.Or(cmp.Compare(a.Collection, b.Collection), cmp.Compare(a.Index, b.Index))
	})
	return res
}

package alignment

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// Source says which key a correction was found under.
type Source uint8

const (
	SourceNone Source = iota
	SourceDataset
	SourceCompat
	SourceBody
)

func (s Source) String() string {
	switch s {
	case SourceDataset:
		return "dataset"
	case SourceCompat:
		return "compat"
	case SourceBody:
		return "body"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type snapshot map[string]domain.AlignmentCorrection

// Table is a copy-on-write set of correction records. Readers never block;
// each write copies the map and swaps the pointer under a single-writer lock.
type Table struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// NewTable returns a table holding initial. The map is copied.
func NewTable(initial map[string]domain.AlignmentCorrection) *Table {
	t := &Table{}
	s := make(snapshot, len(initial))
	for k, v := range initial {
		s[k] = v.Clone()
	}
	t.snap.Store(&s)
	return t
}

func (t *Table) load() snapshot { return *t.snap.Load() }

// Get returns the record stored under key.
func (t *Table) Get(key string) (domain.AlignmentCorrection, bool) {
	rec, ok := t.load()[key]
	if !ok {
		return domain.AlignmentCorrection{}, false
	}
	return rec.Clone(), true
}

// Lookup finds the correction for d: by dataset id, then by compatibility
// key, then by body.
func (t *Table) Lookup(d domain.Dataset) (domain.AlignmentCorrection, string, Source) {
	s := t.load()
	keys := d.CorrectionKeys()
	for i, key := range keys {
		rec, ok := s[key]
		if !ok {
			continue
		}
		src := SourceCompat
		switch i {
		case 0:
			src = SourceDataset
		case len(keys) - 1:
			src = SourceBody
		}
		return rec.Clone(), key, src
	}
	return domain.AlignmentCorrection{}, "", SourceNone
}

// Keys returns the stored keys in sorted order.
func (t *Table) Keys() []string {
	s := t.load()
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.load()) }

// Set stores rec under key.
func (t *Table) Set(key string, rec domain.AlignmentCorrection) {
	t.update(func(s snapshot) { s[key] = rec.Clone() })
}

// Delete removes key and reports whether it existed.
func (t *Table) Delete(key string) bool {
	var existed bool
	t.update(func(s snapshot) {
		_, existed = s[key]
		delete(s, key)
	})
	return existed
}

// Merge stores every record of recs, keeping keys not present in recs.
func (t *Table) Merge(recs map[string]domain.AlignmentCorrection) {
	t.update(func(s snapshot) {
		for k, v := range recs {
			s[k] = v.Clone()
		}
	})
}

func (t *Table) update(fn func(snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.load()
	next := make(snapshot, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	fn(next)
	t.snap.Store(&next)
}

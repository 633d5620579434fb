package vfs

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Entry is one step of a Plan. It either writes Value to Key, or applies
// Sub with Key as the directory prefix.
type Entry struct {
	Key   string
	Value string
	Sub   Plan
}

// IsDir reports whether the entry holds a nested plan.
func (e Entry) IsDir() bool { return e.Sub != nil }

// Plan is an ordered, nested set of writes. Order is preserved on Apply,
// which matters for attributes whose meaning depends on earlier writes
// (e.g. nr_* counts creating the directories later entries address).
type Plan []Entry

// Write is a single flattened write.
type Write struct {
	Path  string
	Value string
}

// Set appends a leaf write.
func (p Plan) Set(key, value string) Plan {
	return append(p, Entry{Key: key, Value: value})
}

// Dir appends a nested plan under key. A nil sub plan is stored as empty.
func (p Plan) Dir(key string, sub Plan) Plan {
	if sub == nil {
		sub = Plan{}
	}
	return append(p, Entry{Key: key, Sub: sub})
}

// Flatten returns the writes of p in application order, with paths joined
// onto root. Keys may themselves be absolute paths when root is empty.
func (p Plan) Flatten(root string) []Write {
	var out []Write
	for _, e := range p {
		path := filepath.Join(root, e.Key)
		if e.IsDir() {
			out = append(out, e.Sub.Flatten(path)...)
			continue
		}
		out = append(out, Write{Path: path, Value: e.Value})
	}
	return out
}

// Len returns the number of leaf writes in p.
func (p Plan) Len() int {
	n := 0
	for _, e := range p {
		if e.IsDir() {
			n += e.Sub.Len()
		} else {
			n++
		}
	}
	return n
}

// Lookup follows keys through nested entries and returns the leaf value.
func (p Plan) Lookup(keys ...string) (string, bool) {
	sub, ok := p.lookup(keys...)
	if !ok || sub.IsDir() {
		return "", false
	}
	return sub.Value, true
}

// Sub returns the nested plan found by following keys.
func (p Plan) Sub(keys ...string) (Plan, bool) {
	e, ok := p.lookup(keys...)
	if !ok || !e.IsDir() {
		return nil, false
	}
	return e.Sub, true
}

// Keys returns the keys of the top level entries, in order.
func (p Plan) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, e := range p {
		keys = append(keys, e.Key)
	}
	return keys
}

func (p Plan) lookup(keys ...string) (Entry, bool) {
	if len(keys) == 0 {
		return Entry{}, false
	}
	for _, e := range p {
		if e.Key != keys[0] {
			continue
		}
		if len(keys) == 1 {
			return e, true
		}
		if !e.IsDir() {
			return Entry{}, false
		}
		return e.Sub.lookup(keys[1:]...)
	}
	return Entry{}, false
}

// Apply writes every entry of p under root, in order, stopping at the first
// failure. Writes that already succeeded are not rolled back. log may be nil.
func Apply(fs FS, root string, p Plan, log *zap.Logger) error {
	for _, w := range p.Flatten(root) {
		if err := fs.WriteFile(w.Path, w.Value); err != nil {
			if log != nil {
				log.Debug("write failed", zap.String("path", w.Path), zap.String("value", w.Value), zap.Error(err))
			}
			return fmt.Errorf("apply plan: %w", err)
		}
		if log != nil {
			log.Debug("write", zap.String("path", w.Path), zap.String("value", w.Value))
		}
	}
	return nil
}

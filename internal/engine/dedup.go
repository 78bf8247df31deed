package engine

import "github.com/vaucouleur/decision/internal/trace"

// dedupSet tracks which delivery keys already produced a diagnostic.
//
// Keys carry the round epoch, so a set spanning rounds would only grow;
// the engine resets it at the start of every round instead.
type dedupSet struct {
	seen map[trace.Key]struct{}
}

func newDedupSet() *dedupSet {
	return &dedupSet{seen: make(map[trace.Key]struct{})}
}

// FirstSeen records k and reports whether it was new.
func (d *dedupSet) FirstSeen(k trace.Key) bool {
	if _, ok := d.seen[k]; ok {
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

// Reset forgets all keys.
func (d *dedupSet) Reset() {
	clear(d.seen)
}

// Len returns the number of keys recorded since the last reset.
func (d *dedupSet) Len() int {
	return len(d.seen)
}

package statusbar

import (
	"sync/atomic"
	"time"
)

// Snapshot is one parsed producer output. Published snapshots are never
// modified; readers get a deep copy.
type Snapshot struct {
	// Items is the parsed output array
	Items Frame
	// CapturedAt is the UTC time the line was read
	CapturedAt time.Time
	// Prefix is the continuation marker to emit before the next array
	Prefix string
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Items:      s.Items.Clone(),
		CapturedAt: s.CapturedAt,
		Prefix:     s.Prefix,
	}
}

// snapshotStore holds the latest parsed output and the read copy handed to
// the compositor. Both are swapped atomically, never mutated in place.
type snapshotStore struct {
	latest atomic.Pointer[Snapshot]
	read   atomic.Pointer[Snapshot]
}

func newSnapshotStore() *snapshotStore {
	s := &snapshotStore{}
	empty := &Snapshot{Items: Frame{}}
	s.latest.Store(empty)
	s.read.Store(empty)
	return s
}

// publish records a freshly parsed output as both the latest and the read
// copy.
func (s *snapshotStore) publish(snap Snapshot) {
	p := &snap
	s.latest.Store(p)
	s.read.Store(p)
}

// refresh replaces the read copy with the latest output
func (s *snapshotStore) refresh() {
	s.read.Store(s.latest.Load())
}

// load returns a deep copy of the read copy
func (s *snapshotStore) load() Snapshot {
	return s.read.Load().Clone()
}

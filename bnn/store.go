package bnn

import "bnn/neuralnet"

// SnapshotStore keeps recorded weight snapshots in sampling order. Stored
// snapshots are never handed out, readers get deep copies.
type SnapshotStore struct {
	snapshots []neuralnet.Snapshot
}

// Append records a snapshot; the store takes ownership of it.
func (s *SnapshotStore) Append(snap neuralnet.Snapshot) {
	s.snapshots = append(s.snapshots, snap)
}

func (s *SnapshotStore) Len() int {
	return len(s.snapshots)
}

// At returns a copy of the i-th snapshot.
func (s *SnapshotStore) At(i int) neuralnet.Snapshot {
	return s.snapshots[i].Clone()
}

// All returns copies of every snapshot in sampling order.
func (s *SnapshotStore) All() []neuralnet.Snapshot {
	out := make([]neuralnet.Snapshot, len(s.snapshots))
	for i, snap := range s.snapshots {
		out[i] = snap.Clone()
	}
	return out
}

// view exposes the stored snapshots for read-only use by the predictor.
func (s *SnapshotStore) view() []neuralnet.Snapshot {
	return s.snapshots
}

func (s *SnapshotStore) Clear() {
	s.snapshots = nil
}

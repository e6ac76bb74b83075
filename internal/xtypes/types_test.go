package xtypes

import "testing"

func TestSnapshotVisible(t *testing.T) {
	snap := Snapshot{Xmin: 1, Xmax: 10, InFlight: []XID{4, 7}}

	cases := []struct {
		xid  XID
		want bool
	}{
		{xid: 0, want: false},
		{xid: 1, want: true},
		{xid: 4, want: false}, // in-flight
		{xid: 7, want: false}, // in-flight
		{xid: 9, want: true},
		{xid: 10, want: false}, // not yet allocated
		{xid: XIDInf, want: true},
	}
	for _, c := range cases {
		if got := snap.Visible(c.xid); got != c.want {
			t.Errorf("Visible(%d) = %v, want %v", c.xid, got, c.want)
		}
	}
}

func TestSnapshotDominates(t *testing.T) {
	older := Snapshot{Xmin: 1, Xmax: 5, InFlight: []XID{3}}
	newerSameInFlight := Snapshot{Xmin: 1, Xmax: 6, InFlight: []XID{3}}
	newerResolved := Snapshot{Xmin: 1, Xmax: 6}
	stale := Snapshot{Xmin: 1, Xmax: 4}

	if !newerSameInFlight.Dominates(older) {
		t.Error("a later snapshot with the same in-flight xid should dominate the earlier one")
	}
	if !newerResolved.Dominates(older) {
		t.Error("a snapshot where xid 3 has since committed should dominate one where it was in-flight")
	}
	if stale.Dominates(older) {
		t.Error("a snapshot with a smaller Xmax can never dominate")
	}
	if !older.Dominates(older) {
		t.Error("a snapshot must dominate itself")
	}
}

func TestVersionedLive(t *testing.T) {
	snap := Snapshot{Xmin: 1, Xmax: 10}

	live := Versioned{CreatedXID: 2, DeletedXID: XIDInf}
	if !live.Live(snap) {
		t.Error("a row created and never deleted should be live")
	}

	tombstoned := Versioned{CreatedXID: 2, DeletedXID: 5}
	if tombstoned.Live(snap) {
		t.Error("a row whose delete is visible should not be live")
	}

	notYetVisible := Versioned{CreatedXID: 2, DeletedXID: 20}
	if !notYetVisible.Live(snap) {
		t.Error("a row whose delete xid is beyond the snapshot should still be live")
	}

	neverCreated := Versioned{CreatedXID: 50, DeletedXID: XIDInf}
	if neverCreated.Live(snap) {
		t.Error("a row whose creation is not yet visible should not be live")
	}
}

// Package xtypes holds the domain types shared across the storage, schema,
// and graph packages: transaction ids, snapshots, versioned rows, and the
// error taxonomy every operation returns.
package xtypes

import "time"

// XID is a server-assigned, monotonically increasing transaction id.
type XID uint64

// XIDInf is the sentinel "not yet deleted" deleted_xid value.
const XIDInf XID = (1 << 63) - 1

// Snapshot is the visibility predicate used for every MVCC read:
// an xid is visible iff it is below Xmax, at or above the implicit
// lower bound, and not a member of InFlight.
type Snapshot struct {
	Xmin     XID   // smallest xid that can be visible; lower xids are not
	Xmax     XID   // first xid not yet allocated at snapshot time
	InFlight []XID // xids in [Xmin, Xmax) that had not committed
}

// Visible reports whether xid is visible under this snapshot.
func (s Snapshot) Visible(xid XID) bool {
	if xid == XIDInf {
		return true
	}
	if xid >= s.Xmax {
		return false
	}
	if xid < s.Xmin {
		return false
	}
	for _, inflight := range s.InFlight {
		if inflight == xid {
			return false
		}
	}
	return true
}

// Dominates reports whether every xid visible in other is also visible
// under s, i.e. s is at least as fresh as other.
func (s Snapshot) Dominates(other Snapshot) bool {
	if s.Xmax < other.Xmax {
		return false
	}
	inflight := make(map[XID]bool, len(other.InFlight))
	for _, xid := range other.InFlight {
		inflight[xid] = true
	}
	for xid := other.Xmin; xid < other.Xmax; xid++ {
		if inflight[xid] {
			continue
		}
		if !s.Visible(xid) {
			return false
		}
	}
	return true
}

// Versioned is the shared shape of every MVCC-tracked row.
type Versioned struct {
	CreatedXID XID
	DeletedXID XID
}

// Live reports whether the row is visible and not yet tombstoned at snap.
func (v Versioned) Live(snap Snapshot) bool {
	return snap.Visible(v.CreatedXID) && !(v.DeletedXID != XIDInf && snap.Visible(v.DeletedXID))
}

// SchemaRecord is a registered per-type JSON Schema document.
type SchemaRecord struct {
	SchemaID  int64
	TypeName  string
	SchemaRaw string // canonical JSON text of the schema document
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Object is a typed node in the graph.
type Object struct {
	ID     int64
	UserID string
	Type   string
	Versioned
	Metadata string // current visible metadata JSON, filled in on read
}

// ObjectMetadataVersion is one entry in an object's metadata history chain.
type ObjectMetadataVersion struct {
	ObjectID int64
	Metadata string
	Versioned
}

// Edge is a directed (from, relation, to) triple.
type Edge struct {
	ID       int64
	UserID   string
	FromType string
	FromID   int64
	Relation string
	ToType   string
	ToID     int64
	Versioned
	Metadata string
}

// EdgeMetadataVersion is one entry in an edge's metadata history chain.
type EdgeMetadataVersion struct {
	EdgeID int64
	Metadata string
	Versioned
}

// TransactionRecord is persisted at every xid allocation so historic
// zookies remain resolvable.
type TransactionRecord struct {
	XID      XID
	Snapshot Snapshot
	Wall     time.Time
	Metadata string
}

// ConsistencyKind tags the four ConsistencyRequirement variants (§4.6).
type ConsistencyKind int

const (
	FullConsistency ConsistencyKind = iota
	AtLeastAsFresh
	ExactlyAt
	MinimizeLatency
)

// ConsistencyRequirement is exactly one of the four variants in spec §4.6.
type ConsistencyRequirement struct {
	Kind   ConsistencyKind
	Zookie string // carries the token for AtLeastAsFresh / ExactlyAt
}

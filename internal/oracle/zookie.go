// Package oracle implements the Revision Oracle (C2): xid allocation on
// top of a storage.Tx, and the opaque, HMAC-authenticated "zookie" token
// clients use to request causally or exactly ordered reads.
package oracle

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"

	"github.com/ligaturedb/ligature/internal/xtypes"
)

const (
	versionSnapshot byte = 0x01
	versionAtXID    byte = 0x02
	tagSize              = 8
)

// Oracle allocates xids and encodes/decodes zookies. It holds the HMAC
// secret that makes zookies self-authenticating (spec §4.2): tampering
// with an encoded zookie is detected and rejected with INVALID_ZOOKIE.
type Oracle struct {
	secret []byte
}

// New constructs an Oracle with the given HMAC secret. The secret must be
// non-empty; it is supplied by internal/config from LIGATURE_ZOOKIE_SECRET.
func New(secret []byte) *Oracle {
	return &Oracle{secret: secret}
}

// EncodeSnapshot produces a zookie carrying a literal Snapshot.
func (o *Oracle) EncodeSnapshot(snap xtypes.Snapshot) string {
	var buf bytes.Buffer
	buf.WriteByte(versionSnapshot)
	writeUvarint(&buf, uint64(snap.Xmin))
	writeUvarint(&buf, uint64(snap.Xmax))
	writeUvarint(&buf, uint64(len(snap.InFlight)))
	for _, xid := range snap.InFlight {
		writeUvarint(&buf, uint64(xid))
	}
	return o.seal(buf.Bytes())
}

// EncodeXID produces a zookie carrying a bare xid (the AtXid variant);
// decoding it requires resolving the xid's TransactionRecord.
func (o *Oracle) EncodeXID(xid xtypes.XID) string {
	var buf bytes.Buffer
	buf.WriteByte(versionAtXID)
	writeUvarint(&buf, uint64(xid))
	return o.seal(buf.Bytes())
}

func (o *Oracle) seal(payload []byte) string {
	tag := o.mac(payload)
	full := append(payload, tag...)
	return base64.RawURLEncoding.EncodeToString(full)
}

func (o *Oracle) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, o.secret)
	h.Write(payload)
	sum := h.Sum(nil)
	return sum[:tagSize]
}

// TransactionResolver resolves an xid to its persisted TransactionRecord,
// needed to decode an AtXid zookie into a concrete Snapshot.
type TransactionResolver interface {
	ResolveTransaction(ctx context.Context, xid xtypes.XID) (xtypes.TransactionRecord, error)
}

// Decode verifies and decodes a zookie into a Snapshot. Unknown version
// bytes and bad HMAC tags return INVALID_ZOOKIE, per spec §4.2.
func Decode(ctx context.Context, o *Oracle, resolver TransactionResolver, zookie string) (xtypes.Snapshot, error) {
	raw, err := base64.RawURLEncoding.DecodeString(zookie)
	if err != nil {
		return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "not valid base64: %v", err)
	}
	if len(raw) < 1+tagSize {
		return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "zookie too short")
	}
	payload := raw[:len(raw)-tagSize]
	tag := raw[len(raw)-tagSize:]
	wantTag := o.mac(payload)
	if !hmac.Equal(tag, wantTag) {
		return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "HMAC verification failed")
	}

	r := bytes.NewReader(payload)
	version, err := r.ReadByte()
	if err != nil {
		return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "missing version byte")
	}

	switch version {
	case versionSnapshot:
		xmin, err := binary.ReadUvarint(r)
		if err != nil {
			return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "malformed xmin: %v", err)
		}
		xmax, err := binary.ReadUvarint(r)
		if err != nil {
			return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "malformed xmax: %v", err)
		}
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "malformed in-flight length: %v", err)
		}
		snap := xtypes.Snapshot{Xmin: xtypes.XID(xmin), Xmax: xtypes.XID(xmax)}
		for i := uint64(0); i < n; i++ {
			xid, err := binary.ReadUvarint(r)
			if err != nil {
				return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "malformed in-flight entry: %v", err)
			}
			snap.InFlight = append(snap.InFlight, xtypes.XID(xid))
		}
		return snap, nil

	case versionAtXID:
		xid, err := binary.ReadUvarint(r)
		if err != nil {
			return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "malformed xid: %v", err)
		}
		rec, err := resolver.ResolveTransaction(ctx, xtypes.XID(xid))
		if err != nil {
			return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "unknown xid %d: %v", xid, err)
		}
		return rec.Snapshot, nil

	default:
		return xtypes.Snapshot{}, xtypes.New(xtypes.CodeInvalidZookie, "unsupported zookie version byte 0x%02x", version)
	}
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

// Package wire implements the fixed-layout advertisement packet codec: one
// 4-byte header followed by 1..25 20-byte entries, all big-endian. Encoding
// and decoding are pure functions with no knowledge of neighbors, the
// forwarding table, or sockets — those live in internal/router.
package wire

import (
	"encoding/binary"

	"github.com/ripdaemon/ripd/internal/rerr"
)

// Command identifies whether a packet solicits routes or carries them.
type Command uint8

const (
	CommandRequest  Command = 1
	CommandResponse Command = 2
)

// Version is the only wire version this daemon speaks.
const Version uint8 = 2

const (
	headerSize = 4
	entrySize  = 20
	minEntries = 1
	maxEntries = 25
)

// Entry is one advertised destination. FamilyID, DestID and Metric are kept
// as plain ints (rather than the narrower domain types in internal/table) so
// Encode can reject out-of-range values instead of silently truncating them.
type Entry struct {
	FamilyID int
	DestID   int64
	Metric   int64
}

// Encode lays out a packet: command, version, sender id, then each entry's
// 20-byte record (family id, 2 reserved bytes, dest id, 8 reserved bytes,
// metric).
//
// Fails with EntryCountError if entries is empty or has more than 25
// elements, and with IntegerRangeError if any field overflows its wire
// width. Neither should occur for internally-validated callers: the router
// core partitions outgoing entries into groups of <=25 before calling
// Encode, and every field it supplies is already range-checked by
// internal/table and internal/config.
func Encode(command Command, version uint8, senderID uint16, entries []Entry) ([]byte, error) {
	if len(entries) < minEntries || len(entries) > maxEntries {
		return nil, &rerr.EntryCountError{Count: len(entries)}
	}

	buf := make([]byte, headerSize+entrySize*len(entries))
	buf[0] = byte(command)
	buf[1] = version
	binary.BigEndian.PutUint16(buf[2:4], senderID)

	for i, e := range entries {
		if e.FamilyID < 0 || e.FamilyID > 0xFFFF {
			return nil, &rerr.IntegerRangeError{Field: "family_id", Value: int64(e.FamilyID)}
		}
		if e.DestID < 0 || e.DestID > 0xFFFFFFFF {
			return nil, &rerr.IntegerRangeError{Field: "dest_id", Value: e.DestID}
		}
		if e.Metric < 0 || e.Metric > 0xFFFFFFFF {
			return nil, &rerr.IntegerRangeError{Field: "metric", Value: e.Metric}
		}

		off := headerSize + i*entrySize
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(e.FamilyID))
		// offset+2..4 reserved, left zero
		binary.BigEndian.PutUint32(buf[off+4:off+8], uint32(e.DestID))
		// offset+8..16 reserved, left zero
		binary.BigEndian.PutUint32(buf[off+16:off+20], uint32(e.Metric))
	}

	return buf, nil
}

// Decode parses a packet produced by Encode. It does not reject a version
// other than 2, non-zero reserved bytes, or an unrecognized sender: those
// checks require neighbor configuration and are the router core's job.
// Decode only rejects structurally malformed input.
func Decode(data []byte) (command Command, version uint8, senderID uint16, entries []Entry, err error) {
	if len(data) < headerSize {
		return 0, 0, 0, nil, &rerr.PacketTruncatedError{Length: len(data)}
	}

	rest := len(data) - headerSize
	if rest == 0 || rest%entrySize != 0 {
		return 0, 0, 0, nil, &rerr.PacketTruncatedError{Length: len(data)}
	}

	command = Command(data[0])
	version = data[1]
	senderID = binary.BigEndian.Uint16(data[2:4])

	n := rest / entrySize
	entries = make([]Entry, n)
	for i := 0; i < n; i++ {
		off := headerSize + i*entrySize
		entries[i] = Entry{
			FamilyID: int(binary.BigEndian.Uint16(data[off : off+2])),
			DestID:   int64(binary.BigEndian.Uint32(data[off+4 : off+8])),
			Metric:   int64(binary.BigEndian.Uint32(data[off+16 : off+20])),
		}
	}

	return command, version, senderID, entries, nil
}

// ReservedClean reports whether the reserved regions of every entry in a
// decoded packet are all-zero. The router core calls this before trusting a
// packet; a non-clean packet is dropped as malformed.
func ReservedClean(data []byte) bool {
	if len(data) < headerSize {
		return false
	}
	rest := len(data) - headerSize
	if rest == 0 || rest%entrySize != 0 {
		return false
	}
	n := rest / entrySize
	for i := 0; i < n; i++ {
		off := headerSize + i*entrySize
		for _, b := range data[off+2 : off+4] {
			if b != 0 {
				return false
			}
		}
		for _, b := range data[off+8 : off+16] {
			if b != 0 {
				return false
			}
		}
	}
	return true
}

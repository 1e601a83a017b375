// Package rerr defines the structured error kinds raised across the daemon:
// config validation, wire decoding, socket binding, and transmission.
//
// Every kind carries enough context (offending value, and an underlying
// cause where there is one) to produce an actionable message. The kinds that
// wrap a cause (ConfigError, PortInUseError, SendFailureError) expose it via
// Unwrap for errors.Is/As; the others carry no cause.
package rerr

import "fmt"

// ConfigError covers ConfigSyntax, ConfigMissing and ConfigRange failures
// from the config loader. All three are fatal at startup.
type ConfigError struct {
	Kind string // "syntax", "missing", "range"
	Line int    // 1-indexed source line, 0 if not line-specific
	Param string
	Message string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("config %s error at line %d (%s): %s", e.Kind, e.Line, e.Param, e.Message)
	}
	return fmt.Sprintf("config %s error (%s): %s", e.Kind, e.Param, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// PortInUseError is a fatal startup error: a configured input port could not
// be bound.
type PortInUseError struct {
	Port int
	Err  error
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("port %d already in use: %v", e.Port, e.Err)
}

func (e *PortInUseError) Unwrap() error { return e.Err }

// PacketTruncatedError is raised by the codec when a datagram is shorter
// than the 4-byte header, carries no entries after the header, or its
// trailing length is not a multiple of 20.
type PacketTruncatedError struct {
	Length int
}

func (e *PacketTruncatedError) Error() string {
	return fmt.Sprintf("packet truncated: %d bytes", e.Length)
}

// VersionMismatchError is raised by the router core (not the codec) when a
// decoded packet's version field is not 2.
type VersionMismatchError struct {
	Got int
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("unsupported packet version %d, want 2", e.Got)
}

// UnknownNeighborError is raised when a packet's sender_id does not match
// any configured neighbor.
type UnknownNeighborError struct {
	SenderID uint32
}

func (e *UnknownNeighborError) Error() string {
	return fmt.Sprintf("packet from unconfigured neighbor %d", e.SenderID)
}

// EntryCountError is raised by the encoder when asked to encode zero or more
// than 25 entries in a single packet. Treated as a bug: valid internal
// callers always partition into groups of <=25 first.
type EntryCountError struct {
	Count int
}

func (e *EntryCountError) Error() string {
	return fmt.Sprintf("invalid entry count %d, want 1..25", e.Count)
}

// IntegerRangeError is raised by the encoder when a field overflows its wire
// width. Treated as a bug for valid internal inputs.
type IntegerRangeError struct {
	Field string
	Value int64
}

func (e *IntegerRangeError) Error() string {
	return fmt.Sprintf("field %s value %d overflows its wire width", e.Field, e.Value)
}

// SendFailureError wraps a transmission failure to one neighbor. It is
// logged and never aborts the rest of a broadcast.
type SendFailureError struct {
	NeighborID uint32
	Err        error
}

func (e *SendFailureError) Error() string {
	return fmt.Sprintf("send to neighbor %d failed: %v", e.NeighborID, e.Err)
}

func (e *SendFailureError) Unwrap() error { return e.Err }

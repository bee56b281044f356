// Package collector owns the single-writer statistics store: it drains a
// stream of channel lifecycle events and maintains the authoritative
// per-channel stats map, exactly as _examples/matgreaves-rig/server/
// eventlog.go's EventLog owns its own append-only log under one mutex.
package collector

// EventKind identifies which variant of Event is populated.
type EventKind int

const (
	EventCreated EventKind = iota
	EventMessageSent
	EventMessageReceived
	EventClosed
	EventNotified
)

// Event is a single tagged entry in the channel lifecycle stream. Only the
// fields relevant to Kind are populated; the rest are zero. Events are
// values, never callbacks — the Go rendition of the Rust original's
// StatsEvent enum (original_source/crates/channels-console/src/lib.rs).
type Event struct {
	Kind EventKind
	ID   uint64

	// EventCreated only.
	Source   string
	Label    string
	HasLabel bool
	Type     ChannelType
	TypeName string
	TypeSize uint64

	// EventMessageSent only.
	Log    string
	HasLog bool

	// EventMessageSent / EventMessageReceived.
	TimestampNs uint64
}

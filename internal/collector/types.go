package collector

import (
	"fmt"
	"strconv"
)

// Kind identifies which of the three supported primitives a ChannelType
// describes. Deliberately independent of the root package's Kind/
// ChannelType: collector must not
// import the generic root package, so it carries its own non-generic
// mirror of the wire-level type, populated by the root package at Created
// time.
type Kind int

const (
	KindBounded Kind = iota
	KindUnbounded
	KindOneshot
)

// ChannelType is the collector's own copy of the tagged channel-type value,
// ported the same way as the root package's — see
// original_source/crates/channels-console/src/lib.rs's ChannelType
// Serialize/Deserialize impls.
type ChannelType struct {
	Kind     Kind
	Capacity uint64
}

func (t ChannelType) String() string {
	switch t.Kind {
	case KindBounded:
		return fmt.Sprintf("bounded[%d]", t.Capacity)
	case KindUnbounded:
		return "unbounded"
	case KindOneshot:
		return "oneshot"
	default:
		return "unknown"
	}
}

func (t ChannelType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// State is the mutually exclusive lifecycle state of an instrumented
// channel, mirrored from the root package's State for the same reason
// ChannelType is.
type State int

const (
	StateActive State = iota
	StateFull
	StateClosed
	StateNotified
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFull:
		return "full"
	case StateClosed:
		return "closed"
	case StateNotified:
		return "notified"
	default:
		return "unknown"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

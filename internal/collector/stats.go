package collector

import (
	"strconv"
	"strings"
)

// LogEntry is one entry in a per-channel sent/received log ring. Index is
// the 1-based sequence number of the message within its direction;
// TimestampNs is measured from the process-wide epoch.
type LogEntry struct {
	Index       uint64 `json:"index"`
	TimestampNs uint64 `json:"timestamp_ns"`
	Message     string `json:"message,omitempty"`
	HasMessage  bool   `json:"-"`
}

// ChannelLogs is the response body for GET /logs/{id}.
type ChannelLogs struct {
	ID            uint64     `json:"id"`
	SentLogs      []LogEntry `json:"sent_logs"`
	ReceivedLogs  []LogEntry `json:"received_logs"`
}

// channelStats is the collector's mutable, internal record for one
// instrumented channel. It is owned exclusively by the collector goroutine;
// readers only ever see a cloned Snapshot. Ported from
// original_source/crates/channels-console/src/lib.rs's ChannelStats.
type channelStats struct {
	id       uint64
	source   string
	label    string
	hasLabel bool
	typ      ChannelType
	typeName string
	typeSize uint64
	iter     uint32

	sentCount     uint64
	receivedCount uint64
	state         State

	sentLogs     []LogEntry
	receivedLogs []LogEntry
}

func newChannelStats(id uint64, source, label string, hasLabel bool, typ ChannelType, typeName string, typeSize uint64, iter uint32) *channelStats {
	return &channelStats{
		id:       id,
		source:   source,
		label:    label,
		hasLabel: hasLabel,
		typ:      typ,
		typeName: typeName,
		typeSize: typeSize,
		iter:     iter,
		state:    StateActive,
	}
}

// satSub is saturating subtraction: a - b, clamped to 0, matching the
// original crate's u64::saturating_sub so counts never go negative when
// events race or are dropped.
func satSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func (cs *channelStats) queued() uint64 {
	return satSub(satSub(cs.sentCount, cs.receivedCount), 1)
}

func (cs *channelStats) totalBytes() uint64 {
	return cs.sentCount * cs.typeSize
}

func (cs *channelStats) queuedBytes() uint64 {
	return cs.queued() * cs.typeSize
}

// updateState recomputes state from the counters. Closed and Notified are
// terminal: once reached, this is a no-op.
func (cs *channelStats) updateState() {
	if cs.state == StateClosed || cs.state == StateNotified {
		return
	}
	queued := cs.queued()
	var isFull bool
	switch cs.typ.Kind {
	case KindBounded:
		isFull = queued >= cs.typ.Capacity
	case KindOneshot:
		isFull = queued >= 1
	case KindUnbounded:
		isFull = false
	}
	if isFull {
		cs.state = StateFull
	} else {
		cs.state = StateActive
	}
}

// pushSentLog appends a sent-log entry, evicting the oldest once limit is
// reached. The len(...) > 0 guard makes eviction a no-op on an empty ring
// the same way VecDeque::pop_front is a no-op on an empty deque, so
// CHANNELS_CONSOLE_LOG_LIMIT=0 can't slice out of bounds.
func (cs *channelStats) pushSentLog(entry LogEntry, limit int) {
	if len(cs.sentLogs) >= limit && len(cs.sentLogs) > 0 {
		cs.sentLogs = cs.sentLogs[1:]
	}
	cs.sentLogs = append(cs.sentLogs, entry)
}

// pushReceivedLog appends a received-log entry, evicting the oldest once
// limit is reached. See pushSentLog for the empty-ring guard.
func (cs *channelStats) pushReceivedLog(entry LogEntry, limit int) {
	if len(cs.receivedLogs) >= limit && len(cs.receivedLogs) > 0 {
		cs.receivedLogs = cs.receivedLogs[1:]
	}
	cs.receivedLogs = append(cs.receivedLogs, entry)
}

// SerializableChannelStats is the wire representation served by GET
// /metrics, ported field-for-field from the Rust original's
// SerializableChannelStats.
type SerializableChannelStats struct {
	ID              uint64      `json:"id"`
	Source          string      `json:"source"`
	Label           string      `json:"label"`
	HasCustomLabel  bool        `json:"has_custom_label"`
	ChannelType     ChannelType `json:"channel_type"`
	State           State       `json:"state"`
	SentCount       uint64      `json:"sent_count"`
	ReceivedCount   uint64      `json:"received_count"`
	Queued          uint64      `json:"queued"`
	TypeName        string      `json:"type_name"`
	TypeSize        uint64      `json:"type_size"`
	TotalBytes      uint64      `json:"total_bytes"`
	QueuedBytes     uint64      `json:"queued_bytes"`
	Iter            uint32      `json:"iter"`
}

func (cs *channelStats) toSerializable() SerializableChannelStats {
	return SerializableChannelStats{
		ID:             cs.id,
		Source:         cs.source,
		Label:          resolveLabel(cs.source, cs.label, cs.hasLabel, cs.iter),
		HasCustomLabel: cs.hasLabel,
		ChannelType:    cs.typ,
		State:          cs.state,
		SentCount:      cs.sentCount,
		ReceivedCount:  cs.receivedCount,
		Queued:         cs.queued(),
		TypeName:       cs.typeName,
		TypeSize:       cs.typeSize,
		TotalBytes:     cs.totalBytes(),
		QueuedBytes:    cs.queuedBytes(),
		Iter:           cs.iter,
	}
}

// resolveLabel produces the display label for a channel: the user-supplied
// label verbatim if present, otherwise "<parent_dir>/<filename>:LINE"
// derived from source, with "-{iter+1}" appended when iter > 0. Ported from
// lib.rs's resolve_label/extract_filename.
func resolveLabel(source, label string, hasLabel bool, iter uint32) string {
	var base string
	switch {
	case hasLabel:
		base = label
	default:
		if pos := strings.LastIndexByte(source, ':'); pos >= 0 {
			path, line := source[:pos], source[pos+1:]
			base = extractFilename(path) + ":" + line
		} else {
			base = extractFilename(source)
		}
	}
	if iter > 0 {
		return base + "-" + strconv.FormatUint(uint64(iter+1), 10)
	}
	return base
}

// extractFilename keeps the last two "/"-separated path components, e.g.
// "src/foo/bar.go" -> "foo/bar.go". Paths with fewer than two components
// are returned unchanged.
func extractFilename(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}
	return path
}


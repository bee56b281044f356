package collector

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const defaultLogLimit = 50

func logLimit() int {
	if v := os.Getenv("CHANNELS_CONSOLE_LOG_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultLogLimit
}

// Collector is the single-writer statistics worker: every state mutation
// funnels through one goroutine so callers never need their own locking.
// Events are pushed onto an unbounded, mutex-guarded queue (its wakeup
// technique is the same close-and-replace-notify-channel idiom used by
// _examples/matgreaves-rig/server/eventlog.go's EventLog) and drained by one
// background goroutine that holds the stats map's write lock only for the
// duration of applying a single event.
type Collector struct {
	nextID uint64 // atomic

	epochOnce sync.Once
	epoch     time.Time

	queueMu sync.Mutex
	queue   []Event
	notify  chan struct{}
	closed  bool

	statsMu sync.RWMutex
	stats   map[uint64]*channelStats

	logOnce sync.Once
}

// New creates a Collector and starts its background draining goroutine.
// Grounded on EventLog's "close and replace a notify channel" pattern. A
// panic in the drain loop is considered fatal for observability only: it is
// logged once and the collector stops accepting events, but the caller's
// own channels keep working unaffected.
func New() *Collector {
	c := &Collector{
		notify: make(chan struct{}),
		stats:  make(map[uint64]*channelStats),
	}
	c.epochOnce.Do(func() { c.epoch = time.Now() })
	go c.run()
	return c
}

// NextID allocates the next monotonically increasing channel id.
func (c *Collector) NextID() uint64 {
	return atomic.AddUint64(&c.nextID, 1)
}

// Now returns nanoseconds elapsed since the collector's epoch, the Go
// analogue of the Rust original's Instant::duration_since(START_TIME).
func (c *Collector) Now() uint64 {
	return uint64(time.Since(c.epoch).Nanoseconds())
}

// Publish enqueues an event for asynchronous processing. It never blocks
// and never returns an error: the calling channel must never observe a
// failure caused by the observation layer. A Publish after the collector's
// drain goroutine has died from a recovered panic is silently dropped,
// matching a closed-collector send.
func (c *Collector) Publish(e Event) {
	c.queueMu.Lock()
	if c.closed {
		c.queueMu.Unlock()
		return
	}
	c.queue = append(c.queue, e)
	ch := c.notify
	c.notify = make(chan struct{})
	c.queueMu.Unlock()
	close(ch)
}

func (c *Collector) run() {
	defer func() {
		if r := recover(); r != nil {
			c.logOnce.Do(func() {
				fmt.Fprintf(os.Stderr, "channels: collector panic, observability disabled: %v\n", r)
			})
			c.queueMu.Lock()
			c.closed = true
			c.queueMu.Unlock()
		}
	}()

	for {
		batch, notify := c.drainReady()
		for _, e := range batch {
			c.apply(e)
		}
		<-notify
	}
}

// drainReady pops every currently queued event and returns the notify
// channel to wait on if the queue was empty.
func (c *Collector) drainReady() ([]Event, <-chan struct{}) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if len(c.queue) == 0 {
		return nil, c.notify
	}
	batch := c.queue
	c.queue = nil
	return batch, c.notify
}

// apply applies a single event to the stats map. Event handling is total:
// every event either updates a known id or is silently dropped, which is
// the defensive behavior if a Created event were ever reordered after
// events for the same id.
func (c *Collector) apply(e Event) {
	limit := logLimit()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	switch e.Kind {
	case EventCreated:
		var iter uint32
		for _, cs := range c.stats {
			if cs.source == e.Source {
				iter++
			}
		}
		c.stats[e.ID] = newChannelStats(e.ID, e.Source, e.Label, e.HasLabel, e.Type, e.TypeName, e.TypeSize, iter)

	case EventMessageSent:
		cs, ok := c.stats[e.ID]
		if !ok {
			return
		}
		cs.sentCount++
		cs.updateState()
		cs.pushSentLog(LogEntry{Index: cs.sentCount, TimestampNs: e.TimestampNs, Message: e.Log, HasMessage: e.HasLog}, limit)

	case EventMessageReceived:
		cs, ok := c.stats[e.ID]
		if !ok {
			return
		}
		cs.receivedCount++
		cs.updateState()
		cs.pushReceivedLog(LogEntry{Index: cs.receivedCount, TimestampNs: e.TimestampNs}, limit)

	case EventClosed:
		if cs, ok := c.stats[e.ID]; ok {
			if cs.state != StateClosed && cs.state != StateNotified {
				cs.state = StateClosed
			}
		}

	case EventNotified:
		if cs, ok := c.stats[e.ID]; ok {
			cs.state = StateNotified
		}
	}
}

// Snapshot returns a sorted clone of every channel's stats: records with an
// explicit label first (alphabetically), then auto-labeled records ordered
// by (source, iter).
func (c *Collector) Snapshot() []SerializableChannelStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	list := make([]*channelStats, 0, len(c.stats))
	for _, cs := range c.stats {
		list = append(list, cs)
	}

	sort.Slice(list, func(i, j int) bool {
		return compareChannelStats(list[i], list[j])
	})

	out := make([]SerializableChannelStats, len(list))
	for i, cs := range list {
		out[i] = cs.toSerializable()
	}
	return out
}

func compareChannelStats(a, b *channelStats) bool {
	switch {
	case a.hasLabel && !b.hasLabel:
		return true
	case !a.hasLabel && b.hasLabel:
		return false
	case a.hasLabel && b.hasLabel:
		if a.label != b.label {
			return a.label < b.label
		}
		return a.iter < b.iter
	default:
		if a.source != b.source {
			return a.source < b.source
		}
		return a.iter < b.iter
	}
}

// Logs returns the sent/received log rings for id, sorted by index
// descending (most recent first), and whether id is known.
func (c *Collector) Logs(id uint64) (ChannelLogs, bool) {
	c.statsMu.RLock()
	cs, ok := c.stats[id]
	if !ok {
		c.statsMu.RUnlock()
		return ChannelLogs{}, false
	}
	sent := append([]LogEntry(nil), cs.sentLogs...)
	received := append([]LogEntry(nil), cs.receivedLogs...)
	c.statsMu.RUnlock()

	sort.Slice(sent, func(i, j int) bool { return sent[i].Index > sent[j].Index })
	sort.Slice(received, func(i, j int) bool { return received[i].Index > received[j].Index })

	return ChannelLogs{ID: id, SentLogs: sent, ReceivedLogs: received}, true
}

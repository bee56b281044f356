package channels

import (
	"context"
	"sync"

	"github.com/matgreaves/run"
	"github.com/tqwewe/channels-console/internal/collector"
)

// boundedProxy holds everything the two forwarder goroutines of one
// instrumented bounded channel share: the auxiliary to_inner/from_inner
// pairs, the original inner pair they relay through, and the one-use
// close-signal from recv-forwarder to send-forwarder.
type boundedProxy[T any] struct {
	id  uint64
	col *collector.Collector
	log func(T) string

	toInnerRx   *BoundedReceiver[T]
	fromInnerTx *BoundedSender[T]
	innerTx     *BoundedSender[T]
	innerRx     *BoundedReceiver[T]

	closeSignal chan struct{}
	closeOnce   sync.Once
}

func (p *boundedProxy[T]) signalClose() {
	p.closeOnce.Do(func() { close(p.closeSignal) })
}

// sendForwarder relays to_inner -> inner_tx. It owns inner_tx: it is the
// only goroutine that ever closes it.
func (p *boundedProxy[T]) sendForwarder(ctx context.Context) error {
	defer func() {
		p.toInnerRx.Close()
		p.innerTx.Close()
		p.col.Publish(collector.Event{Kind: collector.EventClosed, ID: p.id})
	}()

	for {
		var v T
		var ok bool
		select {
		case v, ok = <-p.toInnerRx.ch:
		case <-p.closeSignal:
			return nil
		case <-ctx.Done():
			return nil
		}
		if !ok {
			return nil
		}

		var logMsg string
		var hasLog bool
		if p.log != nil {
			logMsg, hasLog = p.log(v), true
		}

		select {
		case p.innerTx.ch <- v:
			p.col.Publish(collector.Event{
				Kind:        collector.EventMessageSent,
				ID:          p.id,
				Log:         logMsg,
				HasLog:      hasLog,
				TimestampNs: p.col.Now(),
			})
		case <-p.innerTx.recvDone:
			return nil
		case <-p.closeSignal:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// recvForwarder relays inner_rx -> from_inner. It owns from_inner's sender
// and inner_rx: it is the only goroutine that ever closes either.
func (p *boundedProxy[T]) recvForwarder(ctx context.Context) error {
	defer func() {
		p.fromInnerTx.Close()
		p.innerRx.Close()
		p.signalClose()
		p.col.Publish(collector.Event{Kind: collector.EventClosed, ID: p.id})
	}()

	for {
		var v T
		var ok bool
		select {
		case v, ok = <-p.innerRx.ch:
		case <-p.fromInnerTx.recvDone:
			return nil
		case <-ctx.Done():
			return nil
		}
		if !ok {
			return nil
		}

		select {
		case p.fromInnerTx.ch <- v:
			p.col.Publish(collector.Event{Kind: collector.EventMessageReceived, ID: p.id, TimestampNs: p.col.Now()})
		case <-p.fromInnerTx.recvDone:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Instrument wraps an existing bounded channel pair with a transparent
// proxy that records its activity. The caller passes the pair it built
// with NewBounded and uses the returned pair in its place; the original
// pair is then owned exclusively by the two forwarder goroutines.
func Instrument[T any](innerTx *BoundedSender[T], innerRx *BoundedReceiver[T], opts ...Option) (*BoundedSender[T], *BoundedReceiver[T]) {
	o := buildOptions(opts)
	col := global()

	capacity := uint64(innerTx.Cap())
	if o.hasCapacity {
		capacity = o.capacity
	}

	id := col.NextID()
	typeName, typeSize := elemInfo[T]()
	col.Publish(collector.Event{
		Kind:     collector.EventCreated,
		ID:       id,
		Source:   captureSource(&o),
		Label:    o.label,
		HasLabel: o.hasLabel,
		Type:     collector.ChannelType{Kind: collector.KindBounded, Capacity: capacity},
		TypeName: typeName,
		TypeSize: typeSize,
	})

	toInnerTx, toInnerRx := NewBounded[T](capacity)
	fromInnerTx, fromInnerRx := NewBounded[T](capacity)

	p := &boundedProxy[T]{
		id:          id,
		col:         col,
		toInnerRx:   toInnerRx,
		fromInnerTx: fromInnerTx,
		innerTx:     innerTx,
		innerRx:     innerRx,
		closeSignal: make(chan struct{}),
	}
	if render, ok := o.logFunc.(func(T) string); ok {
		p.log = render
	}

	go func() {
		g := run.Group{
			"send": run.Func(p.sendForwarder),
			"recv": run.Func(p.recvForwarder),
		}
		_ = g.Run(context.Background())
	}()

	return toInnerTx, fromInnerRx
}

package channels

import (
	"context"
	"sync"

	"github.com/matgreaves/run"
	"github.com/tqwewe/channels-console/internal/collector"
)

// unboundedProxy is the unbounded analogue of boundedProxy: identical
// structure, except the send-forwarder's inner send never blocks on
// capacity, so it never exerts backpressure — matching the semantics of the
// wrapped primitive.
type unboundedProxy[T any] struct {
	id  uint64
	col *collector.Collector
	log func(T) string

	toInnerRx   *UnboundedReceiver[T]
	fromInnerTx *UnboundedSender[T]
	innerTx     *UnboundedSender[T]
	innerRx     *UnboundedReceiver[T]

	closeSignal chan struct{}
	closeOnce   sync.Once
}

func (p *unboundedProxy[T]) signalClose() {
	p.closeOnce.Do(func() { close(p.closeSignal) })
}

func (p *unboundedProxy[T]) sendForwarder(ctx context.Context) error {
	defer func() {
		p.toInnerRx.Close()
		p.innerTx.Close()
		p.col.Publish(collector.Event{Kind: collector.EventClosed, ID: p.id})
	}()

	// pop blocks on ctx alone; merge in closeSignal by cancelling a derived
	// context when it fires, since unboundedQueue.pop takes only a ctx.
	fwCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.closeSignal:
			cancel()
		case <-fwCtx.Done():
		}
	}()

	for {
		v, ok, err := p.toInnerRx.q.pop(fwCtx)
		if err != nil || !ok {
			return nil
		}

		select {
		case <-p.innerTx.recvDone:
			return nil
		default:
		}
		if !p.innerTx.q.push(v) {
			return nil
		}

		var logMsg string
		var hasLog bool
		if p.log != nil {
			logMsg, hasLog = p.log(v), true
		}
		p.col.Publish(collector.Event{
			Kind:        collector.EventMessageSent,
			ID:          p.id,
			Log:         logMsg,
			HasLog:      hasLog,
			TimestampNs: p.col.Now(),
		})
	}
}

func (p *unboundedProxy[T]) recvForwarder(ctx context.Context) error {
	defer func() {
		p.fromInnerTx.Close()
		p.innerRx.Close()
		p.signalClose()
		p.col.Publish(collector.Event{Kind: collector.EventClosed, ID: p.id})
	}()

	// pop blocks on ctx alone; merge in "from_inner became closed" by
	// cancelling a derived context when it fires, since unboundedQueue.pop
	// takes only a ctx — the same technique sendForwarder uses for
	// closeSignal.
	fwCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.fromInnerTx.recvDone:
			cancel()
		case <-fwCtx.Done():
		}
	}()

	for {
		v, ok, err := p.innerRx.q.pop(fwCtx)
		if err != nil || !ok {
			return nil
		}

		select {
		case <-p.fromInnerTx.recvDone:
			return nil
		default:
		}
		if !p.fromInnerTx.q.push(v) {
			return nil
		}
		p.col.Publish(collector.Event{Kind: collector.EventMessageReceived, ID: p.id, TimestampNs: p.col.Now()})
	}
}

// InstrumentUnbounded wraps an existing unbounded channel pair the same way
// Instrument wraps a bounded one.
func InstrumentUnbounded[T any](innerTx *UnboundedSender[T], innerRx *UnboundedReceiver[T], opts ...Option) (*UnboundedSender[T], *UnboundedReceiver[T]) {
	o := buildOptions(opts)
	col := global()

	id := col.NextID()
	typeName, typeSize := elemInfo[T]()
	col.Publish(collector.Event{
		Kind:     collector.EventCreated,
		ID:       id,
		Source:   captureSource(&o),
		Label:    o.label,
		HasLabel: o.hasLabel,
		Type:     collector.ChannelType{Kind: collector.KindUnbounded},
		TypeName: typeName,
		TypeSize: typeSize,
	})

	toInnerTx, toInnerRx := NewUnbounded[T]()
	fromInnerTx, fromInnerRx := NewUnbounded[T]()

	p := &unboundedProxy[T]{
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

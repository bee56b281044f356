package channels

import (
	"context"
	"sync"

	"github.com/tqwewe/channels-console/internal/collector"
)

// oneshotProxy relays a single value through two auxiliary one-shots that
// sit between the outer pair and the wrapped inner pair: aux1 (outer_tx ->
// outer_rx_proxy), read by the send-forwarder, and aux2 (inner_tx_proxy ->
// outer_rx), written by the recv-forwarder.
type oneshotProxy[T any] struct {
	id  uint64
	col *collector.Collector
	log func(T) string

	aux1Rx *OneshotReceiver[T] // outer_rx_proxy
	aux2Tx *OneshotSender[T]   // inner_tx_proxy

	innerTx *OneshotSender[T]
	innerRx *OneshotReceiver[T]

	closeSignal chan struct{}
	closeOnce   sync.Once
}

func (p *oneshotProxy[T]) signalClose() {
	p.closeOnce.Do(func() { close(p.closeSignal) })
}

// recvForwarder relays inner_rx -> aux2 (inner_tx_proxy). A completed
// one-shot records message_received = true and never emits Closed; an
// aborted one received nothing, signals the send-forwarder, and drops
// inner_rx so any outstanding inner_tx.Send fails.
func (p *oneshotProxy[T]) recvForwarder(ctx context.Context) error {
	received := false
	defer func() {
		if !received {
			p.innerRx.Close()
			p.signalClose()
			p.col.Publish(collector.Event{Kind: collector.EventClosed, ID: p.id})
		}
	}()

	// Merge "aux2's receiver closed" (outer receiver dropped) into ctx,
	// since OneshotReceiver.Recv only watches ctx.Done.
	fwCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.aux2Tx.recvDone:
			cancel()
		case <-fwCtx.Done():
		}
	}()

	v, err := p.innerRx.Recv(fwCtx)
	if err != nil {
		return nil
	}
	if sendErr := p.aux2Tx.Send(v); sendErr != nil {
		return nil
	}
	received = true
	p.col.Publish(collector.Event{Kind: collector.EventMessageReceived, ID: p.id, TimestampNs: p.col.Now()})
	return nil
}

// sendForwarder relays aux1 (outer_rx_proxy) -> inner_tx. A completed
// one-shot records message_sent = true and emits MessageSent then Notified,
// never Closed; an aborted one (close-signal, or outer sender dropped
// before sending) abandons inner_tx and emits Closed.
func (p *oneshotProxy[T]) sendForwarder(ctx context.Context) error {
	sent := false
	defer func() {
		if !sent {
			p.innerTx.Close()
			p.col.Publish(collector.Event{Kind: collector.EventClosed, ID: p.id})
		}
	}()

	fwCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.closeSignal:
			cancel()
		case <-fwCtx.Done():
		}
	}()

	v, err := p.aux1Rx.Recv(fwCtx)
	if err != nil {
		return nil
	}

	var logMsg string
	var hasLog bool
	if p.log != nil {
		logMsg, hasLog = p.log(v), true
	}

	if sendErr := p.innerTx.Send(v); sendErr != nil {
		return nil
	}
	sent = true
	p.col.Publish(collector.Event{
		Kind:        collector.EventMessageSent,
		ID:          p.id,
		Log:         logMsg,
		HasLog:      hasLog,
		TimestampNs: p.col.Now(),
	})
	p.col.Publish(collector.Event{Kind: collector.EventNotified, ID: p.id})
	return nil
}

// InstrumentOneshot wraps an existing one-shot channel pair the same way
// Instrument wraps a bounded one.
func InstrumentOneshot[T any](innerTx *OneshotSender[T], innerRx *OneshotReceiver[T], opts ...Option) (*OneshotSender[T], *OneshotReceiver[T]) {
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
		Type:     collector.ChannelType{Kind: collector.KindOneshot},
		TypeName: typeName,
		TypeSize: typeSize,
	})

	aux1Tx, aux1Rx := NewOneshot[T]()
	aux2Tx, aux2Rx := NewOneshot[T]()

	p := &oneshotProxy[T]{
		id:          id,
		col:         col,
		aux1Rx:      aux1Rx,
		aux2Tx:      aux2Tx,
		innerTx:     innerTx,
		innerRx:     innerRx,
		closeSignal: make(chan struct{}),
	}
	if render, ok := o.logFunc.(func(T) string); ok {
		p.log = render
	}

	// Unlike the bounded/unbounded pairs, the two one-shot forwarders are
	// NOT run under a shared run.Group: a one-shot forwarder normally
	// returns the instant it delivers (not when the channel closes), so
	// run.Group's cancel-the-sibling-on-any-exit behavior would cancel a
	// recv-forwarder that is still mid-flight the moment send-forwarder's
	// single delivery completes, dropping the value. Each forwarder is an
	// independent goroutine instead; the two are coupled only by the
	// explicit signals they already watch for (closeSignal, aux2Tx's
	// receiver-closed), exactly as the original's two independent
	// single-shot tasks are.
	go func() { _ = p.sendForwarder(context.Background()) }()
	go func() { _ = p.recvForwarder(context.Background()) }()

	return aux1Tx, aux2Rx
}

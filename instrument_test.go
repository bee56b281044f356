package channels

import (
	"context"
	"testing"
	"time"

	"github.com/tqwewe/channels-console/internal/collector"
)

// findStat polls the global collector's snapshot for id, retrying briefly
// since forwarding and event application are asynchronous with respect to
// the calling goroutine.
func findStat(t *testing.T, id uint64) collector.SerializableChannelStats {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range global().Snapshot() {
			if s.ID == id {
				return s
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("no stats recorded for id %d", id)
	return collector.SerializableChannelStats{}
}

// idOf returns the highest channel id present in the global snapshot but not
// in before, retrying briefly for the same reason findStat does.
func idOf(t *testing.T, before []collector.SerializableChannelStats) uint64 {
	t.Helper()
	seen := make(map[uint64]bool, len(before))
	for _, s := range before {
		seen[s.ID] = true
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var maxID uint64
		for _, s := range global().Snapshot() {
			if !seen[s.ID] && s.ID > maxID {
				maxID = s.ID
			}
		}
		if maxID != 0 {
			return maxID
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("no new channel id observed")
	return 0
}

// TestInstrument_BoundedBasic exercises a plain instrumented bounded
// round-trip and checks the resulting stats snapshot.
func TestInstrument_BoundedBasic(t *testing.T) {
	before := global().Snapshot()

	innerTx, innerRx := NewBounded[int](10)
	outerTx, outerRx := Instrument(innerTx, innerRx, WithLabel("bounded"))

	ctx := context.Background()
	for _, v := range []int{1, 2, 3} {
		if err := outerTx.Send(ctx, v); err != nil {
			t.Fatalf("Send(%d): %v", v, err)
		}
	}
	for _, want := range []int{1, 2, 3} {
		got, err := outerRx.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv(): %v", err)
		}
		if got != want {
			t.Errorf("Recv() = %d, want %d", got, want)
		}
	}

	id := idOf(t, before)
	var stat collector.SerializableChannelStats
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stat = findStat(t, id)
		if stat.SentCount == 3 && stat.ReceivedCount == 3 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	if stat.ChannelType.String() != "bounded[10]" {
		t.Errorf("ChannelType = %v, want bounded[10]", stat.ChannelType)
	}
	if stat.Label != "bounded" || !stat.HasCustomLabel {
		t.Errorf("Label = %q HasCustomLabel = %v, want \"bounded\" / true", stat.Label, stat.HasCustomLabel)
	}
	if stat.Queued != 0 {
		t.Errorf("Queued = %d, want 0", stat.Queued)
	}
	if stat.State != collector.StateActive {
		t.Errorf("State = %v, want active", stat.State.String())
	}
}

// TestInstrument_ClosurePropagation checks that closing an outer sender
// propagates to a closed state, and that a delivered one-shot settles as
// notified rather than closed.
func TestInstrument_ClosurePropagation(t *testing.T) {
	before := global().Snapshot()

	bTx, bRx := NewBounded[int](1)
	outerBTx, _ := Instrument(bTx, bRx)
	outerBTx.Close()
	bID := idOf(t, before)

	uTx, uRx := NewUnbounded[int]()
	outerUTx, _ := InstrumentUnbounded(uTx, uRx)
	outerUTx.Close()

	mid := global().Snapshot()

	osTx, osRx := NewOneshot[int]()
	outerOsTx, outerOsRx := InstrumentOneshot(osTx, osRx)
	if err := outerOsTx.Send(1); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := outerOsRx.Recv(context.Background()); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	osID := idOf(t, mid)

	os2Tx, os2Rx := NewOneshot[int]()
	outerOs2Tx, _ := InstrumentOneshot(os2Tx, os2Rx)
	outerOs2Tx.Close()

	deadline := time.Now().Add(2 * time.Second)
	var bClosed, osNotified bool
	for time.Now().Before(deadline) && !(bClosed && osNotified) {
		for _, s := range global().Snapshot() {
			if s.ID == bID && s.State == collector.StateClosed {
				bClosed = true
			}
			if s.ID == osID && s.State == collector.StateNotified {
				osNotified = true
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !bClosed {
		t.Error("bounded channel never reached closed state")
	}
	if !osNotified {
		t.Error("delivered one-shot never reached notified state")
	}
}

// TestInstrument_DroppingOuterReceiverClosesInnerReceiver_Bounded exercises
// P7 for the case the recv-forwarder is parked waiting on an inner message
// that never arrives: closing the outer receiver must still unpark it and
// cascade into the inner receiver being dropped, so inner sends start
// observing the receiver is gone rather than leaking the forwarder pair. The
// cascade runs on the forwarder goroutines, so sends are retried until one
// fails.
func TestInstrument_DroppingOuterReceiverClosesInnerReceiver_Bounded(t *testing.T) {
	innerTx, innerRx := NewBounded[int](1)
	_, outerRx := Instrument(innerTx, innerRx, WithCapacity(1))

	outerRx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var err error
	for err == nil {
		err = innerTx.Send(ctx, 1)
	}
	if err != ErrReceiverClosed {
		t.Fatalf("innerTx.Send after outer receiver Close = %v, want ErrReceiverClosed", err)
	}
}

// TestInstrument_DroppingOuterReceiverClosesInnerReceiver_Unbounded is the
// unbounded analogue of the above.
func TestInstrument_DroppingOuterReceiverClosesInnerReceiver_Unbounded(t *testing.T) {
	innerTx, innerRx := NewUnbounded[int]()
	_, outerRx := InstrumentUnbounded(innerTx, innerRx)

	outerRx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var err error
	for err == nil {
		err = innerTx.Send(ctx, 1)
	}
	if err != ErrReceiverClosed {
		t.Fatalf("innerTx.Send after outer receiver Close = %v, want ErrReceiverClosed", err)
	}
}

// TestInstrument_OneshotSendDeliversDespiteSendForwarderExit guards against
// the send-forwarder's completion cancelling a still-in-flight
// recv-forwarder: the outer receiver must observe the delivered value even
// though the send-forwarder returns as soon as it hands the value to
// inner_tx, before the recv-forwarder can possibly have relayed it back out.
func TestInstrument_OneshotSendDeliversDespiteSendForwarderExit(t *testing.T) {
	for i := 0; i < 50; i++ {
		innerTx, innerRx := NewOneshot[int]()
		outerTx, outerRx := InstrumentOneshot(innerTx, innerRx)

		if err := outerTx.Send(i); err != nil {
			t.Fatalf("outerTx.Send(%d): %v", i, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		got, err := outerRx.Recv(ctx)
		cancel()
		if err != nil {
			t.Fatalf("outerRx.Recv() after Send(%d): %v", i, err)
		}
		if got != i {
			t.Errorf("outerRx.Recv() = %d, want %d", got, i)
		}
	}
}

func TestCaptureSource_DefaultsToCallSite(t *testing.T) {
	o := buildOptions(nil)
	src := captureSource(&o)
	if src == "unknown" || src == "" {
		t.Errorf("captureSource = %q, want a file:line default", src)
	}
}

func TestCaptureSource_WithSourceOverrides(t *testing.T) {
	o := buildOptions([]Option{WithSource("custom:1")})
	if got := captureSource(&o); got != "custom:1" {
		t.Errorf("captureSource = %q, want custom:1", got)
	}
}

package channels_test

import (
	"context"
	"testing"

	channels "github.com/tqwewe/channels-console"
)

func TestUnbounded_SendRecvFIFO(t *testing.T) {
	tx, rx := channels.NewUnbounded[int]()
	ctx := context.Background()

	for _, v := range []int{1, 2, 3} {
		if err := tx.Send(ctx, v); err != nil {
			t.Fatalf("Send(%d): %v", v, err)
		}
	}
	if got := rx.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}

	for _, want := range []int{1, 2, 3} {
		got, err := rx.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv(): %v", err)
		}
		if got != want {
			t.Errorf("Recv() = %d, want %d", got, want)
		}
	}
}

func TestUnbounded_NeverBlocksOnCapacity(t *testing.T) {
	tx, _ := channels.NewUnbounded[int]()
	for i := 0; i < 10_000; i++ {
		if !tx.TrySend(i) {
			t.Fatalf("TrySend(%d) = false, want true (unbounded sends never block)", i)
		}
	}
}

func TestUnbounded_CloseSenderSignalsReceiver(t *testing.T) {
	tx, rx := channels.NewUnbounded[int]()
	tx.Send(context.Background(), 1)
	tx.Close()

	if v, err := rx.Recv(context.Background()); err != nil || v != 1 {
		t.Fatalf("Recv() = (%d, %v), want (1, nil)", v, err)
	}
	if _, err := rx.Recv(context.Background()); err != channels.ErrClosed {
		t.Errorf("Recv() after drain+Close = %v, want ErrClosed", err)
	}
}

func TestUnbounded_CloseReceiverSignalsSender(t *testing.T) {
	tx, rx := channels.NewUnbounded[int]()
	rx.Close()

	if err := tx.Send(context.Background(), 1); err != channels.ErrReceiverClosed {
		t.Errorf("Send() after receiver Close = %v, want ErrReceiverClosed", err)
	}
}

package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.NotifySessionClosed("56911111111", "timeout")

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, EVENT_SESSION_CLOSED, ev.Type)
			assert.Equal(t, "56911111111", ev.Contact)
			assert.Equal(t, "timeout", ev.Origin)
			assert.False(t, ev.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("evento não chegou ao inscrito")
		}
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := New()

	ch, cancel := b.Subscribe()
	require.Equal(t, 1, b.Count())

	cancel()
	assert.Equal(t, 0, b.Count())

	_, open := <-ch
	assert.False(t, open)

	// cancelar duas vezes é inofensivo
	cancel()
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()

	_, cancel := b.Subscribe()
	defer cancel()

	// lota o buffer do inscrito que não lê; os excedentes caem
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: EVENT_SESSION_CLOSED})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish bloqueou com inscrito lento")
	}
}

package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeRaisesBelowMinimumCapacity(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe(TopicTurnAdvanced, 1)
	// Fill past the requested (too-small) capacity and confirm both events
	// are still buffered: with a capacity of 1 the second send would have
	// closed the channel, so the second receive would report !ok.
	b.Publish(Event{Topic: TopicTurnAdvanced, Tick: 1})
	b.Publish(Event{Topic: TopicTurnAdvanced, Tick: 2})

	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel must not have been closed by only two sends")
		assert.Equal(t, uint64(1), ev.Tick)
	default:
		t.Fatal("expected the first published event to be buffered")
	}
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "second send must be buffered, not close the channel")
		assert.Equal(t, uint64(2), ev.Tick)
	default:
		t.Fatal("expected the second published event to be buffered")
	}
}

func TestBus_PublishFansOutToAllSubscribersOfTopic(t *testing.T) {
	b := NewBus()
	a := b.Subscribe(TopicActionApplied, minSubscriberBuffer)
	c := b.Subscribe(TopicActionApplied, minSubscriberBuffer)
	other := b.Subscribe(TopicActionFailed, minSubscriberBuffer)

	b.Publish(Event{Topic: TopicActionApplied, Tick: 7})

	for _, ch := range []<-chan Event{a, c} {
		select {
		case ev := <-ch:
			assert.Equal(t, uint64(7), ev.Tick)
		default:
			t.Fatal("expected subscriber of the published topic to receive the event")
		}
	}
	select {
	case <-other:
		t.Fatal("subscriber of a different topic must not receive the event")
	default:
	}
}

func TestBus_FullBufferClosesTheLaggingSubscriber(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe(TopicCheckpoint, minSubscriberBuffer)

	for i := 0; i < minSubscriberBuffer; i++ {
		b.Publish(Event{Topic: TopicCheckpoint, Tick: uint64(i)})
	}
	// The buffer is now full; one more publish must close it rather than
	// block the caller.
	b.Publish(Event{Topic: TopicCheckpoint, Tick: 99999})

	drained := 0
	for range ch {
		drained++
	}
	assert.Equal(t, minSubscriberBuffer, drained, "channel must be closed after exactly the buffered events, with the overflow event dropped")
}

package adminobserver

import (
	"testing"

	"ringhub/server/internal/lobby"
)

func TestFeedPublishesToSubscribers(t *testing.T) {
	f := NewFeed(nil)
	sub := f.subscribe()
	defer f.unsubscribe(sub.id)

	f.PlayerJoined("room-1", "alice")

	select {
	case ev := <-sub.send:
		if ev.Type != EventPlayerJoined || ev.RoomID != "room-1" || ev.PlayerID != "alice" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestFeedDropsEventsForBackedUpSubscriber(t *testing.T) {
	f := NewFeed(nil)
	sub := f.subscribe()
	defer f.unsubscribe(sub.id)

	for i := 0; i < subscriberBuffer+10; i++ {
		f.PlayerLeft("room-1", "bob")
	}

	count := 0
	for {
		select {
		case <-sub.send:
			count++
			continue
		default:
		}
		break
	}
	if count != subscriberBuffer {
		t.Fatalf("expected exactly %d buffered events, got %d", subscriberBuffer, count)
	}
}

func TestFeedUnsubscribeStopsDelivery(t *testing.T) {
	f := NewFeed(nil)
	sub := f.subscribe()
	f.unsubscribe(sub.id)

	f.RoomDestroyed("room-1")

	if _, ok := <-sub.send; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

func TestFeedImplementsLobbyObserver(t *testing.T) {
	var _ lobby.Observer = NewFeed(nil)
}

package events

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 1)

	bus.Subscribe(EventSignalGenerated, func(e Event) {
		got <- e
	})

	bus.PublishSignal("technical", "BTC/USDT", "BUY", 50000, 4, 49000, 52000)

	e := waitFor(t, got)
	if e.Type != EventSignalGenerated {
		t.Errorf("type = %s, want %s", e.Type, EventSignalGenerated)
	}
	if e.Data["pair"] != "BTC/USDT" || e.Data["action"] != "BUY" {
		t.Errorf("unexpected payload: %v", e.Data)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set on publish")
	}
}

func TestSubscribeDoesNotReceiveOtherTypes(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 1)

	bus.Subscribe(EventTradeClosed, func(e Event) {
		got <- e
	})

	bus.PublishPriceUpdate("BTC/USDT", 50000)

	select {
	case e := <-got:
		t.Errorf("received unexpected event %s", e.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 2)

	bus.SubscribeAll(func(e Event) {
		got <- e
	})

	bus.PublishPriceUpdate("BTC/USDT", 50000)
	bus.PublishError("test", "boom", nil)

	seen := map[EventType]bool{}
	seen[waitFor(t, got).Type] = true
	seen[waitFor(t, got).Type] = true

	if !seen[EventPriceUpdate] || !seen[EventError] {
		t.Errorf("expected both event types, got %v", seen)
	}
}

func TestPublishTradeClosedPayload(t *testing.T) {
	bus := NewEventBus()
	got := make(chan Event, 1)

	bus.Subscribe(EventTradeClosed, func(e Event) {
		got <- e
	})

	bus.PublishTradeClosed(7, "ETH/USDT", 3000, 3100, 5, 3.33, "TAKE_PROFIT")

	e := waitFor(t, got)
	if e.Data["trade_id"] != int64(7) {
		t.Errorf("trade_id = %v, want 7", e.Data["trade_id"])
	}
	if e.Data["reason"] != "TAKE_PROFIT" {
		t.Errorf("reason = %v", e.Data["reason"])
	}
}

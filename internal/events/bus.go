package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSignalGenerated    EventType = "SIGNAL_GENERATED"
	EventSignalRejected     EventType = "SIGNAL_REJECTED"
	EventTradeOpened        EventType = "TRADE_OPENED"
	EventTradeClosed        EventType = "TRADE_CLOSED"
	EventPriceUpdate        EventType = "PRICE_UPDATE"
	EventTickUpdate         EventType = "TICK_UPDATE"
	EventStrategiesReloaded EventType = "STRATEGIES_RELOADED"
	EventBotStarted         EventType = "BOT_STARTED"
	EventBotStopped         EventType = "BOT_STOPPED"
	EventError              EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Subscribers run in their own
// goroutines so a slow consumer cannot stall the publisher.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishSignal publishes a signal generated event
func (eb *EventBus) PublishSignal(strategy, pair, action string, price float64, confidence int, stopLoss, takeProfit float64) {
	eb.Publish(Event{
		Type: EventSignalGenerated,
		Data: map[string]interface{}{
			"strategy":    strategy,
			"pair":        pair,
			"action":      action,
			"price":       price,
			"confidence":  confidence,
			"stop_loss":   stopLoss,
			"take_profit": takeProfit,
		},
	})
}

// PublishTradeOpened publishes a trade opened event
func (eb *EventBus) PublishTradeOpened(tradeID int64, pair, action string, entryPrice, quantity float64) {
	eb.Publish(Event{
		Type: EventTradeOpened,
		Data: map[string]interface{}{
			"trade_id":    tradeID,
			"pair":        pair,
			"action":      action,
			"entry_price": entryPrice,
			"quantity":    quantity,
		},
	})
}

// PublishTradeClosed publishes a trade closed event
func (eb *EventBus) PublishTradeClosed(tradeID int64, pair string, entryPrice, exitPrice, pnl, pnlPercent float64, reason string) {
	eb.Publish(Event{
		Type: EventTradeClosed,
		Data: map[string]interface{}{
			"trade_id":    tradeID,
			"pair":        pair,
			"entry_price": entryPrice,
			"exit_price":  exitPrice,
			"pnl":         pnl,
			"pnl_percent": pnlPercent,
			"reason":      reason,
		},
	})
}

// PublishPriceUpdate publishes a price update event
func (eb *EventBus) PublishPriceUpdate(pair string, price float64) {
	eb.Publish(Event{
		Type: EventPriceUpdate,
		Data: map[string]interface{}{
			"pair":  pair,
			"price": price,
		},
	})
}

// PublishTickUpdate publishes a scan cycle summary event
func (eb *EventBus) PublishTickUpdate(pair string, price float64, openTrades int, balance float64) {
	eb.Publish(Event{
		Type: EventTickUpdate,
		Data: map[string]interface{}{
			"pair":        pair,
			"price":       price,
			"open_trades": openTrades,
			"balance":     balance,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}

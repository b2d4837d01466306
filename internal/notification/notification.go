package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crypto-mentor-bot/config"
	"crypto-mentor-bot/internal/events"
	"crypto-mentor-bot/internal/logging"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotifySignal     NotificationType = "signal"
	NotifyTradeOpen  NotificationType = "trade_open"
	NotifyTradeClose NotificationType = "trade_close"
	NotifyError      NotificationType = "error"
	NotifyInfo       NotificationType = "info"
)

// Notification represents a notification message
type Notification struct {
	Type       NotificationType
	Title      string
	Message    string
	Pair       string
	Price      float64
	PnL        float64
	PnLPercent float64
	Timestamp  time.Time
}

// Notifier interface for different notification providers
type Notifier interface {
	Send(notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager fans notifications out to the configured providers.
type Manager struct {
	notifiers []Notifier
	enabled   bool
	log       *logging.Logger
}

// NewManager builds a manager with the providers enabled in config.
func NewManager(cfg config.NotificationConfig, log *logging.Logger) *Manager {
	m := &Manager{
		enabled: cfg.Enabled,
		log:     log.WithComponent("notification"),
	}
	m.AddNotifier(NewTelegramNotifier(cfg.Telegram))
	m.AddNotifier(NewDiscordNotifier(cfg.Discord))
	return m
}

// AddNotifier adds a notification provider
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send sends a notification to all enabled providers
func (m *Manager) Send(notification *Notification) error {
	if !m.enabled {
		return nil
	}

	var lastErr error
	for _, n := range m.notifiers {
		if n.IsEnabled() {
			if err := n.Send(notification); err != nil {
				m.log.Warn("notification delivery failed", "provider", n.Name(), "error", err)
				lastErr = err
			}
		}
	}
	return lastErr
}

// SubscribeToBus wires the manager to the event bus so signals and trade
// lifecycle events reach the user's channels automatically.
func (m *Manager) SubscribeToBus(bus *events.EventBus) {
	bus.Subscribe(events.EventSignalGenerated, func(e events.Event) {
		m.SendSignal(
			str(e.Data, "pair"), str(e.Data, "action"),
			num(e.Data, "price"), num(e.Data, "stop_loss"), num(e.Data, "take_profit"),
			int(num(e.Data, "confidence")),
		)
	})
	bus.Subscribe(events.EventTradeOpened, func(e events.Event) {
		m.SendTradeOpen(str(e.Data, "pair"), str(e.Data, "action"),
			num(e.Data, "entry_price"), num(e.Data, "quantity"))
	})
	bus.Subscribe(events.EventTradeClosed, func(e events.Event) {
		m.SendTradeClose(str(e.Data, "pair"),
			num(e.Data, "entry_price"), num(e.Data, "exit_price"),
			num(e.Data, "pnl"), num(e.Data, "pnl_percent"), str(e.Data, "reason"))
	})
}

// SendSignal sends a trading signal notification
func (m *Manager) SendSignal(pair, side string, price, stopLoss, takeProfit float64, confidence int) error {
	return m.Send(&Notification{
		Type:  NotifySignal,
		Title: fmt.Sprintf("Signal: %s %s", side, pair),
		Message: fmt.Sprintf("%s %s @ %.2f\nConfidence: %d/5\nSL: %.2f | TP: %.2f",
			side, pair, price, confidence, stopLoss, takeProfit),
		Pair:      pair,
		Price:     price,
		Timestamp: time.Now(),
	})
}

// SendTradeOpen sends a trade opened notification
func (m *Manager) SendTradeOpen(pair, side string, price, quantity float64) error {
	return m.Send(&Notification{
		Type:      NotifyTradeOpen,
		Title:     fmt.Sprintf("Paper Trade Opened: %s", pair),
		Message:   fmt.Sprintf("%s %s\nPrice: %.2f\nQuantity: %.8f", side, pair, price, quantity),
		Pair:      pair,
		Price:     price,
		Timestamp: time.Now(),
	})
}

// SendTradeClose sends a trade closed notification
func (m *Manager) SendTradeClose(pair string, entryPrice, exitPrice, pnl, pnlPercent float64, reason string) error {
	outcome := "PROFIT"
	if pnl < 0 {
		outcome = "LOSS"
	}

	return m.Send(&Notification{
		Type:  NotifyTradeClose,
		Title: fmt.Sprintf("Paper Trade Closed (%s): %s", outcome, pair),
		Message: fmt.Sprintf("Entry: %.2f -> Exit: %.2f\nP&L: %.2f (%.2f%%)\nReason: %s",
			entryPrice, exitPrice, pnl, pnlPercent, reason),
		Pair:       pair,
		Price:      exitPrice,
		PnL:        pnl,
		PnLPercent: pnlPercent,
		Timestamp:  time.Now(),
	})
}

// SendError sends an error notification
func (m *Manager) SendError(title, message string) error {
	return m.Send(&Notification{
		Type:      NotifyError,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func str(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func num(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

// TelegramNotifier sends notifications via Telegram
type TelegramNotifier struct {
	botToken string
	chatID   string
	enabled  bool
	client   *http.Client
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		enabled:  cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != "",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

func (t *TelegramNotifier) Send(notification *Notification) error {
	if !t.enabled {
		return nil
	}

	message := fmt.Sprintf("*%s*\n\n%s", notification.Title, notification.Message)

	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       message,
		"parse_mode": "Markdown",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// =============================================================================
// DISCORD NOTIFIER
// =============================================================================

// DiscordNotifier sends notifications via Discord webhook
type DiscordNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewDiscordNotifier creates a new Discord notifier
func NewDiscordNotifier(cfg config.DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled && cfg.WebhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string {
	return "discord"
}

func (d *DiscordNotifier) IsEnabled() bool {
	return d.enabled
}

func (d *DiscordNotifier) Send(notification *Notification) error {
	if !d.enabled {
		return nil
	}

	color := 0x00FF00 // Green
	if notification.Type == NotifyError {
		color = 0xFF0000
	} else if notification.Type == NotifyTradeClose && notification.PnL < 0 {
		color = 0xFF0000
	}

	embed := map[string]interface{}{
		"title":       notification.Title,
		"description": notification.Message,
		"color":       color,
		"timestamp":   notification.Timestamp.Format(time.RFC3339),
	}

	if notification.Pair != "" {
		fields := []map[string]interface{}{
			{"name": "Pair", "value": notification.Pair, "inline": true},
		}
		if notification.Price > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Price", "value": fmt.Sprintf("%.2f", notification.Price), "inline": true,
			})
		}
		if notification.PnL != 0 {
			fields = append(fields, map[string]interface{}{
				"name": "P&L", "value": fmt.Sprintf("%.2f (%.2f%%)", notification.PnL, notification.PnLPercent), "inline": true,
			})
		}
		embed["fields"] = fields
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}

	return nil
}

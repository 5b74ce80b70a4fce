// Package notification delivers alerts (sentiment shifts, stream errors) to
// external channels: the log, generic webhooks and Telegram.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stock-analytics/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent. From, To, Score and Price are
// set for sentiment shifts only.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Symbol  string     `json:"symbol,omitempty"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	From    string     `json:"from,omitempty"`
	To      string     `json:"to,omitempty"`
	Score   float64    `json:"score,omitempty"`
	Price   float64    `json:"price,omitempty"`
	Time    time.Time  `json:"ts"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans an alert out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SentimentShift builds the alert for a live sentiment bucket change.
// Moves into a strong bucket are warnings.
func SentimentShift(symbol string, from, to model.Sentiment, price float64) Alert {
	level := AlertInfo
	if to.Class == "bullish" || to.Class == "bearish" {
		level = AlertWarning
	}
	return Alert{
		Level:  level,
		Symbol: symbol,
		Title:  fmt.Sprintf("%s sentiment: %s", symbol, to.Label),
		Message: fmt.Sprintf("%s -> %s (5-bar change %.2f%%, last price %.2f)",
			from.Label, to.Label, to.Score, price),
		From:  from.Class,
		To:    to.Class,
		Score: to.Score,
		Price: price,
		Time:  time.Now().UTC(),
	}
}

package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NotificationSubject is the per-user subject push notifications go to.
func NotificationSubject(userID string) string {
	return "notifications." + userID
}

// Push is the payload of a push notification.
type Push struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// Notifier implements ports.NotificationService over core NATS. Connected
// WebSocket clients of the user receive the message; nothing is stored.
type Notifier struct {
	conn *nats.Conn
}

func NewNotifier(conn *nats.Conn) *Notifier {
	return &Notifier{conn: conn}
}

func (n *Notifier) SendPush(ctx context.Context, userID, title, body string) error {
	data, err := json.Marshal(Push{Type: "notification", UserID: userID, Title: title, Body: body, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := n.conn.Publish(NotificationSubject(userID), data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return n.conn.FlushWithContext(ctx)
}

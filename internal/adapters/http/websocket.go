package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/marcdasilva/passtheplate/internal/adapters/nats"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const (
	defaultChannel = "donations"
	wsPingInterval = 30 * time.Second
)

// channelSubjects maps public feed channels to their event subjects.
var channelSubjects = map[string]string{
	"donations":   "donations.>",
	"requests":    "requests.>",
	"predictions": "predictions.>",
	"payments":    "payments.>",
}

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // donations | requests | predictions | payments | notifications
}

// resolveChannel returns the subject for a channel. The notifications
// channel needs an authenticated user.
func resolveChannel(channel, userID string) (string, string) {
	if channel == "" {
		channel = defaultChannel
	}
	if channel == "notifications" {
		if userID == "" {
			return "", "notifications require a token"
		}
		return natsadapter.NotificationSubject(userID), ""
	}
	subject, ok := channelSubjects[channel]
	if !ok {
		return "", "unknown channel: " + channel
	}
	return subject, ""
}

// WebSocketHandler relays live map events from NATS to connected clients.
// Clients are subscribed to donations on connect, plus their own
// notifications when the upgrade request carried a valid token. They send
// {"action":"subscribe","channel":"requests"} to change feeds.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		userID, _ := c.Locals(userIDLocal).(string)
		log := slog.Default().With("remote", c.RemoteAddr().String(), "user_id", userID)
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "live feed unavailable"})
			return
		}

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}
		subscribe := func(subject string) error {
			s, err := nc.Subscribe(subject, relay)
			if err != nil {
				return err
			}
			subs[subject] = s
			return nil
		}

		defaults := []string{channelSubjects[defaultChannel]}
		if userID != "" {
			defaults = append(defaults, natsadapter.NotificationSubject(userID))
		}
		for _, subject := range defaults {
			if err := subscribe(subject); err != nil {
				log.Error("ws default subscribe", "subject", subject, "error", err)
				return
			}
		}

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, problem := resolveChannel(m.Channel, userID)
			if problem != "" {
				_ = writeJSON(map[string]string{"error": problem})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				if err := subscribe(subject); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}

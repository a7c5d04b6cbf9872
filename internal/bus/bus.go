// Package bus mirrors session events to an external hub over websocket.
// The mirror is strictly observational: the session loop never waits on
// it and a publish failure only logs.
package bus

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one session observation on the wire.
type Event struct {
	Source string    `json:"source"`
	Kind   string    `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Turns  int       `json:"turns,omitempty"`
	Cost   float64   `json:"cost,omitempty"`
	At     time.Time `json:"at"`
}

type Bus struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func Dial(wsURL string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	slog.Info("Connected to hub", "url", wsURL)
	return &Bus{conn: conn}, nil
}

func (b *Bus) Publish(e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Close()
}

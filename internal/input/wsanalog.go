package input

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// AnalogMessage is one sample on the wire.
type AnalogMessage struct {
	Channels []float64 `json:"channels"`
}

// WSAnalogSource receives analog samples from a websocket server. A
// background reader queues samples; Mainloop drains the queue on the
// control thread.
type WSAnalogSource struct {
	url  string
	conn *websocket.Conn

	mu      sync.Mutex
	samples [][]float64
	err     error

	done chan struct{}
}

// DialAnalog connects to url, e.g. "ws://tracker:3883/Wand0".
func DialAnalog(ctx context.Context, url string) (*WSAnalogSource, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial analog %s: %w", url, err)
	}
	s := &WSAnalogSource{url: url, conn: conn, done: make(chan struct{})}
	go s.read()
	return s, nil
}

func (s *WSAnalogSource) read() {
	defer close(s.done)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				s.fail(fmt.Errorf("read analog %s: %w", s.url, err))
			}
			return
		}
		var m AnalogMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			slog.Debug("dropping malformed analog sample", "url", s.url, "error", err)
			continue
		}
		s.mu.Lock()
		s.samples = append(s.samples, m.Channels)
		s.mu.Unlock()
	}
}

func (s *WSAnalogSource) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Mainloop delivers queued samples in arrival order.
func (s *WSAnalogSource) Mainloop(handler func(channels []float64)) error {
	s.mu.Lock()
	samples := s.samples
	s.samples = nil
	err := s.err
	s.mu.Unlock()

	for _, ch := range samples {
		handler(ch)
	}
	return err
}

// Close sends a close frame, closes the connection and waits for the
// reader to exit.
func (s *WSAnalogSource) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := s.conn.Close()
	<-s.done
	return err
}

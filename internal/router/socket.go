package router

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/conneroisu/viewnav/internal/logging"
)

// Message types exchanged with socket clients.
const (
	MessageNavigate = "navigate"
	MessageRoute    = "route"
)

// Message is the JSON frame exchanged with socket clients. Clients send
// navigate messages; the router broadcasts route messages.
type Message struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Socket shares the current path with browser clients over websockets.
type Socket struct {
	onChange ChangeFunc
	logger   logging.Logger

	mu      sync.RWMutex
	current string

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]context.CancelFunc
	closed    bool
}

func NewSocket(onChange ChangeFunc, logger logging.Logger) *Socket {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Socket{
		onChange: onChange,
		logger:   logger,
		clients:  make(map[*websocket.Conn]context.CancelFunc),
	}
}

func (s *Socket) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set stores path and broadcasts it to every client.
func (s *Socket) Set(path string, opts SetOptions) {
	s.mu.Lock()
	s.current = path
	s.mu.Unlock()

	s.broadcast(Message{Type: MessageRoute, Path: path})
	if !opts.Silent {
		notify(s.onChange, path)
	}
}

// Clients returns the number of connected clients.
func (s *Socket) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// Handler accepts websocket clients.
func (s *Socket) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

func (s *Socket) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.clientsMu.Lock()
	if s.closed {
		s.clientsMu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "router closed")
		return
	}
	s.clients[conn] = cancel
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	s.logger.Debug(ctx, "socket client connected", "remote", r.RemoteAddr)

	// new clients learn the current path
	if current := s.Get(); current != "" {
		if err := s.write(ctx, conn, Message{Type: MessageRoute, Path: current}); err != nil {
			return
		}
	}

	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				s.logger.Warn(ctx, err, "socket read failed")
			}
			return
		}
		if msg.Type != MessageNavigate || msg.Path == "" {
			continue
		}

		s.mu.Lock()
		changed := s.current != msg.Path
		s.current = msg.Path
		s.mu.Unlock()

		if changed {
			notify(s.onChange, msg.Path)
		}
	}
}

func (s *Socket) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func (s *Socket) broadcast(msg Message) {
	s.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clientsMu.Unlock()

	for _, conn := range conns {
		if err := s.write(context.Background(), conn, msg); err != nil {
			s.logger.Warn(context.Background(), err, "socket broadcast failed")
		}
	}
}

// Close disconnects every client.
func (s *Socket) Close() error {
	s.clientsMu.Lock()
	s.closed = true
	clients := make(map[*websocket.Conn]context.CancelFunc, len(s.clients))
	for conn, cancel := range s.clients {
		clients[conn] = cancel
	}
	s.clientsMu.Unlock()

	for conn, cancel := range clients {
		_ = conn.Close(websocket.StatusGoingAway, "router closed")
		cancel()
	}
	return nil
}

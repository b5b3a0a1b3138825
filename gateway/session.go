package gateway

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Session is one authenticated WebSocket connection. Writes are
// serialized through Send, which holds writeMu, since gorilla/websocket connections are not
// safe for concurrent writers.
type Session struct {
	Addr     string
	Username string
	conn     *websocket.Conn
	writeMu  sync.Mutex
}

func newSession(addr, username string, conn *websocket.Conn) *Session {
	return &Session{Addr: addr, Username: username, conn: conn}
}

// Send writes one text frame to the session's connection.
func (s *Session) Send(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close terminates the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

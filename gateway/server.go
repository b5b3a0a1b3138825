package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/zap"
	"github.com/gorilla/websocket"

	"github.com/kelpbot/engine/common/graceful"
	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/common/network"
)

const (
	heartbeatPing = "💓"
	heartbeatPong = "👀"
)

// Inbound is one message read from an authenticated session, handed to
// the engine for dispatch.
type Inbound struct {
	Username string
	Addr     string
	Payload  string
}

// wireAuthMsg is the JSON shape a client sends before authentication.
type wireAuthMsg struct {
	Kind string `json:"kind"`
	User string `json:"user,omitempty"`
	Code string `json:"code,omitempty"`
}

// wireAuthResp is the JSON shape sent back during the handshake.
type wireAuthResp struct {
	Kind  string   `json:"kind"`
	Users []string `json:"users,omitempty"`
	User  string   `json:"user,omitempty"`
}

var authRespNames = map[AuthRespKind]string{
	AuthRespUsers:       "users",
	AuthRespInvalidUser: "invalid_user",
	AuthRespCodeReady:   "code_ready",
	AuthRespCodeExpired: "code_expired",
	AuthRespSuccess:     "auth_success",
	AuthRespFail:        "auth_fail",
	AuthRespRatelimited: "ratelimited",
	AuthRespServerError: "server_error",
}

// Server upgrades HTTP connections to authenticated WebSocket sessions.
type Server struct {
	Hub     *Hub
	Auth    *Authenticator
	Origins []string
	Inbound chan<- Inbound

	upgrader websocket.Upgrader
}

// NewServer builds a Server. origins lists the hostnames (no scheme/port)
// allowed to open a session, matching the original's literal allowlist
// plus CIDR-style LAN prefixes.
func NewServer(hub *Hub, auth *Authenticator, origins []string, inbound chan<- Inbound) *Server {
	s := &Server{Hub: hub, Auth: auth, Origins: origins, Inbound: inbound}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	host := origin
	if idx := strings.Index(origin, "://"); idx >= 0 {
		host = origin[idx+3:]
	}
	host = strings.Split(host, ":")[0]

	for _, allowed := range s.Origins {
		if host == allowed {
			return true
		}
		if strings.HasSuffix(allowed, ".") && strings.HasPrefix(host, allowed) {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the connection and runs its handshake and read pump.
// Both block until the session ends, so callers invoke this in its own
// goroutine per connection (net/http already does this per request).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	peerIP := network.RealIP(r)
	ctx := r.Context()

	username, ok := s.handshake(ctx, conn, peerIP)
	if !ok {
		return
	}

	end := graceful.BeginSession()
	defer end()

	session := newSession(r.RemoteAddr, username, conn)
	s.Hub.Register(session)
	defer s.Hub.Unregister(session.Addr)

	s.readPump(conn, session)
}

// handshake runs the pre-auth ListUsers/RequestCode/Login loop and the
// heartbeat tokens that can interleave with it, returning the
// authenticated username once Login succeeds.
func (s *Server) handshake(ctx context.Context, conn *websocket.Conn, peerIP string) (string, bool) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return "", false
		}
		text := string(raw)

		if text == heartbeatPing {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(heartbeatPong)); err != nil {
				return "", false
			}
			continue
		}

		var in wireAuthMsg
		if err := json.Unmarshal(raw, &in); err != nil {
			logger.Logger.Debug("malformed auth handshake message", zap.Error(err))
			continue
		}

		msg, ok := decodeAuthMsg(in)
		if !ok {
			continue
		}

		resp, err := s.Auth.Handle(ctx, peerIP, msg)
		if err != nil {
			logger.Logger.Error("auth handshake failed", zap.Error(err))
			continue
		}

		out, err := json.Marshal(wireAuthResp{Kind: authRespNames[resp.Kind], Users: resp.Users, User: resp.User})
		if err != nil {
			return "", false
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return "", false
		}

		if resp.Kind == AuthRespSuccess {
			return resp.User, true
		}
	}
}

func decodeAuthMsg(in wireAuthMsg) (AuthMsg, bool) {
	switch in.Kind {
	case "list_users":
		return AuthMsg{Kind: AuthListUsers}, true
	case "request_code":
		return AuthMsg{Kind: AuthRequestCode, User: in.User}, true
	case "login":
		return AuthMsg{Kind: AuthLogin, User: in.User, Code: in.Code}, true
	default:
		return AuthMsg{}, false
	}
}

// readPump forwards every post-auth text frame to Inbound, answering
// heartbeats directly without involving the engine.
func (s *Server) readPump(conn *websocket.Conn, session *Session) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		text := string(raw)
		if text == heartbeatPing {
			if err := session.Send([]byte(heartbeatPong)); err != nil {
				return
			}
			continue
		}

		select {
		case s.Inbound <- Inbound{Username: session.Username, Addr: session.Addr, Payload: text}:
		default:
			logger.Logger.Warn("dropping inbound gateway message, engine queue full",
				zap.String("addr", session.Addr))
		}
	}
}

// HeartbeatInterval is not read by readPump; it records the expected
// client cadence of one 💓 every 30s. No read deadline is set on the
// connection, so a session that stops sending is dropped only once
// ReadMessage returns an error (for example on a closed TCP connection).
const HeartbeatInterval = 30 * time.Second

package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Client-originated message types.
const (
	msgJoin     = "join"
	msgChatSend = "chat:send"
)

type clientMessage struct {
	T    string `json:"t"`
	Room string `json:"room"`
	Text string `json:"text"`
}

// Server runs admission checks against each websocket handshake, upgrades
// admitted connections and drives their read loops.
type Server struct {
	Hub      *Hub
	Checks   []Check
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, checks ...Check) *Server {
	return &Server{
		Hub:    hub,
		Checks: checks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers from any origin may connect; auth is the token.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS is the websocket endpoint. A rejected connection never upgrades
// and receives only the reason string.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	sess := &Session{}
	for _, check := range s.Checks {
		if rej := check(r.Context(), r, sess); rej != nil {
			http.Error(w, rej.Reason, rej.Status)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	c := &client{conn: conn, subject: sess.Subject, rooms: make(map[string]struct{})}
	s.Hub.add(c)
	go s.readLoop(c)
}

// readLoop consumes client frames until the transport closes, at which
// point the connection and its room memberships are discarded.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.Hub.remove(c)
		_ = c.conn.Close()
	}()
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue // ignore malformed frames
		}
		switch msg.T {
		case msgJoin:
			if msg.Room != "" {
				s.Hub.join(c, msg.Room)
			}
		case msgChatSend:
			if msg.Room == "" {
				continue
			}
			s.Hub.ToRoom(msg.Room, EventChatMessage, ChatMessage{
				Room: msg.Room,
				User: systemSender,
				Text: msg.Text,
				At:   time.Now().UTC(),
			})
		}
	}
}

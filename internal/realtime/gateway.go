package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"echochat/internal/common"
	"echochat/internal/config"
)

// Gateway owns the websocket endpoint: handshake auth, the per-connection
// read/write pumps and the heartbeat. The read goroutine dispatches inbound
// events; the write goroutine drains the connection's send channel back to
// the browser. Separating the two avoids head-of-line blocking when a
// browser is slow.
type Gateway struct {
	registry *Registry
	relay    *MessageRelay
	typing   *TypingCoordinator
	rt       config.RealtimeConfig
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewGateway(registry *Registry, relay *MessageRelay, typing *TypingCoordinator, cfg *config.Config, log *logrus.Logger) *Gateway {
	allowed := cfg.Server.AllowedOrigins
	return &Gateway{
		registry: registry,
		relay:    relay,
		typing:   typing,
		rt:       cfg.Realtime,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range allowed {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// ServeWS handles the handshake. The credential rides the upgrade request
// and is checked before the upgrade, so a bad token gets a plain 401 and no
// Connection ever exists for it.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.registry.Admit(common.BearerToken(r))
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error; roll the admission back.
		g.registry.Remove(conn.ID)
		return
	}

	g.log.WithFields(logrus.Fields{
		"connection_id": conn.ID,
		"user_id":       conn.UserID,
		"remote":        r.RemoteAddr,
	}).Info("websocket connected")

	go g.writePump(conn, ws)
	go g.readPump(conn, ws)
}

// readPump is the connection's inbound loop. Any read error (explicit
// close, network drop, heartbeat timeout) lands here and triggers Remove,
// so a lost "disconnect" frame cannot leak a connection.
func (g *Gateway) readPump(conn *Connection, ws *websocket.Conn) {
	defer func() {
		g.registry.Remove(conn.ID)
		ws.Close()
		g.log.WithFields(logrus.Fields{
			"connection_id": conn.ID,
			"user_id":       conn.UserID,
		}).Info("websocket disconnected")
	}()

	ws.SetReadLimit(g.rt.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(g.rt.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(g.rt.PongWait))
	})

	for {
		var ev ClientEvent
		if err := ws.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.WithField("connection_id", conn.ID).WithError(err).Debug("read error")
			}
			return
		}
		g.dispatch(conn, ev)
	}
}

// dispatch routes one inbound event. The event set is a closed enum; a new
// event type means a new case here, checked at review time, not a
// string-keyed registration at runtime.
func (g *Gateway) dispatch(conn *Connection, ev ClientEvent) {
	switch ev.Type {
	case EventTyping:
		g.typing.StartTyping(conn.UserID, ev.ToUserID)

	case EventStopTyping:
		g.typing.StopTyping(conn.UserID, ev.ToUserID)

	case EventSend:
		msg, err := g.relay.Send(context.Background(), conn, ev.ToUserID, ev.Text, ev.MediaRef)
		if err != nil {
			// Only the sender hears about the failure; nothing was pushed.
			conn.Push(ServerEvent{
				Type:      EventSendError,
				ClientTag: ev.ClientTag,
				Error:     err.Error(),
			})
			return
		}
		conn.Push(ServerEvent{
			Type:      EventMessageSent,
			Message:   msg,
			ClientTag: ev.ClientTag,
		})

	default:
		g.log.WithFields(logrus.Fields{
			"connection_id": conn.ID,
			"event":         ev.Type,
		}).Warn("unknown event type dropped")
	}
}

func (g *Gateway) writePump(conn *Connection, ws *websocket.Conn) {
	ticker := time.NewTicker(g.rt.PingInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case ev, ok := <-conn.Events():
			ws.SetWriteDeadline(time.Now().Add(g.rt.WriteWait))
			if !ok {
				// Registry removed the connection.
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(g.rt.WriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

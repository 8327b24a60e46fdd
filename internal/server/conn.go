package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Conn pumps one WebSocket connection. Any inbound frame counts as proof of
// life; a connection silent for PongTimeout is closed and reported to the
// coordinator exactly once.
type Conn struct {
	ws      *websocket.Conn
	session *multiplayer.ChannelSession
	coord   Coordinator
	cfg     Config
	log     *log.Logger

	disconnectOnce sync.Once
}

func newConn(ws *websocket.Conn, sess *multiplayer.ChannelSession, coord Coordinator, cfg Config, logger *log.Logger) *Conn {
	return &Conn{
		ws:      ws,
		session: sess,
		coord:   coord,
		cfg:     cfg,
		log:     logger,
	}
}

// readPump forwards decoded frames to the coordinator until the socket
// fails or the liveness deadline passes.
func (c *Conn) readPump() {
	defer c.disconnect()

	c.ws.SetReadLimit(c.cfg.MaxMessageBytes)
	c.touch()
	c.ws.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				c.log.Info("liveness timeout", "session", c.session.ID())
			case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.log.Debug("read failed", "session", c.session.ID(), "err", err)
			}
			return
		}
		c.touch()

		msg, err := protocol.Decode(data)
		if err != nil {
			c.session.Send(protocol.Error{Message: err.Error()})
			continue
		}
		c.coord.Send(multiplayer.ClientMsg{SessionID: c.session.ID(), Msg: msg})
	}
}

// writePump drains the session queue and pings the client. When the
// session ends it flushes what is queued and sends the close frame.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.session.Messages():
			if err := c.write(msg); err != nil {
				c.log.Debug("write failed", "session", c.session.ID(), "err", err)
				c.disconnect()
				return
			}
		case now := <-ticker.C:
			if err := c.write(protocol.Ping{Timestamp: now.UnixMilli()}); err != nil {
				c.disconnect()
				return
			}
		case <-c.session.Done():
			c.flush()
			code, reason := c.session.CloseStatus()
			frame := websocket.FormatCloseMessage(code, reason)
			if err := c.ws.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("close frame not sent", "session", c.session.ID(), "err", err)
			}
			return
		}
	}
}

// flush writes whatever is still queued, such as the error explaining a
// policy-violation close.
func (c *Conn) flush() {
	for {
		select {
		case msg := <-c.session.Messages():
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(msg protocol.ServerMessage) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) touch() {
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
}

// disconnect reports the connection gone. The session is closed here too
// so the write pump exits even when the coordinator has already stopped.
func (c *Conn) disconnect() {
	c.disconnectOnce.Do(func() {
		c.coord.Send(multiplayer.DisconnectMsg{SessionID: c.session.ID()})
		c.session.Close(multiplayer.CloseNormal, "")
	})
}

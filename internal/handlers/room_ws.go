// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/taboo/internal/hub"
	"github.com/jason-s-yu/taboo/internal/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// RoomWSHandler upgrades the request and runs the connection until it closes.
// Each socket gets a fresh connection id; the client names itself and picks a
// room with join_room or join_with_team.
func (s *RoomServer) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must speak the taboo subprotocol")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := hub.NewConn(uuid.New(), r.RemoteAddr, hub.DefaultBuffer, cancel, s.logger)
	s.Hub.Register(conn)
	middleware.LogWebSocketConnect(s.logger, conn.ID, r.RemoteAddr)

	go s.writePump(ctx, c, conn)
	err = s.readPump(ctx, c, conn)

	// the request context is gone by now
	s.HandleDisconnect(context.Background(), conn.ID)
	s.Hub.Unregister(conn.ID)
	middleware.LogWebSocketDisconnect(s.logger, conn.ID, r.RemoteAddr, err)

	if errors.Is(err, errRateLimited) {
		c.Close(RateLimitedError, "too many messages")
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}

var errRateLimited = errors.New("rate limit exceeded")

// readPump decodes packets and hands them to HandleMessage until the socket
// fails. Reads are paced by a token bucket; a client that stays over budget for
// a whole wait window is disconnected.
func (s *RoomServer) readPump(ctx context.Context, c *websocket.Conn, conn *hub.Conn) error {
	limiter := rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.Burst)
	log := s.logger.WithField("conn", conn.ID)

	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}

		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = limiter.Wait(waitCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("client exceeded message rate")
			return errRateLimited
		}

		if typ != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", typ)
			continue
		}

		var p Packet
		if err := json.Unmarshal(msg, &p); err != nil {
			log.Warnf("invalid json: %v", err)
			conn.WriteError("Invalid JSON format")
			continue
		}
		s.HandleMessage(ctx, conn.ID, p)
	}
}

func (s *RoomServer) writePump(ctx context.Context, c *websocket.Conn, conn *hub.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	log := s.logger.WithField("conn", conn.ID)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Warnf("failed to marshal outgoing msg: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.WithFields(logrus.Fields{"error": err}).Debug("write failed, closing")
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("ping failed: %v. Assuming disconnect.", err)
				conn.Cancel()
				return
			}
		}
	}
}

// internal/hub/conn.go
package hub

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultBuffer is the capacity of a connection's outbound queue.
const DefaultBuffer = 32

// Conn is one live socket as seen by the rest of the server. Messages are
// queued on OutChan and drained by the socket's write pump.
type Conn struct {
	ID      uuid.UUID
	Remote  string
	OutChan chan map[string]interface{}
	Cancel  func()

	logger *logrus.Logger
}

func NewConn(id uuid.UUID, remote string, buffer int, cancel func(), logger *logrus.Logger) *Conn {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if cancel == nil {
		cancel = func() {}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Conn{
		ID:      id,
		Remote:  remote,
		OutChan: make(chan map[string]interface{}, buffer),
		Cancel:  cancel,
		logger:  logger,
	}
}

// Write queues msg without blocking. A full queue drops the message and
// reports false.
func (c *Conn) Write(msg map[string]interface{}) bool {
	select {
	case c.OutChan <- msg:
		return true
	default:
		msgType, _ := msg["type"].(string)
		c.logger.WithFields(logrus.Fields{"conn": c.ID, "type": msgType}).Warn("hub: outbound queue full, message dropped")
		return false
	}
}

// WriteError is a convenience to send an error object.
func (c *Conn) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

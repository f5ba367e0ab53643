package hub

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newConn(t *testing.T, h *Hub, buffer int) *Conn {
	t.Helper()
	c := NewConn(uuid.New(), "test", buffer, nil, quietLogger())
	h.Register(c)
	return c
}

func drain(c *Conn) []map[string]interface{} {
	var out []map[string]interface{}
	for {
		select {
		case msg := <-c.OutChan:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBroadcastReachesSubscribersOnly(t *testing.T) {
	h := New(quietLogger())
	a, b, c := newConn(t, h, 4), newConn(t, h, 4), newConn(t, h, 4)
	h.Subscribe("R1", a.ID)
	h.Subscribe("R1", b.ID)
	h.Subscribe("R2", c.ID)

	n := h.Broadcast("R1", map[string]interface{}{"type": "room_users"})
	assert.Equal(t, 2, n)
	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(c))
}

func TestSubscribeMovesConnection(t *testing.T) {
	h := New(quietLogger())
	a := newConn(t, h, 4)
	h.Subscribe("R1", a.ID)
	h.Subscribe("R2", a.ID)

	assert.Equal(t, 0, h.Subscribers("R1"))
	assert.Equal(t, 1, h.Subscribers("R2"))
	assert.Equal(t, 0, h.Broadcast("R1", map[string]interface{}{"type": "x"}))
}

func TestUnregisterDropsEverything(t *testing.T) {
	h := New(quietLogger())
	a := newConn(t, h, 4)
	h.Subscribe("R1", a.ID)
	h.Unregister(a.ID)

	assert.Equal(t, 0, h.Subscribers("R1"))
	assert.False(t, h.Send(a.ID, map[string]interface{}{"type": "x"}))
}

func TestWriteDropsWhenFull(t *testing.T) {
	h := New(quietLogger())
	a := newConn(t, h, 1)

	require.True(t, h.Send(a.ID, map[string]interface{}{"type": "first"}))
	assert.False(t, h.Send(a.ID, map[string]interface{}{"type": "second"}))

	msgs := drain(a)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0]["type"])
}

func TestWriteError(t *testing.T) {
	c := NewConn(uuid.New(), "test", 0, nil, quietLogger())
	c.WriteError("boom")
	msgs := drain(c)
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]interface{}{"type": "error", "message": "boom"}, msgs[0])
	assert.Equal(t, DefaultBuffer, cap(c.OutChan))
}

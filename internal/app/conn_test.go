package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okaneo/peal/internal/core"
)

// fakeConn records every frame it is handed; flipping full simulates a
// connection whose send buffer never drains.
type fakeConn struct {
	id core.ConnID

	mu     sync.Mutex
	full   bool
	frames []core.Frame
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: core.ConnID(id)}
}

func (c *fakeConn) ID() core.ConnID { return c.id }

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

// notices decodes everything the connection received, in order.
func (c *fakeConn) notices(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

// noticesOf filters received notices by event name.
func (c *fakeConn) noticesOf(t *testing.T, event string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range c.notices(t) {
		if m["event"] == event {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) last(t *testing.T) map[string]any {
	t.Helper()
	all := c.notices(t)
	require.NotEmpty(t, all, "connection %s received nothing", c.id)
	return all[len(all)-1]
}

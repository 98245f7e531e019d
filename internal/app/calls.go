package app

import (
	"sync"

	"github.com/okaneo/peal/internal/domain"
)

// CallTable tracks in-flight call negotiations by call id. A session lives in
// the table only while ringing or active; ending it removes the record.
type CallTable struct {
	mu    sync.Mutex
	calls map[domain.CallID]domain.Call
}

func NewCallTable() *CallTable {
	return &CallTable{calls: make(map[domain.CallID]domain.Call)}
}

// Create inserts a new ringing session. Call ids are caller-generated; a
// collision is a protocol violation reported as ErrDuplicateCall.
func (t *CallTable) Create(id domain.CallID, caller, callee domain.UserID, typ domain.CallType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.calls[id]; ok {
		return domain.ErrDuplicateCall
	}
	t.calls[id] = domain.Call{
		ID:     id,
		Caller: caller,
		Callee: callee,
		Type:   typ,
		State:  domain.CallRinging,
	}
	return nil
}

// Activate moves a ringing session to active and returns the updated record.
// Any other starting point, unknown id included, is ErrInvalidTransition.
func (t *CallTable) Activate(id domain.CallID) (domain.Call, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	if !ok || c.State != domain.CallRinging {
		return domain.Call{}, domain.ErrInvalidTransition
	}
	c.State = domain.CallActive
	t.calls[id] = c
	return c, nil
}

// End removes and returns the session regardless of state. A second End for
// the same id finds nothing and reports false, so callers can no-op safely.
func (t *CallTable) End(id domain.CallID) (domain.Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	if !ok {
		return domain.Call{}, false
	}
	delete(t.calls, id)
	return c, true
}

func (t *CallTable) Get(id domain.CallID) (domain.Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	return c, ok
}

// Involving returns every session where uid is caller or callee. Used by
// disconnect cleanup.
func (t *CallTable) Involving(uid domain.UserID) []domain.Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.Call
	for _, c := range t.calls {
		if c.Caller == uid || c.Callee == uid {
			out = append(out, c)
		}
	}
	return out
}

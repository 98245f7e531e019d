package app

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/okaneo/peal/internal/core"
	"github.com/okaneo/peal/internal/domain"
)

type presenceEntry struct {
	connID core.ConnID
	conn   core.SignalConnection
}

// Presence maps each online user to its single live connection. A reverse
// index by connection id is kept in lockstep so disconnect cleanup never
// scans the table.
type Presence struct {
	mu     sync.Mutex
	byUser map[domain.UserID]presenceEntry
	byConn map[core.ConnID]domain.UserID
}

func NewPresence() *Presence {
	return &Presence{
		byUser: make(map[domain.UserID]presenceEntry),
		byConn: make(map[core.ConnID]domain.UserID),
	}
}

// Register inserts or replaces the entry for uid. A replaced connection loses
// its reverse mapping, so its late disconnect cannot evict the newer
// registration. A connection re-registering under a new id drops its old one.
func (p *Presence) Register(uid domain.UserID, conn core.SignalConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.byUser[uid]; ok {
		delete(p.byConn, prev.connID)
	}
	if prevUID, ok := p.byConn[conn.ID()]; ok && prevUID != uid {
		delete(p.byUser, prevUID)
	}
	p.byUser[uid] = presenceEntry{connID: conn.ID(), conn: conn}
	p.byConn[conn.ID()] = uid
	log.Info().Str("module", "app.presence").Str("user", string(uid)).Str("conn", string(conn.ID())).Msg("registered")
}

func (p *Presence) Lookup(uid domain.UserID) (core.SignalConnection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byUser[uid]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// RemoveIfMatches removes uid only while it is still bound to connID and
// reports whether it did. A false return means the connection was superseded
// and the caller must not clean up on its behalf.
func (p *Presence) RemoveIfMatches(uid domain.UserID, connID core.ConnID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byUser[uid]
	if !ok || e.connID != connID {
		return false
	}
	delete(p.byUser, uid)
	delete(p.byConn, connID)
	log.Info().Str("module", "app.presence").Str("user", string(uid)).Str("conn", string(connID)).Msg("removed")
	return true
}

// UserFor resolves which user a connection is currently registered as.
func (p *Presence) UserFor(connID core.ConnID) (domain.UserID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.byConn[connID]
	return uid, ok
}

// Online returns a sorted snapshot of online user ids.
func (p *Presence) Online() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.byUser))
	for uid := range p.byUser {
		out = append(out, string(uid))
	}
	sort.Strings(out)
	return out
}

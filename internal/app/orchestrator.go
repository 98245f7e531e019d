package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/okaneo/peal/internal/core"
	"github.com/okaneo/peal/internal/domain"
)

// Orchestrator is the signaling router. It resolves recipients through the
// presence table, validates against the call table and forwards payloads
// verbatim. Every failure is dropped locally: the transport gives us no
// back-channel to report protocol errors to a sender, so a missing recipient
// or a stale call id ends the matter here.
type Orchestrator struct {
	Presence *Presence
	Calls    *CallTable

	mu    sync.Mutex
	conns map[core.ConnID]core.SignalConnection // every live connection, registered or not
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		Presence: NewPresence(),
		Calls:    NewCallTable(),
		conns:    make(map[core.ConnID]core.SignalConnection),
	}
}

// OnConnect adds a connection to the broadcast roster. Nothing else happens
// until the client sends an explicit register event.
func (o *Orchestrator) OnConnect(conn core.SignalConnection) {
	o.mu.Lock()
	o.conns[conn.ID()] = conn
	o.mu.Unlock()
	log.Info().Str("module", "app.orch").Str("conn", string(conn.ID())).Msg("connection added")
}

// Dispatch is the single entry point for inbound signaling events.
func (o *Orchestrator) Dispatch(conn core.SignalConnection, ev domain.Event) {
	switch ev := ev.(type) {
	case domain.RegisterEvent:
		o.handleRegister(conn, ev)
	case domain.InitiateEvent:
		o.handleInitiate(ev)
	case domain.AnswerEvent:
		o.handleAnswer(ev)
	case domain.OfferEvent:
		o.handleOffer(ev)
	case domain.CandidateEvent:
		o.handleCandidate(ev)
	case domain.RejectEvent:
		o.handleReject(ev)
	case domain.EndEvent:
		o.handleEnd(ev)
	default:
		log.Warn().Str("module", "app.orch").Msgf("unhandled event %T", ev)
	}
}

func (o *Orchestrator) handleRegister(conn core.SignalConnection, ev domain.RegisterEvent) {
	o.Presence.Register(ev.UserID, conn)
	o.broadcastOnline()
}

// handleInitiate resolves the callee before touching the table: an initiate
// toward an offline user is dropped without creating a session, so no caller
// is ever parked in a ringing session that can reach nobody.
func (o *Orchestrator) handleInitiate(ev domain.InitiateEvent) {
	conn, ok := o.Presence.Lookup(ev.To)
	if !ok {
		log.Debug().Str("module", "app.orch").Str("to", string(ev.To)).Str("call", string(ev.CallID)).Msg("initiate: callee offline, dropped")
		return
	}
	if err := o.Calls.Create(ev.CallID, ev.From, ev.To, ev.Type); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("call", string(ev.CallID)).Msg("initiate dropped")
		return
	}
	o.send(conn, domain.CallIncoming{
		Event:  domain.NoticeIncoming,
		From:   ev.From,
		CallID: ev.CallID,
		Type:   ev.Type,
	})
}

// handleAnswer forwards to the caller recorded in the session, never to a
// client-supplied recipient, so a third party cannot redirect the relay.
func (o *Orchestrator) handleAnswer(ev domain.AnswerEvent) {
	c, err := o.Calls.Activate(ev.CallID)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("call", string(ev.CallID)).Msg("answer dropped")
		return
	}
	conn, ok := o.Presence.Lookup(c.Caller)
	if !ok {
		log.Debug().Str("module", "app.orch").Str("caller", string(c.Caller)).Msg("answer: caller offline, dropped")
		return
	}
	o.send(conn, domain.CallAnswered{
		Event:  domain.NoticeAnswered,
		CallID: ev.CallID,
		Answer: ev.Answer,
	})
}

func (o *Orchestrator) handleOffer(ev domain.OfferEvent) {
	if _, ok := o.Calls.Get(ev.CallID); !ok {
		log.Debug().Str("module", "app.orch").Str("call", string(ev.CallID)).Msg("offer for unknown call, dropped")
		return
	}
	conn, ok := o.Presence.Lookup(ev.To)
	if !ok {
		return
	}
	o.send(conn, domain.CallOffer{
		Event:  domain.NoticeOffer,
		CallID: ev.CallID,
		Offer:  ev.Offer,
	})
}

func (o *Orchestrator) handleCandidate(ev domain.CandidateEvent) {
	if _, ok := o.Calls.Get(ev.CallID); !ok {
		log.Debug().Str("module", "app.orch").Str("call", string(ev.CallID)).Msg("candidate for unknown call, dropped")
		return
	}
	conn, ok := o.Presence.Lookup(ev.To)
	if !ok {
		return
	}
	o.send(conn, domain.CallCandidate{
		Event:     domain.NoticeCandidate,
		CallID:    ev.CallID,
		Candidate: ev.Candidate,
	})
}

func (o *Orchestrator) handleReject(ev domain.RejectEvent) {
	if _, removed := o.Calls.End(ev.CallID); !removed {
		log.Debug().Str("module", "app.orch").Str("call", string(ev.CallID)).Msg("reject for unknown call, dropped")
		return
	}
	conn, ok := o.Presence.Lookup(ev.To)
	if !ok {
		return
	}
	o.send(conn, domain.CallRejected{Event: domain.NoticeRejected, CallID: ev.CallID})
}

func (o *Orchestrator) handleEnd(ev domain.EndEvent) {
	if _, removed := o.Calls.End(ev.CallID); !removed {
		return
	}
	conn, ok := o.Presence.Lookup(ev.To)
	if !ok {
		return
	}
	o.send(conn, domain.CallEnded{Event: domain.NoticeEnded, CallID: ev.CallID})
}

// OnDisconnect reconciles both tables after an abrupt transport close. A
// disconnect for a superseded connection only leaves the roster; cleanup
// belongs to whichever connection currently owns the registration.
func (o *Orchestrator) OnDisconnect(connID core.ConnID) {
	o.mu.Lock()
	delete(o.conns, connID)
	o.mu.Unlock()

	uid, ok := o.Presence.UserFor(connID)
	if !ok {
		log.Debug().Str("module", "app.orch").Str("conn", string(connID)).Msg("unregistered connection gone")
		return
	}
	if !o.Presence.RemoveIfMatches(uid, connID) {
		log.Debug().Str("module", "app.orch").Str("conn", string(connID)).Str("user", string(uid)).Msg("stale disconnect, ignored")
		return
	}

	for _, c := range o.Calls.Involving(uid) {
		if _, removed := o.Calls.End(c.ID); !removed {
			continue
		}
		peer, ok := o.Presence.Lookup(c.Other(uid))
		if !ok {
			// normal race: the other side may be gone in the same instant
			continue
		}
		o.send(peer, domain.CallEnded{Event: domain.NoticeEnded, CallID: c.ID})
	}
	o.broadcastOnline()
	log.Info().Str("module", "app.orch").Str("user", string(uid)).Msg("user disconnected")
}

// broadcastOnline pushes the full roster snapshot to every live connection,
// registered or not. Recipients are snapshotted under the lock, sends happen
// after it is released.
func (o *Orchestrator) broadcastOnline() {
	notice := domain.UsersOnline{Event: domain.NoticeUsersOnline, Users: o.Presence.Online()}
	frame, err := json.Marshal(notice)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("marshal roster")
		return
	}

	o.mu.Lock()
	targets := make([]core.SignalConnection, 0, len(o.conns))
	for _, conn := range o.conns {
		targets = append(targets, conn)
	}
	o.mu.Unlock()

	for _, conn := range targets {
		if err := conn.TrySend(core.Frame(frame)); err != nil {
			log.Debug().Err(err).Str("module", "app.orch").Str("conn", string(conn.ID())).Msg("roster dropped")
		}
	}
}

func (o *Orchestrator) send(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("marshal notice")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Debug().Err(err).Str("module", "app.orch").Str("conn", string(conn.ID())).Msg("notice dropped")
	}
}

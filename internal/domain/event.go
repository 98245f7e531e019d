package domain

import (
	"encoding/json"
)

// Event is the closed set of inbound signaling events. Adapters decode wire
// frames into these variants; the orchestrator dispatches on the concrete
// type, which keeps the whole call state machine exercisable without a live
// transport.
type Event interface {
	isEvent()
}

// RegisterEvent binds the sending connection to a user id.
type RegisterEvent struct {
	UserID UserID
}

// InitiateEvent starts a new call attempt toward To.
type InitiateEvent struct {
	From   UserID
	To     UserID
	CallID CallID
	Type   CallType
}

// AnswerEvent accepts a ringing call. The relay resolves the recipient from
// the stored session, never from the sender.
type AnswerEvent struct {
	CallID CallID
	Answer json.RawMessage
}

// OfferEvent relays a negotiation payload to To. Passthrough, no state change.
type OfferEvent struct {
	CallID CallID
	Offer  json.RawMessage
	To     UserID
}

// CandidateEvent relays an ICE candidate to To. Passthrough, no state change.
type CandidateEvent struct {
	CallID    CallID
	Candidate json.RawMessage
	To        UserID
}

// RejectEvent declines a ringing call and tears the session down.
type RejectEvent struct {
	CallID CallID
	To     UserID
}

// EndEvent terminates a call in any state.
type EndEvent struct {
	CallID CallID
	To     UserID
}

func (RegisterEvent) isEvent()  {}
func (InitiateEvent) isEvent()  {}
func (AnswerEvent) isEvent()    {}
func (OfferEvent) isEvent()     {}
func (CandidateEvent) isEvent() {}
func (RejectEvent) isEvent()    {}
func (EndEvent) isEvent()       {}

package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okaneo/peal/internal/domain"
)

// Wire names of client-to-relay events.
const (
	eventRegister  = "register"
	eventInitiate  = "call:initiate"
	eventAnswer    = "call:answer"
	eventOffer     = "call:offer"
	eventCandidate = "call:ice-candidate"
	eventReject    = "call:reject"
	eventEnd       = "call:end"
)

var ErrUnknownEvent = errors.New("unknown event")

// decodeEvent turns a wire frame into one of the closed domain event
// variants. Offer, answer and candidate payloads stay raw: the relay routes
// them, it never reads them.
func decodeEvent(data []byte) (domain.Event, error) {
	var env struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bad json: %w", err)
	}

	switch env.Event {
	case eventRegister:
		var p struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("bad register payload: %w", err)
		}
		uid, err := domain.ParseUserID(p.UserID)
		if err != nil {
			return nil, err
		}
		return domain.RegisterEvent{UserID: uid}, nil

	case eventInitiate:
		var p struct {
			From   string `json:"from"`
			To     string `json:"to"`
			CallID string `json:"callId"`
			Type   string `json:"type"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("bad initiate payload: %w", err)
		}
		from, err := domain.ParseUserID(p.From)
		if err != nil {
			return nil, err
		}
		to, err := domain.ParseUserID(p.To)
		if err != nil {
			return nil, err
		}
		id, err := domain.ParseCallID(p.CallID)
		if err != nil {
			return nil, err
		}
		typ, err := domain.ParseCallType(p.Type)
		if err != nil {
			return nil, err
		}
		return domain.InitiateEvent{From: from, To: to, CallID: id, Type: typ}, nil

	case eventAnswer:
		var p struct {
			CallID string          `json:"callId"`
			Answer json.RawMessage `json:"answer"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("bad answer payload: %w", err)
		}
		id, err := domain.ParseCallID(p.CallID)
		if err != nil {
			return nil, err
		}
		return domain.AnswerEvent{CallID: id, Answer: p.Answer}, nil

	case eventOffer:
		var p struct {
			CallID string          `json:"callId"`
			Offer  json.RawMessage `json:"offer"`
			To     string          `json:"to"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("bad offer payload: %w", err)
		}
		id, err := domain.ParseCallID(p.CallID)
		if err != nil {
			return nil, err
		}
		to, err := domain.ParseUserID(p.To)
		if err != nil {
			return nil, err
		}
		return domain.OfferEvent{CallID: id, Offer: p.Offer, To: to}, nil

	case eventCandidate:
		var p struct {
			CallID    string          `json:"callId"`
			Candidate json.RawMessage `json:"candidate"`
			To        string          `json:"to"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("bad candidate payload: %w", err)
		}
		id, err := domain.ParseCallID(p.CallID)
		if err != nil {
			return nil, err
		}
		to, err := domain.ParseUserID(p.To)
		if err != nil {
			return nil, err
		}
		return domain.CandidateEvent{CallID: id, Candidate: p.Candidate, To: to}, nil

	case eventReject:
		id, to, err := decodeCallTarget(data)
		if err != nil {
			return nil, fmt.Errorf("bad reject payload: %w", err)
		}
		return domain.RejectEvent{CallID: id, To: to}, nil

	case eventEnd:
		id, to, err := decodeCallTarget(data)
		if err != nil {
			return nil, fmt.Errorf("bad end payload: %w", err)
		}
		return domain.EndEvent{CallID: id, To: to}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// decodeCallTarget covers the reject/end shape: a call id plus a recipient.
func decodeCallTarget(data []byte) (domain.CallID, domain.UserID, error) {
	var p struct {
		CallID string `json:"callId"`
		To     string `json:"to"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return "", "", err
	}
	id, err := domain.ParseCallID(p.CallID)
	if err != nil {
		return "", "", err
	}
	to, err := domain.ParseUserID(p.To)
	if err != nil {
		return "", "", err
	}
	return id, to, nil
}

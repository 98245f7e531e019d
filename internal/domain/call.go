package domain

import (
	"errors"
)

const MaxCallIDLen = 128

var (
	ErrCallIDEmpty   = errors.New("call id empty")
	ErrCallIDTooLong = errors.New("call id too long")

	ErrDuplicateCall     = errors.New("duplicate call id")
	ErrInvalidTransition = errors.New("invalid call state transition")
	ErrUnknownCallType   = errors.New("unknown call type")
)

// CallID is a caller-generated token, unique per call attempt.
type CallID string

func ParseCallID(raw string) (CallID, error) {
	if len(raw) == 0 {
		return "", ErrCallIDEmpty
	}
	if len(raw) > MaxCallIDLen {
		return "", ErrCallIDTooLong
	}
	return CallID(raw), nil
}

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

func ParseCallType(raw string) (CallType, error) {
	switch t := CallType(raw); t {
	case CallAudio, CallVideo:
		return t, nil
	}
	return "", ErrUnknownCallType
}

// CallState covers only live sessions. There is no "ended" state: an ended
// call is removed from the table, nothing is archived.
type CallState string

const (
	CallRinging CallState = "ringing"
	CallActive  CallState = "active"
)

// Call is the relay's bookkeeping record for one call attempt. Caller and
// Callee never change after creation.
type Call struct {
	ID     CallID
	Caller UserID
	Callee UserID
	Type   CallType
	State  CallState
}

// Other returns the participant on the far side from u.
func (c Call) Other(u UserID) UserID {
	if c.Caller == u {
		return c.Callee
	}
	return c.Caller
}

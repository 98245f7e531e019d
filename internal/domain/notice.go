package domain

import (
	"encoding/json"
)

// Wire names of relay-to-client notices.
const (
	NoticeUsersOnline = "users-online"
	NoticeIncoming    = "call:incoming"
	NoticeAnswered    = "call:answered"
	NoticeOffer       = "call:offer"
	NoticeCandidate   = "call:ice-candidate"
	NoticeRejected    = "call:rejected"
	NoticeEnded       = "call:ended"
)

// UsersOnline carries the full online roster. Receivers treat the latest
// list as authoritative, not incremental.
type UsersOnline struct {
	Event string   `json:"event"`
	Users []string `json:"users"`
}

type CallIncoming struct {
	Event  string   `json:"event"`
	From   UserID   `json:"from"`
	CallID CallID   `json:"callId"`
	Type   CallType `json:"type"`
}

type CallAnswered struct {
	Event  string          `json:"event"`
	CallID CallID          `json:"callId"`
	Answer json.RawMessage `json:"answer"`
}

type CallOffer struct {
	Event  string          `json:"event"`
	CallID CallID          `json:"callId"`
	Offer  json.RawMessage `json:"offer"`
}

type CallCandidate struct {
	Event     string          `json:"event"`
	CallID    CallID          `json:"callId"`
	Candidate json.RawMessage `json:"candidate"`
}

type CallRejected struct {
	Event  string `json:"event"`
	CallID CallID `json:"callId"`
}

type CallEnded struct {
	Event  string `json:"event"`
	CallID CallID `json:"callId"`
}

package core

// Frame is a raw binary payload.
type Frame []byte

// ConnID identifies one live transport connection. The app layer stores ids
// and references only; buffers and the close lifecycle stay with the adapter.
type ConnID string

// SignalConnection abstracts for a system messaging transport.
// Owned by the adapter; the adapter must Close() it. App code only sends:
// TrySend never blocks, a full buffer is the sender's problem to drop.
type SignalConnection interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}

package hub

import "github.com/gorilla/websocket"

// MessageKind is the frame kind a payload arrived as and is re-emitted as.
type MessageKind int

const (
	MessageText MessageKind = iota
	MessageBinary
)

func (k MessageKind) String() string {
	if k == MessageBinary {
		return "binary"
	}
	return "text"
}

// Message is an opaque relayed payload. The relay never inspects or modifies
// Data; the same Message value is handed to every recipient, so nothing may
// write to Data after it has been published.
type Message struct {
	Kind MessageKind
	Data []byte
}

// TextMessage wraps s as a text payload
func TextMessage(s string) *Message {
	return &Message{Kind: MessageText, Data: []byte(s)}
}

// BinaryMessage wraps b as a binary payload
func BinaryMessage(b []byte) *Message {
	return &Message{Kind: MessageBinary, Data: b}
}

// Len returns the payload size in bytes.
func (m *Message) Len() int {
	return len(m.Data)
}

// messageKindFromFrame maps a gorilla frame type onto a MessageKind. Control
// frames never reach it.
func messageKindFromFrame(frameType int) (MessageKind, bool) {
	switch frameType {
	case websocket.TextMessage:
		return MessageText, true
	case websocket.BinaryMessage:
		return MessageBinary, true
	default:
		return 0, false
	}
}

func (k MessageKind) frameType() int {
	if k == MessageBinary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

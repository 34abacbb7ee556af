/*
Package chat contains the real-time message distribution core: the connection
registry, the envelope protocol, the dispatcher and the per-connection lifecycle.

This file defines the Envelope, the typed unit exchanged between clients and the server.
*/
package chat

import (
	"encoding/json"
	"errors"
	"time"
)

// MessageType determines how an envelope is delivered.
type MessageType string

const (
	// TypeChat is broadcast to every connected session.
	TypeChat MessageType = "chat"

	// TypePrivate is delivered to every session of the identity named in To, and echoed to the sender.
	TypePrivate MessageType = "private"

	// TypeNotification is produced only by the privileged server entry point.
	TypeNotification MessageType = "notification"

	// TypeSystem carries server-generated events (join/leave, welcome, errors).
	TypeSystem MessageType = "system"
)

// ServerIdentity is the From value of every server-originated envelope.
const ServerIdentity = "server"

// ErrMalformedEnvelope is returned when a frame is not a JSON object carrying both type and text.
var ErrMalformedEnvelope = errors.New("malformed envelope: type and text are required")

// Envelope is the message unit of the wire protocol.
// From is always assigned by the server; a client-supplied value is never trusted.
type Envelope struct {
	Type      MessageType `json:"type"`
	From      string      `json:"from,omitempty"`
	To        string      `json:"to,omitempty"`
	Text      string      `json:"text"`
	Timestamp int64       `json:"ts"`
}

// wireEnvelope mirrors Envelope with pointers so that missing required fields can be detected.
type wireEnvelope struct {
	Type      *MessageType `json:"type"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Text      *string      `json:"text"`
	Timestamp int64        `json:"ts"`
}

// NewEnvelope returns an envelope stamped with the current time.
func NewEnvelope(msgType MessageType, text string) Envelope {
	return Envelope{
		Type:      msgType,
		Text:      text,
		Timestamp: nowMillis(),
	}
}

// SystemEnvelope returns a server-originated system envelope.
func SystemEnvelope(text string) Envelope {
	env := NewEnvelope(TypeSystem, text)
	env.From = ServerIdentity
	return env
}

// Encode serializes the envelope to its JSON wire form.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a JSON frame. Unknown fields are ignored; a missing
// timestamp is filled with the current time.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return Envelope{}, errors.Join(ErrMalformedEnvelope, err)
	}

	if wire.Type == nil || wire.Text == nil {
		return Envelope{}, ErrMalformedEnvelope
	}

	env := Envelope{
		Type:      *wire.Type,
		From:      wire.From,
		To:        wire.To,
		Text:      *wire.Text,
		Timestamp: wire.Timestamp,
	}
	if env.Timestamp <= 0 {
		env.Timestamp = nowMillis()
	}

	return env, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

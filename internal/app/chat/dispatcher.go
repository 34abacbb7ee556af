/*
Package chat contains the real-time message distribution core.

This file defines the Dispatcher, the stateless routing layer on top of the Registry.
Every delivery is attempted per session; a failing session is counted and skipped,
never allowed to abort delivery to the others.
*/
package chat

import (
	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
)

// DeliveryReport counts the outcome of one fan-out.
type DeliveryReport struct {
	// Attempted is the number of sessions a send was tried on.
	Attempted int

	// Delivered is the number of sessions that accepted the frame.
	Delivered int
}

// Failed returns the number of sessions whose send did not succeed.
func (r DeliveryReport) Failed() int {
	return r.Attempted - r.Delivered
}

// Dispatcher delivers envelopes to registered sessions.
type Dispatcher struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewDispatcher returns a Dispatcher routing through registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logx.Component("Dispatcher"),
	}
}

// Broadcast delivers env to every session of every registered identity.
func (d *Dispatcher) Broadcast(env Envelope) DeliveryReport {
	return d.BroadcastExcluding(env)
}

// BroadcastExcluding delivers env to every registered session except those in excluded.
// The envelope is encoded once; identities and sessions are snapshotted, so a session
// removed concurrently simply fails its send.
func (d *Dispatcher) BroadcastExcluding(env Envelope, excluded ...Session) DeliveryReport {
	var report DeliveryReport

	frame, err := env.Encode()
	if err != nil {
		d.logger.Error().Err(err).Str("msg_type", string(env.Type)).Msg("Failed to encode envelope for broadcast")
		return report
	}

	skip := make(map[Session]struct{}, len(excluded))
	for _, s := range excluded {
		skip[s] = struct{}{}
	}

	for _, identity := range d.registry.AllIdentities() {
		for _, s := range d.registry.SessionsOf(identity) {
			if _, ok := skip[s]; ok {
				continue
			}
			report.Attempted++
			if d.deliver(identity, s, frame) {
				report.Delivered++
			}
		}
	}

	d.logger.Debug().
		Str("msg_type", string(env.Type)).
		Int("attempted", report.Attempted).
		Int("delivered", report.Delivered).
		Msg("Broadcast finished")

	return report
}

// SendToUser delivers env to every session of identity. It returns false when
// the identity has no sessions (nothing is encoded or sent in that case) or when
// every send failed, and true when at least one session accepted the frame.
func (d *Dispatcher) SendToUser(identity string, env Envelope) bool {
	sessions := d.registry.SessionsOf(identity)
	if len(sessions) == 0 {
		return false
	}

	frame, err := env.Encode()
	if err != nil {
		d.logger.Error().Err(err).Str("identity", identity).Msg("Failed to encode envelope for directed send")
		return false
	}

	delivered := false
	for _, s := range sessions {
		if d.deliver(identity, s, frame) {
			delivered = true
		}
	}
	return delivered
}

// SendTo delivers env to a single session regardless of registration.
func (d *Dispatcher) SendTo(s Session, env Envelope) SendResult {
	frame, err := env.Encode()
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to encode envelope for direct send")
		return SendClosed
	}
	return s.Send(frame)
}

func (d *Dispatcher) deliver(identity string, s Session, frame []byte) bool {
	result := s.Send(frame)
	if result != SendOK {
		d.logger.Debug().
			Str("identity", identity).
			Stringer("result", result).
			Msg("Dropped frame for session")
		return false
	}
	return true
}

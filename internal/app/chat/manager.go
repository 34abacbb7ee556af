/*
Package chat contains the real-time message distribution core.

This file defines the Manager, which owns the Registry and Dispatcher and runs the
lifecycle of every connection: resolve identity, register, greet, route inbound
envelopes, and always deregister on exit.
*/
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relaychat/internal/configs"
	"relaychat/internal/pkg/logx"
)

const (
	msgPrivateTargetRequired  = "to field required for private messages"
	msgNotificationServerOnly = "Notification type is server-only"
	msgShutdown               = "server shutting down"
)

// Options tunes per-connection resources.
type Options struct {
	// MaxMessageSize is the largest inbound frame accepted, in bytes.
	MaxMessageSize int64

	// SendBuffer is the length of each connection's outbound queue.
	SendBuffer int
}

// OptionsFromConfig derives connection options from the application config.
func OptionsFromConfig(cfg *configs.AppConfig) Options {
	opts := Options{}
	if cfg != nil {
		opts.MaxMessageSize = cfg.WSMaxMessageBytes
		opts.SendBuffer = cfg.WSSendBuffer
	}
	return opts.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	return o
}

// NotifyResult reports what the privileged notification entry did.
type NotifyResult int

const (
	// NotifyDelivered means a directed notification reached at least one session.
	NotifyDelivered NotifyResult = iota

	// NotifyNotConnected means the target identity had no live session.
	NotifyNotConnected

	// NotifyBroadcast means the notification was fanned out to everyone.
	NotifyBroadcast
)

// Manager coordinates all live connections.
type Manager struct {
	registry   *Registry
	dispatcher *Dispatcher
	resolver   *Resolver
	opts       Options

	// mu guards live and closing.
	mu      sync.Mutex
	live    map[*Client]struct{}
	closing bool

	// wg tracks running Serve calls so Shutdown can wait for their teardown.
	wg sync.WaitGroup

	// structured logger with Manager context.
	logger zerolog.Logger
}

// NewManager constructs a Manager. verifier may be nil, in which case every connection is anonymous.
func NewManager(opts Options, verifier TokenVerifier) *Manager {
	registry := NewRegistry()

	return &Manager{
		registry:   registry,
		dispatcher: NewDispatcher(registry),
		resolver:   NewResolver(verifier),
		opts:       opts.withDefaults(),
		live:       make(map[*Client]struct{}),
		logger:     logx.Component("Manager"),
	}
}

// Registry exposes the connection registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Dispatcher exposes the routing layer.
func (m *Manager) Dispatcher() *Dispatcher {
	return m.dispatcher
}

// Stats returns the current number of identities and sessions.
func (m *Manager) Stats() RegistryStats {
	return m.registry.Stats()
}

// Serve runs the whole lifecycle of one upgraded connection and returns once the
// connection is deregistered and its socket closed. It blocks the calling goroutine.
func (m *Manager) Serve(conn *websocket.Conn, creds Credentials) {
	identity := m.resolver.Resolve(creds)
	client := newClient(conn, identity, m.opts)

	if !m.track(client) {
		client.stop(msgShutdown)
		return
	}
	defer m.untrack(client)

	go client.WritePump()

	m.registry.Add(identity, client)
	defer m.detach(client)

	client.logger.Info().Msg("Client connected")

	m.dispatcher.BroadcastExcluding(SystemEnvelope(identity+" joined"), client)
	m.dispatcher.SendTo(client, SystemEnvelope("Welcome to the chat, "+identity))

	err := client.ReadPump(func(frame []byte) {
		m.route(client, frame)
	})
	if err != nil {
		client.logger.Warn().Err(err).Msg("Connection failed")
		m.dispatcher.SendTo(client, SystemEnvelope(fmt.Sprintf("An error occurred: %v", err)))
	}
}

// detach deregisters the client, announces the departure and releases the transport.
func (m *Manager) detach(c *Client) {
	m.registry.Remove(c.identity, c)
	m.dispatcher.Broadcast(SystemEnvelope(c.identity + " left"))

	c.closeSend()
	<-c.writeDone

	c.logger.Info().Msg("Client disconnected")
}

// route handles one inbound frame of c.
func (m *Manager) route(c *Client, frame []byte) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Undecodable frame, treating as plain chat text")
		env = NewEnvelope(TypeChat, string(frame))
	}

	env.From = c.identity

	switch env.Type {
	case TypePrivate:
		if env.To == "" {
			m.dispatcher.SendTo(c, SystemEnvelope(msgPrivateTargetRequired))
			return
		}

		if !m.dispatcher.SendToUser(env.To, env) {
			c.logger.Debug().Str("to", env.To).Msg("Private message recipient not connected")
		}
		m.dispatcher.SendTo(c, env)

	case TypeNotification:
		m.dispatcher.SendTo(c, SystemEnvelope(msgNotificationServerOnly))

	default:
		env.Type = TypeChat
		m.dispatcher.Broadcast(env)
	}
}

// Notify is the privileged entry point for server notifications. Callers must have
// authorized the request; the envelope is always sent as a notification from the server.
// With To set it is delivered to that identity only, otherwise to everyone.
func (m *Manager) Notify(env Envelope) NotifyResult {
	env.Type = TypeNotification
	env.From = ServerIdentity
	if env.Timestamp <= 0 {
		env.Timestamp = nowMillis()
	}

	if env.To == "" {
		report := m.dispatcher.Broadcast(env)
		m.logger.Info().
			Int("attempted", report.Attempted).
			Int("delivered", report.Delivered).
			Msg("Broadcast notification sent")
		return NotifyBroadcast
	}

	if !m.dispatcher.SendToUser(env.To, env) {
		m.logger.Info().Str("to", env.To).Msg("Notification recipient not connected")
		return NotifyNotConnected
	}

	m.logger.Info().Str("to", env.To).Msg("Notification delivered")
	return NotifyDelivered
}

func (m *Manager) track(c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closing {
		return false
	}

	m.live[c] = struct{}{}
	m.wg.Add(1)
	return true
}

func (m *Manager) untrack(c *Client) {
	m.mu.Lock()
	delete(m.live, c)
	m.mu.Unlock()

	m.wg.Done()
}

// Shutdown stops accepting connections, closes every live client with a
// going-away frame and waits until all of them have been torn down or ctx ends.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info().Msg("Shutting down Manager...")

	m.mu.Lock()
	m.closing = true
	clients := make([]*Client, 0, len(m.live))
	for c := range m.live {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.stop(msgShutdown)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info().Int("closed_connections", len(clients)).Msg("Manager shutdown complete.")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("manager shutdown interrupted: %w", ctx.Err())
	}
}

package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"relaychat/internal/app/user"
)

// fakeSession records frames and answers every Send with a fixed result.
type fakeSession struct {
	name string

	mu     sync.Mutex
	result SendResult
	frames [][]byte
	tries  int
}

func newFakeSession(name string) *fakeSession {
	return &fakeSession{name: name, result: SendOK}
}

func (f *fakeSession) Send(frame []byte) SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tries++
	if f.result == SendOK {
		f.frames = append(f.frames, frame)
	}
	return f.result
}

func (f *fakeSession) fail(result SendResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
}

func (f *fakeSession) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tries
}

func (f *fakeSession) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		out = append(out, env)
	}
	return out
}

// fakeVerifier maps tokens to principals. The token "explode" panics.
type fakeVerifier map[string]user.User

var errUnknownToken = errors.New("unknown token")

func (v fakeVerifier) VerifyToken(token string) (user.User, error) {
	if token == "explode" {
		panic("verifier exploded")
	}
	u, ok := v[token]
	if !ok {
		return user.User{}, errUnknownToken
	}
	return u, nil
}

var testVerifier = fakeVerifier{
	"tok-alice": {Username: "alice", Role: user.RoleUser},
	"tok-bob":   {Username: "bob", Role: user.RoleUser},
	"tok-carol": {Username: "carol", Role: user.RoleUser},
	"tok-dave":  {Username: "dave", Role: user.RoleUser},
	"tok-blank": {Username: "", Role: user.RoleUser},
	"tok-guest": {Username: "anonymous-1", Role: user.RoleUser},
}

// startServer runs a Manager behind an httptest WebSocket endpoint.
func startServer(t *testing.T, opts Options) (*Manager, string) {
	t.Helper()

	m := NewManager(opts, testVerifier)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.Serve(conn, Credentials{
			QueryToken: r.URL.Query().Get("token"),
			Header:     r.Header.Get("Authorization"),
		})
	}))
	t.Cleanup(srv.Close)

	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// peer is the client side of one test connection.
type peer struct {
	t        *testing.T
	conn     *websocket.Conn
	identity string
}

// connect dials the server and consumes the welcome envelope.
func connect(t *testing.T, url, token string) *peer {
	t.Helper()

	if token != "" {
		url += "?token=" + token
	}
	return dialWith(t, url, nil)
}

func dialWith(t *testing.T, url string, header http.Header) *peer {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	p := &peer{t: t, conn: conn}
	welcome := p.next()
	require.Equal(t, TypeSystem, welcome.Type)
	require.Equal(t, ServerIdentity, welcome.From)
	require.True(t, strings.HasPrefix(welcome.Text, "Welcome to the chat, "), welcome.Text)
	p.identity = strings.TrimPrefix(welcome.Text, "Welcome to the chat, ")
	return p
}

func (p *peer) next() Envelope {
	p.t.Helper()

	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, frame, err := p.conn.ReadMessage()
	require.NoError(p.t, err)

	var env Envelope
	require.NoError(p.t, json.Unmarshal(frame, &env), string(frame))
	return env
}

func (p *peer) expectSystem(text string) {
	p.t.Helper()

	env := p.next()
	require.Equal(p.t, TypeSystem, env.Type)
	require.Equal(p.t, text, env.Text)
}

func (p *peer) sendJSON(v any) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(v))
}

func (p *peer) sendText(s string) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteMessage(websocket.TextMessage, []byte(s)))
}

func (p *peer) closeCleanly() {
	p.t.Helper()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(p.t, p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))
}

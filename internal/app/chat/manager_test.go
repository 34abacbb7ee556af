package chat

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaychat/internal/pkg/randx"
)

func TestAnonymousChatIsBroadcastWithServerAssignedSender(t *testing.T) {
	_, url := startServer(t, Options{})

	a := connect(t, url, "")
	require.True(t, randx.IsAnonymousIdentity(a.identity), a.identity)

	a.sendJSON(map[string]any{"type": "chat", "text": "hi"})

	got := a.next()
	assert.Equal(t, TypeChat, got.Type)
	assert.Equal(t, a.identity, got.From)
	assert.Equal(t, "hi", got.Text)
	assert.NotZero(t, got.Timestamp)
}

func TestAnonymousConnectionsGetDistinctIdentities(t *testing.T) {
	m, url := startServer(t, Options{})

	a := connect(t, url, "")
	b := connect(t, url, "")
	a.expectSystem(b.identity + " joined")

	assert.NotEqual(t, a.identity, b.identity)
	assert.ElementsMatch(t, []string{a.identity, b.identity}, m.Registry().AllIdentities())
}

func TestJoinIsAnnouncedToOthersOnly(t *testing.T) {
	_, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	bob := connect(t, url, "tok-bob")
	alice.expectSystem("bob joined")

	// bob's next frame must be the chat, not his own join notice.
	alice.sendJSON(map[string]any{"type": "chat", "text": "welcome bob"})
	got := bob.next()
	assert.Equal(t, TypeChat, got.Type)
	assert.Equal(t, "welcome bob", got.Text)
}

func TestPrivateMessageDeliveredAndEchoed(t *testing.T) {
	_, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	bob := connect(t, url, "tok-bob")
	alice.expectSystem("bob joined")

	alice.sendJSON(map[string]any{"type": "private", "to": "bob", "text": "hey"})

	for _, p := range []*peer{bob, alice} {
		got := p.next()
		assert.Equal(t, TypePrivate, got.Type, p.identity)
		assert.Equal(t, "alice", got.From, p.identity)
		assert.Equal(t, "bob", got.To, p.identity)
		assert.Equal(t, "hey", got.Text, p.identity)
	}
}

func TestPrivateWithoutTargetIsRejected(t *testing.T) {
	_, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	bob := connect(t, url, "tok-bob")
	alice.expectSystem("bob joined")

	alice.sendJSON(map[string]any{"type": "private", "text": "to whom?"})
	alice.expectSystem(msgPrivateTargetRequired)

	alice.sendJSON(map[string]any{"type": "chat", "text": "after"})
	got := bob.next()
	assert.Equal(t, TypeChat, got.Type, "the rejected private message must not reach anyone")
	assert.Equal(t, "after", got.Text)
}

func TestPrivateToOfflineUserStillEchoes(t *testing.T) {
	_, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	alice.sendJSON(map[string]any{"type": "private", "to": "nobody", "text": "anyone?"})

	got := alice.next()
	assert.Equal(t, TypePrivate, got.Type)
	assert.Equal(t, "nobody", got.To)
}

func TestClientNotificationsAreRejected(t *testing.T) {
	_, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	bob := connect(t, url, "tok-bob")
	alice.expectSystem("bob joined")

	alice.sendJSON(map[string]any{"type": "notification", "text": "fake alert"})
	alice.expectSystem(msgNotificationServerOnly)

	alice.sendJSON(map[string]any{"type": "chat", "text": "after"})
	assert.Equal(t, "after", bob.next().Text)
}

func TestUndecodableFrameBecomesChat(t *testing.T) {
	_, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	alice.sendText("just some text")

	got := alice.next()
	assert.Equal(t, TypeChat, got.Type)
	assert.Equal(t, "alice", got.From)
	assert.Equal(t, "just some text", got.Text)
}

func TestClientCannotImpersonateOrForgeSystemMessages(t *testing.T) {
	_, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	alice.sendJSON(map[string]any{"type": "system", "from": "server", "text": "you are banned"})

	got := alice.next()
	assert.Equal(t, TypeChat, got.Type)
	assert.Equal(t, "alice", got.From)
	assert.Equal(t, "you are banned", got.Text)
}

func TestBearerHeaderCredential(t *testing.T) {
	_, url := startServer(t, Options{})

	p := dialWith(t, url, http.Header{"Authorization": []string{"Bearer tok-carol"}})
	assert.Equal(t, "carol", p.identity)
}

func TestCleanDisconnectDeregistersAndAnnouncesLeave(t *testing.T) {
	m, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	bob := connect(t, url, "tok-bob")
	alice.expectSystem("bob joined")

	bob.closeCleanly()
	alice.expectSystem("bob left")

	assert.Equal(t, []string{"alice"}, m.Registry().AllIdentities())
}

func TestUncleanDisconnectDeregisters(t *testing.T) {
	m, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	dave := connect(t, url, "tok-dave")
	alice.expectSystem("dave joined")

	require.NoError(t, dave.conn.UnderlyingConn().Close())
	alice.expectSystem("dave left")

	assert.NotContains(t, m.Registry().AllIdentities(), "dave")

	alice.sendJSON(map[string]any{"type": "chat", "text": "still here"})
	assert.Equal(t, "still here", alice.next().Text)
}

func TestOversizedFrameIsTransportFailure(t *testing.T) {
	m, url := startServer(t, Options{MaxMessageSize: 32})

	alice := connect(t, url, "tok-alice")
	bob := connect(t, url, "tok-bob")
	alice.expectSystem("bob joined")

	bob.sendText(strings.Repeat("x", 256))
	alice.expectSystem("bob left")

	assert.Equal(t, []string{"alice"}, m.Registry().AllIdentities())
}

func TestMultipleConnectionsPerIdentity(t *testing.T) {
	m, url := startServer(t, Options{})

	phone := connect(t, url, "tok-alice")
	laptop := connect(t, url, "tok-alice")
	phone.expectSystem("alice joined")

	assert.Len(t, m.Registry().SessionsOf("alice"), 2)

	laptop.closeCleanly()
	phone.expectSystem("alice left")

	assert.Len(t, m.Registry().SessionsOf("alice"), 1)
	assert.Equal(t, RegistryStats{Identities: 1, Sessions: 1}, m.Stats())
}

func TestNotifyDirectedAndBroadcast(t *testing.T) {
	m, url := startServer(t, Options{})

	assert.Equal(t, NotifyNotConnected, m.Notify(Envelope{To: "carol", Text: "maintenance"}))

	carol := connect(t, url, "tok-carol")

	assert.Equal(t, NotifyDelivered, m.Notify(Envelope{Type: TypeChat, From: "mallory", To: "carol", Text: "maintenance"}))
	got := carol.next()
	assert.Equal(t, TypeNotification, got.Type)
	assert.Equal(t, ServerIdentity, got.From)
	assert.Equal(t, "carol", got.To)
	assert.Equal(t, "maintenance", got.Text)
	assert.NotZero(t, got.Timestamp)

	assert.Equal(t, NotifyBroadcast, m.Notify(Envelope{Text: "all hands"}))
	got = carol.next()
	assert.Equal(t, TypeNotification, got.Type)
	assert.Empty(t, got.To)
	assert.Equal(t, "all hands", got.Text)
}

func TestShutdownClosesEveryConnection(t *testing.T) {
	m, url := startServer(t, Options{})

	alice := connect(t, url, "tok-alice")
	bob := connect(t, url, "tok-bob")
	alice.expectSystem("bob joined")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	assert.Empty(t, m.Registry().AllIdentities())

	for _, p := range []*peer{alice, bob} {
		require.NoError(t, p.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var err error
		for err == nil {
			_, _, err = p.conn.ReadMessage()
		}
		assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway) || websocket.IsUnexpectedCloseError(err), err)
	}

	// new connections after shutdown are turned away immediately.
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err)
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	opts := OptionsFromConfig(nil)

	assert.Equal(t, int64(DefaultMaxMessageSize), opts.MaxMessageSize)
	assert.Equal(t, DefaultSendBuffer, opts.SendBuffer)
}

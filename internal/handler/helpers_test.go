package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/db"
	"relaychat/internal/configs"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/pow"
)

const testSecret = "handler-test-secret"

// memAccounts is an in-memory AccountStore.
type memAccounts struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]db.User
	logins map[int64]int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{users: make(map[string]db.User), logins: make(map[int64]int)}
}

func (m *memAccounts) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[arg.Username]; exists {
		return db.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}

	m.nextID++
	u := db.User{
		ID:           m.nextID,
		Username:     arg.Username,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		CreatedAt:    time.Now(),
	}
	m.users[arg.Username] = u
	return u, nil
}

func (m *memAccounts) GetUserByUsername(_ context.Context, username string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *memAccounts) UpdateLastLogin(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logins[id]++
	return nil
}

func (m *memAccounts) loginCount(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.logins[id]
}

func newTestDeps(t *testing.T, powDifficulty int) *AppDeps {
	t.Helper()

	tokens := jwt.NewService(testSecret, jwt.DefaultIssuer, time.Hour)
	manager := chat.NewManager(chat.Options{}, tokens)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = manager.Shutdown(ctx)
	})

	return &AppDeps{
		Manager: manager,
		Config: &configs.AppConfig{
			Environment:    configs.EnvDevelopment,
			JWTSecret:      testSecret,
			JWTIssuer:      jwt.DefaultIssuer,
			JWTTTL:         time.Hour,
			PowDifficulty:  powDifficulty,
			AdminUsernames: []string{"root"},
		},
		Tokens:   tokens,
		Accounts: newMemAccounts(),
		PoW:      pow.NewPoWManager(powDifficulty),
	}
}

func newTestServer(t *testing.T, deps *AppDeps) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(Router(deps))
	t.Cleanup(srv.Close)
	return srv
}

// apiResponse mirrors resp.JSONResponse with the payload left raw.
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a apiResponse) dataMap(t *testing.T) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(a.Data, &m))
	return m
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func doJSON(t *testing.T, method, url string, body any, opts ...requestOption) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func register(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()

	status, out := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, status, out.Message)

	token, _ := out.dataMap(t)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func dialWS(t *testing.T, url string, dialer *websocket.Dialer) (*websocket.Conn, *http.Response) {
	t.Helper()

	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, res, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, res
}

func readEnvelope(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var env chat.Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

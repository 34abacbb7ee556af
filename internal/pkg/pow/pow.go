/*
Package pow implements the Proof-of-Work (PoW) mechanism used as an anti-abuse
measure in front of account registration.

It manages the generation and validation of nonces and the issuance of single-use
Proof Tokens upon successful validation.
*/
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"relaychat/internal/pkg/randx"
)

const (
	// TokenHeaderKey is the HTTP header key used by the client to send the Proof Token.
	TokenHeaderKey = "X-PoW-Token"

	// TokenQueryKey is the query parameter accepted as a fallback for TokenHeaderKey.
	TokenQueryKey = "pow_token"

	// ProofTokenDuration is the validity period for the Proof Token issued after successful PoW validation.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is the validity period for the challenge Nonce.
	NonceExpiryDuration = 5 * time.Minute
)

var (
	// ErrNonceInvalid is returned for unknown, expired or already consumed nonces.
	ErrNonceInvalid = errors.New("nonce expired or invalid")

	// ErrProofTooWeak is returned when the hash does not meet the difficulty requirement.
	ErrProofTooWeak = errors.New("proof does not meet difficulty requirement")
)

// PoWManager is responsible for managing the lifecycle of PoW challenges and Proof Tokens.
// It is concurrent-safe, using internal maps to store active nonces and tokens.
type PoWManager struct {
	// difficulty is the required number of leading hex zeros for the challenge hash.
	difficulty int

	// nonceStore stores active nonces and their expiration times.
	nonceStore map[string]time.Time

	// tokenStore stores issued Proof Tokens and their expiration times.
	tokenStore map[string]time.Time

	// mu protects concurrent access to nonceStore and tokenStore.
	mu sync.RWMutex
}

// NewPoWManager creates and initializes a new PoWManager instance.
// It accepts the challenge difficulty and starts a background goroutine to clean up expired entries.
func NewPoWManager(difficulty int) *PoWManager {
	mgr := &PoWManager{
		difficulty: difficulty,
		nonceStore: make(map[string]time.Time),
		tokenStore: make(map[string]time.Time),
	}

	go mgr.cleanupExpiredEntries()

	return mgr
}

// Enabled reports whether a proof is required at all.
func (m *PoWManager) Enabled() bool {
	return m.difficulty > 0
}

// Difficulty returns the number of leading zeros a valid proof hash must have.
func (m *PoWManager) Difficulty() int {
	return m.difficulty
}

// GenerateNonce generates a unique Nonce string for the PoW challenge and stores it for validation.
func (m *PoWManager) GenerateNonce() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce := randx.Nonce()
	m.nonceStore[nonce] = time.Now().Add(NonceExpiryDuration)
	return nonce
}

// Hash returns the hex SHA256 of nonce+counter, the value checked against the difficulty.
func Hash(nonce, counter string) string {
	sum := sha256.Sum256([]byte(nonce + counter))
	return hex.EncodeToString(sum[:])
}

// ValidateProof validates the PoW proof provided by the client.
// On success the nonce is consumed and a temporary Proof Token is returned.
func (m *PoWManager) ValidateProof(nonce, counter string) (string, error) {
	m.mu.RLock()
	expiryTime, ok := m.nonceStore[nonce]
	m.mu.RUnlock()

	if !ok || time.Now().After(expiryTime) {
		return "", ErrNonceInvalid
	}

	if !strings.HasPrefix(Hash(nonce, counter), strings.Repeat("0", m.difficulty)) {
		return "", ErrProofTooWeak
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, stillExists := m.nonceStore[nonce]; !stillExists {
		return "", ErrNonceInvalid
	}

	delete(m.nonceStore, nonce)

	token := randx.Nonce()
	m.tokenStore[token] = time.Now().Add(ProofTokenDuration)
	return token, nil
}

// ConsumeProofToken checks whether the request carries a valid Proof Token and
// invalidates it, so each proof admits exactly one request.
// The token is read from the X-PoW-Token header or the pow_token query parameter.
func (m *PoWManager) ConsumeProofToken(r *http.Request) bool {
	token := r.Header.Get(TokenHeaderKey)
	if token == "" {
		token = r.URL.Query().Get(TokenQueryKey)
	}

	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiryTime, ok := m.tokenStore[token]
	if !ok {
		return false
	}
	delete(m.tokenStore, token)

	return time.Now().Before(expiryTime)
}

// cleanupExpiredEntries periodically cleans up expired entries in both nonceStore and tokenStore.
func (m *PoWManager) cleanupExpiredEntries() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		now := time.Now()

		for nonce, expiry := range m.nonceStore {
			if now.After(expiry) {
				delete(m.nonceStore, nonce)
			}
		}

		for token, expiry := range m.tokenStore {
			if now.After(expiry) {
				delete(m.tokenStore, token)
			}
		}
		m.mu.Unlock()
	}
}

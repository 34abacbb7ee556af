package chat

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"relaychat/internal/app/user"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/randx"
)

const bearerPrefix = "Bearer "

// TokenVerifier validates an access token and returns the principal it belongs to.
type TokenVerifier interface {
	VerifyToken(token string) (user.User, error)
}

// Credentials are the raw credential sources of a connection attempt.
type Credentials struct {
	// QueryToken is the value of the "token" query parameter.
	QueryToken string

	// Header is the value of the protocol (or authorization) header.
	Header string
}

// Token picks the bearer token by precedence: a non-blank query token, then a
// "Bearer <token>" header with the prefix stripped, then the raw header value.
func (c Credentials) Token() (string, bool) {
	if q := strings.TrimSpace(c.QueryToken); q != "" {
		return q, true
	}

	header := strings.TrimSpace(c.Header)
	if header == "" {
		return "", false
	}

	if rest, ok := strings.CutPrefix(header, bearerPrefix); ok {
		header = strings.TrimSpace(rest)
	}

	return header, header != ""
}

// Resolver turns connection credentials into an identity.
// It never rejects a connection: missing or invalid credentials yield a fresh anonymous identity.
type Resolver struct {
	verifier TokenVerifier
	logger   zerolog.Logger
}

// NewResolver returns a Resolver backed by verifier. A nil verifier makes every connection anonymous.
func NewResolver(verifier TokenVerifier) *Resolver {
	return &Resolver{
		verifier: verifier,
		logger:   logx.Component("Resolver"),
	}
}

// Resolve returns the verified username or a new anonymous identity.
func (r *Resolver) Resolve(creds Credentials) string {
	token, ok := creds.Token()
	if !ok || r.verifier == nil {
		return randx.AnonymousIdentity()
	}

	principal, err := r.verify(token)
	if err != nil {
		r.logger.Info().Err(err).Msg("Token verification failed, continuing as anonymous")
		return randx.AnonymousIdentity()
	}

	if principal.Username == "" {
		r.logger.Info().Msg("Token carries no username claim, continuing as anonymous")
		return randx.AnonymousIdentity()
	}

	if randx.IsReservedIdentity(principal.Username) {
		r.logger.Warn().Str("username", principal.Username).Msg("Token claims a guest identity, continuing as anonymous")
		return randx.AnonymousIdentity()
	}

	return principal.Username
}

// verify calls the verifier and converts a panic into an error.
func (r *Resolver) verify(token string) (u user.User, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("token verifier panicked: %v", p)
		}
	}()

	return r.verifier.VerifyToken(token)
}

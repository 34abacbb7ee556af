package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"relaychat/internal/app/user"
)

const (
	// DefaultExpiration is the validity of an access token when none is configured.
	DefaultExpiration = 24 * time.Hour

	// DefaultIssuer identifies the issuer of the token when none is configured.
	DefaultIssuer = "relaychat"

	// tokenSubject is the fixed "sub" claim of every access token.
	tokenSubject = "Authentication"
)

var (
	// ErrInvalidToken is returned when a token fails signature, expiry or issuer validation.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUnexpectedSigningMethod is returned when the token is not signed with HMAC.
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
)

// GenerateToken creates and signs a new JWT Token string based on the provided Payload struct.
func GenerateToken(payload *Payload, secretKey, issuer string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    issuer,
		Subject:   tokenSubject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates the JWT Token string using the provided secretKey.
// An empty issuer skips the issuer check.
func ParseToken(tokenString, secretKey, issuer string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if issuer != "" && !claims.VerifyIssuer(issuer, true) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Service issues and verifies access tokens with a fixed secret, issuer and lifetime.
// It satisfies the token verifier consumed by the chat core.
type Service struct {
	secret   string
	issuer   string
	duration time.Duration
}

// NewService constructs a token Service. Zero values fall back to DefaultIssuer
// and DefaultExpiration.
func NewService(secret, issuer string, duration time.Duration) *Service {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if duration <= 0 {
		duration = DefaultExpiration
	}

	return &Service{
		secret:   secret,
		issuer:   issuer,
		duration: duration,
	}
}

// IssueToken signs a token carrying the username and role claims.
func (s *Service) IssueToken(username, role string) (string, error) {
	return GenerateToken(&Payload{Username: username, Role: role}, s.secret, s.issuer, s.duration)
}

// VerifyToken validates the token and returns the principal it was issued for.
func (s *Service) VerifyToken(token string) (user.User, error) {
	payload, err := s.Parse(token)
	if err != nil {
		return user.User{}, err
	}
	return payload.User(), nil
}

// Parse validates the token and returns its full claims.
func (s *Service) Parse(token string) (*Payload, error) {
	return ParseToken(token, s.secret, s.issuer)
}

package jwt

import (
	"github.com/golang-jwt/jwt"

	"relaychat/internal/app/user"
)

// Payload defines the structure of the JSON Web Token (JWT) claims for relaychat.
// It includes the standard claims required by the JWT specification and the custom
// claims used to identify the principal and authorize privileged operations.
type Payload struct {
	// StandardClaims embeds the standard fields such as Exp (Expiration),
	// Iat (Issued At), Iss (Issuer) and Sub (Subject).
	jwt.StandardClaims

	// Username is the identity of the principal; it is the routing key for
	// every WebSocket connection opened with this token.
	Username string `json:"username"`

	// Role defines the permission level of the principal ("user" or "admin").
	Role string `json:"role"`
}

// User converts the claims to the domain representation of the principal.
func (p *Payload) User() user.User {
	return user.User{
		Username: p.Username,
		Role:     p.Role,
	}
}

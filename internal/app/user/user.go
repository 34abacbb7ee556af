/*
Package user contains core data structures related to user identity.

It defines the representation of an authenticated principal (the User struct)
as carried inside access tokens and passed to the chat core after verification.
*/
package user

const (
	// RoleAdmin grants access to privileged endpoints such as server notifications.
	RoleAdmin = "admin"

	// RoleUser is the default role assigned on registration.
	RoleUser = "user"
)

// User represents the identity information extracted from a verified token.
type User struct {

	// Username is the unique account name and the identity used for message routing.
	Username string `json:"username"`

	// Role defines the permission level of the principal (e.g., "user", "admin").
	Role string `json:"role"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

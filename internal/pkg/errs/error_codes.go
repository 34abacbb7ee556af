/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Messaging Errors
const (
	// ErrRecipientNotConnected indicates that a directed notification found no live connection for its target.
	ErrRecipientNotConnected = 2101

	// ErrInvalidEnvelope indicates that a message body could not be decoded into an envelope.
	ErrInvalidEnvelope = 2102
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3001

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid or incorrect.
	ErrPowChallengeInvalid = 3002

	// ErrUnauthorized indicates that the request carries no valid access token.
	ErrUnauthorized = 3101

	// ErrForbidden indicates that the caller's role does not allow the operation.
	ErrForbidden = 3102

	// ErrInvalidUsername indicates that the username does not match the allowed format.
	ErrInvalidUsername = 3201

	// ErrInvalidPassword indicates that the password length is outside the allowed range.
	ErrInvalidPassword = 3202

	// ErrUserAlreadyExists indicates that the username is already registered.
	ErrUserAlreadyExists = 3203

	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = 3204
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)

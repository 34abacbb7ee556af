/*
Package handler provides HTTP handler functions for account registration and login.
*/
package handler

import (
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"relaychat/internal/app/db"
	"relaychat/internal/app/user"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/randx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

const (
	minPasswordLen = 6
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLen = 72
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

	// dummyPasswordHash is compared against when the account does not exist,
	// so unknown usernames cost as much as wrong passwords.
	dummyPasswordHash = sync.OnceValue(func() []byte {
		hash, err := bcrypt.GenerateFromPassword([]byte("relaychat-dummy-password"), bcrypt.DefaultCost)
		if err != nil {
			panic(err)
		}
		return hash
	})
)

type CredentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates an account and returns a token for it. The admin role is
// granted only to usernames listed in the configuration.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.PoW != nil && deps.PoW.Enabled() && !deps.PoW.ConsumeProofToken(r) {
			logx.Warn("register: missing or invalid PoW token")
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}

		var input CredentialsInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) || randx.IsReservedIdentity(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < minPasswordLen || len(input.Password) > maxPasswordLen {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		role := user.RoleUser
		if deps.Config.IsAdminUsername(input.Username) {
			role = user.RoleAdmin
		}

		account, err := deps.Accounts.CreateUser(r.Context(), db.CreateUserParams{
			Username:     input.Username,
			PasswordHash: string(hashedPassword),
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		respondWithToken(w, r, deps, account)
	}
}

// HandleLogin verifies user credentials and issues a JWT token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CredentialsInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.Accounts.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			if !db.IsNotFound(err) {
				logx.Error(err, "login: user fetch failed", "username", input.Username)
			}
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(input.Password))
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := deps.Accounts.UpdateLastLogin(r.Context(), account.ID); err != nil {
			logx.Error(err, "login: failed to update last_login_at", "user_id", account.ID)
		}

		respondWithToken(w, r, deps, account)
	}
}

func respondWithToken(w http.ResponseWriter, r *http.Request, deps *AppDeps, account db.User) {
	token, err := deps.Tokens.IssueToken(account.Username, account.Role)
	if err != nil {
		logx.Error(err, "jwt generation failed", "username", account.Username)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	resp.RespondSuccess(w, r, map[string]any{
		"token": token,
		"user": user.User{
			Username: account.Username,
			Role:     account.Role,
		},
	})
}

// HandleGetUser greets the authenticated caller with the identity carried by its token.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccessMessage(w, r,
			fmt.Sprintf("Hello, %s! Your role: %s", payload.Username, payload.Role),
			payload.User())
	}
}

// HandleAdmin is reachable by admins only.
func HandleAdmin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if !payload.User().IsAdmin() {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden, "access this resource"))
			return
		}

		resp.RespondSuccessMessage(w, r, "Welcome, admin!", payload.User())
	}
}

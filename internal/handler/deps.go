package handler

import (
	"context"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/db"
	"relaychat/internal/configs"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/pow"
)

// AccountStore persists registered accounts. *db.Queries satisfies it.
type AccountStore interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByUsername(ctx context.Context, username string) (db.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

type AppDeps struct {
	Manager  *chat.Manager
	Config   *configs.AppConfig
	Tokens   *jwt.Service
	Accounts AccountStore
	PoW      *pow.PoWManager
}

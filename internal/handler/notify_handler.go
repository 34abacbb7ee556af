package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/user"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

// HandleNotify lets an administrator push a server notification to one identity
// (when "to" is set) or to every connected client.
func HandleNotify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if payload.Role != user.RoleAdmin {
			logx.Warn("notify: rejected non-admin caller", "username", payload.Username, "role", payload.Role)
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden, "send notifications"))
			return
		}

		var body json.RawMessage
		if customErr := req.DecodeJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		env, err := chat.DecodeEnvelope(body)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEnvelope))
			return
		}

		switch deps.Manager.Notify(env) {
		case chat.NotifyNotConnected:
			resp.RespondError(w, r, errs.NewError(errs.ErrRecipientNotConnected, env.To))

		case chat.NotifyDelivered:
			logx.Info("notify: delivered", "admin", payload.Username, "to", env.To)
			resp.RespondSuccessMessage(w, r,
				fmt.Sprintf("Notification sent to %s by admin %s", env.To, payload.Username),
				map[string]any{"to": env.To})

		default:
			logx.Info("notify: broadcast", "admin", payload.Username)
			resp.RespondSuccessMessage(w, r,
				fmt.Sprintf("Broadcast notification sent by admin %s", payload.Username), nil)
		}
	}
}

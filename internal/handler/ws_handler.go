/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, collecting
the connection's credentials, upgrading the HTTP connection to WebSocket, and handing it to the chat Manager.
*/
package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"relaychat/internal/app/chat"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

const (
	tokenQueryKey       = "token"
	subprotocolHeader   = "Sec-WebSocket-Protocol"
	bearerSubprotocol   = "Bearer"
	authorizationHeader = "Authorization"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// Unauthenticated connections are accepted and served under an anonymous identity.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		creds, subprotocol := credentialsFromRequest(r)

		var responseHeader http.Header
		if subprotocol != "" {
			responseHeader = http.Header{subprotocolHeader: []string{subprotocol}}
		}

		conn, err := upgrader.Upgrade(w, r, responseHeader)
		if err != nil {
			// Upgrade has already written an HTTP error response.
			logx.Error(err, "WebSocket upgrade failed")
			return
		}

		deps.Manager.Serve(conn, creds)
	}
}

// credentialsFromRequest collects the token candidates of an upgrade request and
// the subprotocol to echo back. Browsers cannot set headers on a WebSocket, so a
// token may also arrive as the subprotocol list "Bearer, <token>" or as a single
// subprotocol carrying the token itself.
func credentialsFromRequest(r *http.Request) (chat.Credentials, string) {
	creds := chat.Credentials{QueryToken: r.URL.Query().Get(tokenQueryKey)}

	protocols := websocket.Subprotocols(r)
	switch {
	case len(protocols) == 2 && strings.EqualFold(protocols[0], bearerSubprotocol):
		creds.Header = bearerSubprotocol + " " + protocols[1]
		return creds, protocols[0]

	case len(protocols) == 1:
		creds.Header = protocols[0]
		return creds, protocols[0]
	}

	creds.Header = r.Header.Get(authorizationHeader)
	return creds, ""
}

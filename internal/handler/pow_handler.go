package handler

import (
	"errors"
	"net/http"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/pow"
	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

type ChallengeInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandleGetChallenge issues a fresh nonce. The client must find a counter such that
// sha256(nonce+counter) starts with difficulty hex zeros.
func HandleGetChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.PoW == nil || !deps.PoW.Enabled() {
			resp.RespondSuccess(w, r, map[string]any{"difficulty": 0})
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"nonce":      deps.PoW.GenerateNonce(),
			"difficulty": deps.PoW.Difficulty(),
		})
	}
}

// HandleVerifyChallenge exchanges a solved challenge for a single-use proof token,
// to be sent in the X-PoW-Token header of the protected request.
func HandleVerifyChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.PoW == nil || !deps.PoW.Enabled() {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input ChallengeInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.PoW.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			if !errors.Is(err, pow.ErrProofTooWeak) && !errors.Is(err, pow.ErrNonceInvalid) {
				logx.Error(err, "pow: unexpected validation error")
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"powToken": token,
			"header":   pow.TokenHeaderKey,
		})
	}
}

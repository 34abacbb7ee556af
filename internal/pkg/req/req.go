/*
Package req provides helper functions for HTTP request body parsing and data binding.

It wraps JSON decoding with size limits and maps decoding failures to the
application's error codes.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"relaychat/internal/pkg/errs"
)

// MaxJSONBodySize is the maximum accepted size (64 KB) of a JSON request body.
const MaxJSONBodySize int64 = 64 << 10

// BindJSON strictly binds the JSON body of r to dst: the Content-Type must be
// JSON, unknown fields are rejected and trailing data is an error.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	return bind(w, r, dst, true)
}

// DecodeJSON binds the JSON body of r to dst while ignoring unknown fields,
// for payloads that must stay forward compatible.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	return bind(w, r, dst, false)
}

func bind(w http.ResponseWriter, r *http.Request, dst any, strict bool) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

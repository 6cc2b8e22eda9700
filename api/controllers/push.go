package controllers

import (
	"net/http"

	"github.com/threadline/threadline-backend/api/responses"
	"github.com/threadline/threadline-backend/api/validators"
	"github.com/threadline/threadline-backend/internal/notifications"
	"github.com/threadline/threadline-backend/internal/tokens"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

type registerTokenRequest struct {
	UserName string `json:"userName" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

type sendPushRequest struct {
	UserName string            `json:"userName"`
	Token    string            `json:"token"`
	Title    string            `json:"title"`
	Body     string            `json:"body" validate:"required"`
	Data     map[string]string `json:"data"`
}

// RegisterToken stores a device token for a user. The response shape is the
// one mobile clients already depend on, no envelope.
func RegisterToken(svc tokens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerTokenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Register(r.Context(), req.UserName, req.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

type revokeTokensRequest struct {
	UserName string `json:"userName" validate:"required"`
}

// RevokeTokens drops every device token registered for a user. Admin cleanup
// for departed workers; dispatches to that user become record-only afterward.
func RevokeTokens(svc tokens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revokeTokensRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.Revoke(r.Context(), req.UserName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "removed": removed})
	}
}

// SendPush delivers a direct push. An explicit token wins over the user's
// registered set; with neither the call reports zero deliveries rather than
// failing.
func SendPush(notifSvc notifications.Service, tokenSvc tokens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendPushRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.Token == "" && req.UserName == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "userName or token is required"))
			return
		}

		// Metrics label for the send. Token-only requests carry no user, so
		// they share one bucket instead of leaking tokens into label values.
		recipient := req.UserName
		if recipient == "" {
			recipient = "direct"
		}

		var deviceTokens []string
		if req.Token != "" {
			deviceTokens = []string{req.Token}
		} else {
			var err error
			deviceTokens, err = tokenSvc.TokensFor(r.Context(), req.UserName)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if len(deviceTokens) == 0 {
			responses.WriteJSON(w, http.StatusOK, map[string]any{
				"ok":      0,
				"message": "No tokens",
			})
			return
		}

		delivered := notifSvc.SendToTokens(r.Context(), recipient, deviceTokens, req.Title, req.Body, req.Data)
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"ok":    delivered,
			"total": len(deviceTokens),
		})
	}
}

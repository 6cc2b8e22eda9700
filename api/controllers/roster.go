package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/threadline/threadline-backend/api/responses"
	"github.com/threadline/threadline-backend/api/validators"
	"github.com/threadline/threadline-backend/internal/roster"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

type rosterWorkerRequest struct {
	Name string `json:"name" validate:"required"`
}

func parseRole(r *http.Request) (enums.WorkerRole, error) {
	role, err := enums.ParseWorkerRole(chi.URLParam(r, "role"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown worker role")
	}
	return role, nil
}

// ListRoster returns every role's ordered worker list.
func ListRoster(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// ListRoleWorkers returns one role's ordered worker list.
func ListRoleWorkers(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := parseRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		names, err := svc.ListWorkers(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"role":    role,
			"workers": names,
		})
	}
}

// AddRoleWorker appends a worker to the role's list.
func AddRoleWorker(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := parseRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rosterWorkerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.AddWorker(r.Context(), role, req.Name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"role": role,
			"name": req.Name,
		})
	}
}

// RemoveRoleWorker removes a worker from the role's list.
func RemoveRoleWorker(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := parseRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rosterWorkerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveWorker(r.Context(), role, req.Name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"role": role,
			"name": req.Name,
		})
	}
}

// SetDefaultRoleWorker moves a worker to the front of the role's list.
func SetDefaultRoleWorker(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := parseRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rosterWorkerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetDefaultWorker(r.Context(), role, req.Name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"role":    role,
			"default": req.Name,
		})
	}
}

// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"zapdispatch/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the app error taxonomy onto HTTP statuses: not-found
// 404, state conflicts 409, misconfiguration 503, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		campaignNotFound *apperrors.ErrCampaignNotFound
		contactNotFound  *apperrors.ErrContactNotFound
		invalidState     *apperrors.ErrInvalidState
		contactInUse     *apperrors.ErrContactInUse
		configMissing    *apperrors.ErrConfigurationMissing
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &campaignNotFound), errors.As(err, &contactNotFound):
		status = http.StatusNotFound
	case errors.As(err, &invalidState), errors.As(err, &contactInUse):
		status = http.StatusConflict
	case errors.As(err, &configMissing):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

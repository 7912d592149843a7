// internal/controller/dashboard_controller.go
package controller

import (
	"errors"
	"net/http"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/config"
	"zapdispatch/internal/service"
)

type DashboardController struct {
	StatsService *service.StatsService
	Gateway      config.GatewaySettings
}

func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.StatsService.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GatewayStatus reports whether the gateway settings are complete without
// exposing their values. Credentials live in server configuration only.
func (c *DashboardController) GatewayStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"configured": true}
	if err := c.Gateway.Validate(); err != nil {
		resp["configured"] = false
		var missing *apperrors.ErrConfigurationMissing
		if errors.As(err, &missing) {
			resp["missing"] = missing.Missing
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

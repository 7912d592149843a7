// internal/controller/quick_send_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"zapdispatch/internal/service"
)

type QuickSendController struct {
	QuickSendService *service.QuickSendService
}

type quickSendRequest struct {
	ContactIDs   []string `json:"contact_ids"`
	ManualNumber string   `json:"manual_number"`
	Message      string   `json:"message"`
}

func (c *QuickSendController) Send(w http.ResponseWriter, r *http.Request) {
	var body quickSendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		badRequest(w, "message cannot be empty")
		return
	}
	if len(body.ContactIDs) == 0 && strings.TrimSpace(body.ManualNumber) == "" {
		badRequest(w, "select at least one contact or type a number")
		return
	}

	result, err := c.QuickSendService.Send(r.Context(), body.ContactIDs, body.ManualNumber, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"zapdispatch/internal/progress"
	"zapdispatch/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Progress        progress.Subscriber
	Validate        *validator.Validate
}

type createCampaignRequest struct {
	Name       string   `json:"name" validate:"required"`
	Message    string   `json:"message" validate:"required"`
	ContactIDs []string `json:"contact_ids" validate:"required,min=1,dive,uuid4"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		badRequest(w, err.Error())
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), body.Name, body.Message, body.ContactIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	details, err := c.CampaignService.GetCampaignDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.CampaignService.StartCampaign(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"campaign_id": id,
		"status":      "queued",
	})
}

func (c *CampaignController) RequeueFailed(w http.ResponseWriter, r *http.Request) {
	campaign, n, err := c.CampaignService.RequeueFailed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": campaign,
		"requeued": n,
	})
}

// StreamEvents pushes progress events for one campaign over SSE until the
// client goes away. This is the read side of the progress channel; nothing
// here feeds back into the dispatch loop.
func (c *CampaignController) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := c.Progress.Subscribe(r.Context(), chi.URLParam(r, "id"))
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// internal/controller/contact_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"zapdispatch/internal/model"
	"zapdispatch/internal/repository"
	"zapdispatch/internal/service"
)

type ContactController struct {
	ContactRepo    repository.ContactRepositoryInterface
	ContactService *service.ContactService
	Validate       *validator.Validate
}

type contactRequest struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp" validate:"required"`
}

func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body contactRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		badRequest(w, err.Error())
		return
	}

	contact := &model.Contact{Name: body.Name, WhatsApp: body.WhatsApp}
	if err := c.ContactRepo.Create(r.Context(), contact); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (c *ContactController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var body contactRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		badRequest(w, err.Error())
		return
	}

	contact := &model.Contact{ID: chi.URLParam(r, "id"), Name: body.Name, WhatsApp: body.WhatsApp}
	if err := c.ContactRepo.Update(r.Context(), contact); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (c *ContactController) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := c.ContactRepo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ContactController) GetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := c.ContactRepo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := c.ContactRepo.List(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("category_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

type setContactCategoriesRequest struct {
	CategoryIDs []string `json:"category_ids" validate:"dive,uuid4"`
}

func (c *ContactController) SetCategories(w http.ResponseWriter, r *http.Request) {
	var body setContactCategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := c.ContactRepo.SetCategories(r.Context(), chi.URLParam(r, "id"), body.CategoryIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportCSV accepts the contacts template (nome,whatsapp) as the request
// body.
func (c *ContactController) ImportCSV(w http.ResponseWriter, r *http.Request) {
	result, err := c.ContactService.ImportCSV(r.Context(), r.Body)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ContactController) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="contatos.csv"`)
	if err := c.ContactService.ExportCSV(r.Context(), w); err != nil {
		writeError(w, err)
	}
}

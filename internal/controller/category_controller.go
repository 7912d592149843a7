// internal/controller/category_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"zapdispatch/internal/model"
	"zapdispatch/internal/repository"
)

type CategoryController struct {
	CategoryRepo repository.CategoryRepositoryInterface
	Validate     *validator.Validate
}

type categoryRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (c *CategoryController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		badRequest(w, err.Error())
		return
	}

	category := &model.Category{Name: body.Name, Color: body.Color}
	if err := c.CategoryRepo.Create(r.Context(), category); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (c *CategoryController) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		badRequest(w, err.Error())
		return
	}

	category := &model.Category{ID: chi.URLParam(r, "id"), Name: body.Name, Color: body.Color}
	if err := c.CategoryRepo.Update(r.Context(), category); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (c *CategoryController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := c.CategoryRepo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CategoryController) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.CategoryRepo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

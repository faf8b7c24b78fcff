package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"groceteria/database"
	"groceteria/models"
)

// CategoryController handles category-related requests
type CategoryController struct {
	Categories *database.CategoryRepository
	Logger     *zap.Logger
}

func NewCategoryController(categories *database.CategoryRepository, logger *zap.Logger) *CategoryController {
	return &CategoryController{Categories: categories, Logger: logger}
}

// CreateCategory adds a new category (admin/manager only).
func (cc *CategoryController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if err := decodeBody(r, &category); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	category.ID = primitive.NilObjectID
	category.Slug = slug.Make(category.Name)
	category.NumberOfProducts = 0

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := cc.Categories.Insert(ctx, &category); err != nil {
		cc.Logger.Error("category create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusCreated, category)
}

// GetCategories lists all categories.
func (cc *CategoryController) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	categories, err := cc.Categories.FindAll(ctx)
	if err != nil {
		cc.Logger.Error("list categories failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(categories),
		"data":    categories,
	})
}

// GetCategoryByID retrieves a single category.
func (cc *CategoryController) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	category, err := cc.Categories.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No category found with that id")
		return
	}
	if err != nil {
		cc.Logger.Error("category lookup failed", zap.String("category", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, category)
}

// UpdateCategory replaces a category (admin/manager only).
func (cc *CategoryController) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := cc.Categories.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No category found with that id")
		return
	}
	if err != nil {
		cc.Logger.Error("category lookup failed", zap.String("category", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	var category models.Category
	if err := decodeBody(r, &category); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	category.ID = id
	category.Slug = slug.Make(category.Name)
	category.NumberOfProducts = existing.NumberOfProducts
	category.CreatedAt = existing.CreatedAt

	if err := cc.Categories.Update(ctx, &category); err != nil {
		cc.Logger.Error("category update failed", zap.String("category", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, category)
}

// DeleteCategory removes a category (admin/manager only).
func (cc *CategoryController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = cc.Categories.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No category found with that id")
		return
	}
	if err != nil {
		cc.Logger.Error("category delete failed", zap.String("category", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

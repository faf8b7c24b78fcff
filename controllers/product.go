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

// ProductController handles product-related requests
type ProductController struct {
	Products   *database.ProductRepository
	Categories *database.CategoryRepository
	Logger     *zap.Logger
}

func NewProductController(products *database.ProductRepository, categories *database.CategoryRepository, logger *zap.Logger) *ProductController {
	return &ProductController{Products: products, Categories: categories, Logger: logger}
}

// CreateProduct adds a new product and bumps its category's product count
// (admin/manager only).
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := decodeBody(r, &product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	product.ID = primitive.NilObjectID
	product.Slug = slug.Make(product.Name)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := pc.Categories.FindByID(ctx, product.Category); err != nil {
		respondError(w, http.StatusBadRequest, "No category found with that id")
		return
	}

	if err := pc.Products.Insert(ctx, &product); err != nil {
		pc.Logger.Error("product create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if err := pc.Categories.AdjustProductCount(ctx, product.Category, 1); err != nil {
		pc.Logger.Warn("category count update failed",
			zap.String("category", product.Category.Hex()), zap.Error(err))
	}

	respondData(w, http.StatusCreated, product)
}

// GetProducts lists all products, optionally filtered by category.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var (
		products []models.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		categoryID, cerr := primitive.ObjectIDFromHex(category)
		if cerr != nil {
			respondError(w, http.StatusBadRequest, "Invalid category id")
			return
		}
		products, err = pc.Products.FindByCategory(ctx, categoryID)
	} else {
		products, err = pc.Products.FindAll(ctx)
	}
	if err != nil {
		pc.Logger.Error("list products failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(products),
		"data":    products,
	})
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := pc.Products.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No product found with that id")
		return
	}
	if err != nil {
		pc.Logger.Error("product lookup failed", zap.String("product", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, product)
}

// UpdateProduct replaces a product (admin/manager only).
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product models.Product
	if err := decodeBody(r, &product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	product.ID = id
	product.Slug = slug.Make(product.Name)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = pc.Products.Update(ctx, &product)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No product found with that id")
		return
	}
	if err != nil {
		pc.Logger.Error("product update failed", zap.String("product", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, product)
}

// DeleteProduct removes a product and decrements its category's product
// count (admin/manager only).
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := pc.Products.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No product found with that id")
		return
	}
	if err != nil {
		pc.Logger.Error("product delete failed", zap.String("product", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if err := pc.Categories.AdjustProductCount(ctx, product.Category, -1); err != nil {
		pc.Logger.Warn("category count update failed",
			zap.String("category", product.Category.Hex()), zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"groceteria/database"
	"groceteria/models"
)

// cartRetries bounds the optimistic-concurrency retry loop on cart writes.
const cartRetries = 3

// CartStore is the slice of the cart repository the controller needs.
type CartStore interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Insert(ctx context.Context, cart *models.Cart) error
	Update(ctx context.Context, cart *models.Cart) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// ProductFinder resolves product ids to catalog products.
type ProductFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// CartController handles cart-related requests
type CartController struct {
	Carts    CartStore
	Products ProductFinder
	Logger   *zap.Logger
}

func NewCartController(carts CartStore, products ProductFinder, logger *zap.Logger) *CartController {
	return &CartController{Carts: carts, Products: products, Logger: logger}
}

type cartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type cartRemoveRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// GetMyCart returns the user's cart, or data: null when they have none.
// Absence is not an error here.
func (cc *CartController) GetMyCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cart, err := cc.Carts.GetByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		respondData(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		cc.Logger.Error("get cart failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, cart)
}

// AddToCart adds quantity of a product to the user's cart, creating the
// cart on first add. Lines are priced at the product's current effective
// price and totals recomputed by summation.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "Quantity must be above 0")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := cc.Products.FindByID(ctx, productID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No product found with that id")
		return
	}
	if err != nil {
		cc.Logger.Error("product lookup failed", zap.String("product", req.ProductID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	for attempt := 0; ; attempt++ {
		cart, err := cc.Carts.GetByUser(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			cart = &models.Cart{User: userID}
			cart.AddProduct(product, req.Quantity)
			err = cc.Carts.Insert(ctx, cart)
			if errors.Is(err, database.ErrConflict) && attempt < cartRetries {
				continue // another request created the cart first
			}
			if err != nil {
				cc.Logger.Error("cart create failed", zap.String("user", userID.Hex()), zap.Error(err))
				respondError(w, http.StatusInternalServerError, "")
				return
			}
			respondData(w, http.StatusCreated, cart)
			return
		}
		if err != nil {
			cc.Logger.Error("get cart failed", zap.String("user", userID.Hex()), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "")
			return
		}

		cart.AddProduct(product, req.Quantity)
		err = cc.Carts.Update(ctx, cart)
		if errors.Is(err, database.ErrConflict) && attempt < cartRetries {
			continue
		}
		if err != nil {
			cc.Logger.Error("cart update failed", zap.String("user", userID.Hex()), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "")
			return
		}
		respondData(w, http.StatusOK, cart)
		return
	}
}

// UpdateCart sets the absolute quantity of a cart line. Quantity 0 removes
// the line; a cart emptied this way is deleted entirely.
func (cc *CartController) UpdateCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "Quantity must not be negative")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := cc.Products.FindByID(ctx, productID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No product found with that id")
		return
	}
	if err != nil {
		cc.Logger.Error("product lookup failed", zap.String("product", req.ProductID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	for attempt := 0; ; attempt++ {
		cart, err := cc.Carts.GetByUser(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No cart found for that user")
			return
		}
		if err != nil {
			cc.Logger.Error("get cart failed", zap.String("user", userID.Hex()), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "")
			return
		}

		if !cart.SetQuantity(product, req.Quantity) {
			respondError(w, http.StatusNotFound, "No product found in the cart with that id")
			return
		}

		if cart.IsEmpty() {
			if err := cc.Carts.DeleteByUser(ctx, userID); err != nil {
				cc.Logger.Error("cart delete failed", zap.String("user", userID.Hex()), zap.Error(err))
				respondError(w, http.StatusInternalServerError, "")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		err = cc.Carts.Update(ctx, cart)
		if errors.Is(err, database.ErrConflict) && attempt < cartRetries {
			continue
		}
		if err != nil {
			cc.Logger.Error("cart update failed", zap.String("user", userID.Hex()), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "")
			return
		}
		respondData(w, http.StatusOK, cart)
		return
	}
}

// DeleteProductFromCart removes a whole line from the cart. Removing the
// last line deletes the cart document.
func (cc *CartController) DeleteProductFromCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartRemoveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for attempt := 0; ; attempt++ {
		cart, err := cc.Carts.GetByUser(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No cart found for that user")
			return
		}
		if err != nil {
			cc.Logger.Error("get cart failed", zap.String("user", userID.Hex()), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "")
			return
		}

		if !cart.RemoveProduct(productID) {
			respondError(w, http.StatusNotFound, "No product found with that id in the cart")
			return
		}

		if cart.IsEmpty() {
			if err := cc.Carts.DeleteByUser(ctx, userID); err != nil {
				cc.Logger.Error("cart delete failed", zap.String("user", userID.Hex()), zap.Error(err))
				respondError(w, http.StatusInternalServerError, "")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		err = cc.Carts.Update(ctx, cart)
		if errors.Is(err, database.ErrConflict) && attempt < cartRetries {
			continue
		}
		if err != nil {
			cc.Logger.Error("cart update failed", zap.String("user", userID.Hex()), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "")
			return
		}
		respondData(w, http.StatusOK, cart)
		return
	}
}

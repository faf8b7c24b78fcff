package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"groceteria/database"
	"groceteria/middleware"
	"groceteria/models"
)

// ReviewController handles review-related requests
type ReviewController struct {
	Reviews  *database.ReviewRepository
	Products *database.ProductRepository
	Logger   *zap.Logger
}

func NewReviewController(reviews *database.ReviewRepository, products *database.ProductRepository, logger *zap.Logger) *ReviewController {
	return &ReviewController{Reviews: reviews, Products: products, Logger: logger}
}

type reviewRequest struct {
	Review    string  `json:"review" validate:"required"`
	Rating    float64 `json:"rating" validate:"gte=0.5,lte=5"`
	ProductID string  `json:"productId" validate:"required"`
}

// CreateReview posts a review. The unique (product, user) index allows one
// review per user per product.
func (rc *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req reviewRequest
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

	if _, err := rc.Products.FindByID(ctx, productID); err != nil {
		respondError(w, http.StatusNotFound, "No product found with that id")
		return
	}

	review := &models.Review{
		Review:  req.Review,
		Rating:  req.Rating,
		Product: productID,
		User:    userID,
		Replies: []models.Reply{},
	}
	err = rc.Reviews.Insert(ctx, review)
	if errors.Is(err, database.ErrConflict) {
		respondError(w, http.StatusBadRequest, "You have already reviewed this product")
		return
	}
	if err != nil {
		rc.Logger.Error("review create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusCreated, review)
}

// GetProductReviews lists all reviews for a product.
func (rc *ReviewController) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reviews, err := rc.Reviews.FindByProduct(ctx, productID)
	if err != nil {
		rc.Logger.Error("list reviews failed", zap.String("product", productID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(reviews),
		"data":    reviews,
	})
}

type replyRequest struct {
	Text string `json:"text" validate:"required"`
}

// ReplyToReview appends a reply under a review.
func (rc *ReviewController) ReplyToReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	reviewID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	var req replyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	reply := models.Reply{Text: req.Text, User: userID, CreatedAt: time.Now()}
	err = rc.Reviews.AddReply(ctx, reviewID, reply)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No review found with that id")
		return
	}
	if err != nil {
		rc.Logger.Error("reply failed", zap.String("review", reviewID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusCreated, reply)
}

// DeleteReview removes a review. Authors delete their own; admins any.
func (rc *ReviewController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	claims, _ := middleware.CurrentClaims(r)
	if !ok || claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	reviewID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	review, err := rc.Reviews.FindByID(ctx, reviewID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No review found with that id")
		return
	}
	if err != nil {
		rc.Logger.Error("review lookup failed", zap.String("review", reviewID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if review.User != userID && claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "This review belongs to another user")
		return
	}

	if err := rc.Reviews.Delete(ctx, reviewID); err != nil {
		rc.Logger.Error("review delete failed", zap.String("review", reviewID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

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
	"groceteria/models"
)

// NewsController handles news-related requests
type NewsController struct {
	News   *database.NewsRepository
	Logger *zap.Logger
}

func NewNewsController(news *database.NewsRepository, logger *zap.Logger) *NewsController {
	return &NewsController{News: news, Logger: logger}
}

// CreateNews publishes an article (admin/manager only).
func (nc *NewsController) CreateNews(w http.ResponseWriter, r *http.Request) {
	var news models.News
	if err := decodeBody(r, &news); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	news.ID = primitive.NilObjectID

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := nc.News.Insert(ctx, &news); err != nil {
		nc.Logger.Error("news create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusCreated, news)
}

// GetNews lists all articles, newest first.
func (nc *NewsController) GetNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := nc.News.FindAll(ctx)
	if err != nil {
		nc.Logger.Error("list news failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": len(items),
		"data":    items,
	})
}

// GetNewsByID retrieves a single article.
func (nc *NewsController) GetNewsByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid news id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	news, err := nc.News.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No news found with that id")
		return
	}
	if err != nil {
		nc.Logger.Error("news lookup failed", zap.String("news", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, news)
}

// UpdateNews replaces an article (admin/manager only).
func (nc *NewsController) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid news id")
		return
	}

	var news models.News
	if err := decodeBody(r, &news); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	news.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = nc.News.Update(ctx, &news)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No news found with that id")
		return
	}
	if err != nil {
		nc.Logger.Error("news update failed", zap.String("news", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, news)
}

// DeleteNews removes an article (admin/manager only).
func (nc *NewsController) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid news id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = nc.News.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No news found with that id")
		return
	}
	if err != nil {
		nc.Logger.Error("news delete failed", zap.String("news", id.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

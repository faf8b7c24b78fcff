package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"groceteria/middleware"
)

var validate = validator.New()

// respondData writes the success envelope used across the API.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// respondError writes the failure envelope: "fail" for client errors,
// "error" for server errors. Server-side detail never leaks here.
func respondError(w http.ResponseWriter, status int, message string) {
	kind := "fail"
	if status >= http.StatusInternalServerError {
		kind = "error"
		message = "Something went wrong"
	}
	respondJSON(w, status, map[string]string{
		"status":  kind,
		"message": message,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// decodeBody parses the JSON body into dst and runs struct validation.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// currentUserID returns the authenticated user's id from the JWT claims.
func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := middleware.CurrentClaims(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

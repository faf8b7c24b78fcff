package controllers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"groceteria/database"
	"groceteria/models"
	"groceteria/utils"
)

// UserController handles user-related requests
type UserController struct {
	Users  *database.UserRepository
	Email  *utils.EmailService
	Logger *zap.Logger
}

func NewUserController(users *database.UserRepository, email *utils.EmailService, logger *zap.Logger) *UserController {
	return &UserController{Users: users, Email: email, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=5,max=20"`
	Username string `json:"username" validate:"required,min=5,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a pending account and emails a verification code.
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.Logger.Error("password hash failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	code, err := verificationCode()
	if err != nil {
		uc.Logger.Error("verification code generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	user := &models.User{
		Name:             req.Name,
		Username:         req.Username,
		Email:            req.Email,
		Password:         string(hashedPassword),
		Role:             models.RoleUser,
		Status:           "pending",
		Addresses:        []models.Address{},
		Wishlisted:       []primitive.ObjectID{},
		Compare:          []primitive.ObjectID{},
		OrderedProducts:  []primitive.ObjectID{},
		VerificationCode: code,
		VerificationExp:  time.Now().Add(10 * time.Minute),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := uc.Users.Insert(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		uc.Logger.Error("user create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	go func() {
		if err := uc.Email.SendVerificationEmail(user.Email, code); err != nil {
			uc.Logger.Warn("verification email failed", zap.String("email", user.Email), zap.Error(err))
		}
	}()

	respondData(w, http.StatusCreated, "Account created. Please check your email for the verification code.")
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// VerifyEmail activates an account with the emailed code.
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid email or code")
		return
	}
	if user.Status != "pending" || user.VerificationCode == "" ||
		user.VerificationCode != req.Code || time.Now().After(user.VerificationExp) {
		respondError(w, http.StatusBadRequest, "Invalid email or code")
		return
	}

	err = uc.Users.SetFields(ctx, user.ID, bson.M{
		"status":            "active",
		"verification_code": "",
	})
	if err != nil {
		uc.Logger.Error("verification update failed", zap.String("user", user.ID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	respondData(w, http.StatusOK, "Email verified successfully. You can now log in.")
}

type resendCodeRequest struct {
	Username string `json:"username" validate:"required"`
}

// ResendVerificationCode issues a fresh code for a still-pending account.
func (uc *UserController) ResendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req resendCodeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		respondError(w, http.StatusNotFound, "User with entered username not found")
		return
	}
	if user.Status != "pending" {
		respondError(w, http.StatusBadRequest, "Account is already active")
		return
	}

	code, err := verificationCode()
	if err != nil {
		uc.Logger.Error("verification code generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	err = uc.Users.SetFields(ctx, user.ID, bson.M{
		"verification_code":    code,
		"verification_expires": time.Now().Add(10 * time.Minute),
	})
	if err != nil {
		uc.Logger.Error("verification code update failed", zap.String("user", user.ID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	go func() {
		if err := uc.Email.SendVerificationEmail(user.Email, code); err != nil {
			uc.Logger.Warn("verification email failed", zap.String("email", user.Email), zap.Error(err))
		}
	}()

	respondData(w, http.StatusOK, fmt.Sprintf("Verification code was sent to %s. Please enter the code to get access.", user.Email))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a verified user and returns a JWT.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if user.Status != "active" {
		respondError(w, http.StatusUnauthorized, "Account is not active")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		uc.Logger.Error("token generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	respondData(w, http.StatusOK, map[string]string{"token": token})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword emails a password reset link. Only the SHA-256 of the
// token is stored; the raw token leaves the system in the email alone.
func (uc *UserController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		respondError(w, http.StatusNotFound, "No user found with this email")
		return
	}

	token, hash, err := resetToken()
	if err != nil {
		uc.Logger.Error("reset token generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	err = uc.Users.SetFields(ctx, user.ID, bson.M{
		"reset_token":         hash,
		"reset_token_expires": time.Now().Add(10 * time.Minute),
	})
	if err != nil {
		uc.Logger.Error("reset token update failed", zap.String("user", user.ID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	resetURL := fmt.Sprintf("%s/auth/reset-password/%s", r.Header.Get("Origin"), token)
	go func() {
		if err := uc.Email.SendPasswordResetEmail(user.Email, resetURL); err != nil {
			uc.Logger.Warn("reset email failed", zap.String("email", user.Email), zap.Error(err))
		}
	}()

	respondData(w, http.StatusOK, fmt.Sprintf("Reset token was sent to %s", user.Email))
}

// CheckResetToken reports whether a reset token is still usable, so the
// client can show the reset form before asking for a new password.
func (uc *UserController) CheckResetToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByResetToken(ctx, hashResetToken(mux.Vars(r)["token"]))
	if err != nil {
		respondError(w, http.StatusNotFound, "Invalid token")
		return
	}
	if time.Now().After(user.ResetTokenExp) {
		respondError(w, http.StatusBadRequest, "Expired token")
		return
	}
	respondData(w, http.StatusOK, nil)
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// ResetPassword sets a new password for the account holding the emailed
// token, then logs the user in.
func (uc *UserController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByResetToken(ctx, hashResetToken(mux.Vars(r)["token"]))
	if err != nil || time.Now().After(user.ResetTokenExp) {
		respondError(w, http.StatusBadRequest, "Token is invalid or has expired")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) == nil {
		respondError(w, http.StatusForbidden, "The new password matches the current one. Please choose a different password.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.Logger.Error("password hash failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	err = uc.Users.SetFields(ctx, user.ID, bson.M{
		"password":            string(hashedPassword),
		"reset_token":         "",
		"reset_token_expires": time.Time{},
	})
	if err != nil {
		uc.Logger.Error("password update failed", zap.String("user", user.ID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		uc.Logger.Error("token generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"token": token})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
}

// UpdatePassword changes the authenticated user's password and returns a
// fresh token.
func (uc *UserController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req updatePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		respondError(w, http.StatusUnauthorized, "Your current password is not correct")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.Logger.Error("password hash failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	if err := uc.Users.SetFields(ctx, user.ID, bson.M{"password": string(hashedPassword)}); err != nil {
		uc.Logger.Error("password update failed", zap.String("user", user.ID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		uc.Logger.Error("token generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"token": token})
}

// GetProfile returns the authenticated user's account, including their
// addresses, wishlist and purchase history.
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	user.Password = ""
	user.VerificationCode = ""
	respondData(w, http.StatusOK, user)
}

// AddAddress appends a delivery address to the user's address book.
func (uc *UserController) AddAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var address models.Address
	if err := decodeBody(r, &address); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	address.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := uc.Users.AddAddress(ctx, userID, address); err != nil {
		uc.Logger.Error("add address failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusCreated, address)
}

type wishlistRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// AddToWishlist adds a product to the user's wishlist (set semantics).
func (uc *UserController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	uc.updateProductSet(w, r, uc.Users.AddToWishlist)
}

// RemoveFromWishlist drops a product from the user's wishlist.
func (uc *UserController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	uc.updateProductSet(w, r, uc.Users.RemoveFromWishlist)
}

// AddToCompare adds a product to the user's compare list.
func (uc *UserController) AddToCompare(w http.ResponseWriter, r *http.Request) {
	uc.updateProductSet(w, r, uc.Users.AddToCompare)
}

// RemoveFromCompare drops a product from the user's compare list.
func (uc *UserController) RemoveFromCompare(w http.ResponseWriter, r *http.Request) {
	uc.updateProductSet(w, r, uc.Users.RemoveFromCompare)
}

func (uc *UserController) updateProductSet(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, userID, productID primitive.ObjectID) error) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req wishlistRequest
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

	if err := apply(ctx, userID, productID); err != nil {
		uc.Logger.Error("product set update failed", zap.String("user", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "")
		return
	}
	respondData(w, http.StatusOK, nil)
}

// verificationCode returns a 6-digit numeric code.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// resetToken returns a fresh password reset token and the hash stored in
// its place.
func resetToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

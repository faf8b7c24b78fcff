package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"groceteria/controllers"
	"groceteria/middleware"
	"groceteria/models"
)

// Controllers bundles everything RegisterRoutes wires up.
type Controllers struct {
	Users      *controllers.UserController
	Products   *controllers.ProductController
	Categories *controllers.CategoryController
	News       *controllers.NewsController
	Reviews    *controllers.ReviewController
	Carts      *controllers.CartController
	Orders     *controllers.OrderController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers) {
	shopper := middleware.RestrictTo(models.RoleUser)
	anyRole := middleware.RestrictTo(models.RoleUser, models.RoleAdmin, models.RoleManager)
	staff := middleware.RestrictTo(models.RoleAdmin, models.RoleManager)
	admin := middleware.RestrictTo(models.RoleAdmin)

	// Public routes
	router.HandleFunc("/register", c.Users.Register).Methods("POST")
	router.HandleFunc("/login", c.Users.Login).Methods("POST")
	router.HandleFunc("/verify", c.Users.VerifyEmail).Methods("POST")
	router.HandleFunc("/verify/resend", c.Users.ResendVerificationCode).Methods("POST")
	router.HandleFunc("/forgot-password", c.Users.ForgotPassword).Methods("POST")
	router.HandleFunc("/reset-password/{token}", c.Users.CheckResetToken).Methods("GET")
	router.HandleFunc("/reset-password/{token}", c.Users.ResetPassword).Methods("PATCH")

	// Stripe calls this; it authenticates with its signature header, not a JWT
	router.HandleFunc("/webhook-checkout", c.Orders.WebhookCheckout).Methods("POST")

	// Catalog reads are public
	router.HandleFunc("/products", c.Products.GetProducts).Methods("GET")
	router.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods("GET")
	router.HandleFunc("/products/{productId}/reviews", c.Reviews.GetProductReviews).Methods("GET")
	router.HandleFunc("/categories", c.Categories.GetCategories).Methods("GET")
	router.HandleFunc("/categories/{id}", c.Categories.GetCategoryByID).Methods("GET")
	router.HandleFunc("/news", c.News.GetNews).Methods("GET")
	router.HandleFunc("/news/{id}", c.News.GetNewsByID).Methods("GET")

	// Everything below requires a valid token
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	handle := func(path string, restrict func(http.Handler) http.Handler, h http.HandlerFunc, methods ...string) {
		protected.Handle(path, restrict(h)).Methods(methods...)
	}

	// Account
	handle("/profile", anyRole, c.Users.GetProfile, "GET")
	handle("/profile/password", anyRole, c.Users.UpdatePassword, "PATCH")
	handle("/profile/addresses", anyRole, c.Users.AddAddress, "POST")
	handle("/wishlist", anyRole, c.Users.AddToWishlist, "POST")
	handle("/wishlist", anyRole, c.Users.RemoveFromWishlist, "DELETE")
	handle("/compare", anyRole, c.Users.AddToCompare, "POST")
	handle("/compare", anyRole, c.Users.RemoveFromCompare, "DELETE")

	// Catalog writes
	handle("/products", staff, c.Products.CreateProduct, "POST")
	handle("/products/{id}", staff, c.Products.UpdateProduct, "PUT")
	handle("/products/{id}", staff, c.Products.DeleteProduct, "DELETE")
	handle("/categories", staff, c.Categories.CreateCategory, "POST")
	handle("/categories/{id}", staff, c.Categories.UpdateCategory, "PUT")
	handle("/categories/{id}", staff, c.Categories.DeleteCategory, "DELETE")
	handle("/news", staff, c.News.CreateNews, "POST")
	handle("/news/{id}", staff, c.News.UpdateNews, "PUT")
	handle("/news/{id}", staff, c.News.DeleteNews, "DELETE")

	// Reviews
	handle("/reviews", anyRole, c.Reviews.CreateReview, "POST")
	handle("/reviews/{id}/replies", anyRole, c.Reviews.ReplyToReview, "POST")
	handle("/reviews/{id}", anyRole, c.Reviews.DeleteReview, "DELETE")

	// Cart
	handle("/cart", anyRole, c.Carts.GetMyCart, "GET")
	handle("/cart", anyRole, c.Carts.AddToCart, "POST")
	handle("/cart", anyRole, c.Carts.UpdateCart, "PATCH")
	handle("/cart/delete-product", anyRole, c.Carts.DeleteProductFromCart, "PATCH")

	// Checkout and orders, user side
	handle("/orders", shopper, c.Orders.CreateOrder, "POST")
	handle("/orders/checkout-session", shopper, c.Orders.CreateCheckoutSession, "POST")
	handle("/orders/paypal/create-order", shopper, c.Orders.PaypalCreateOrder, "POST")
	handle("/orders/{id}/paypal/capture", shopper, c.Orders.PaypalCapture, "PATCH")
	handle("/orders/my-orders", shopper, c.Orders.GetMyOrders, "GET")
	handle("/orders/{orderId}/cancel", anyRole, c.Orders.CancelOrder, "PATCH")

	// Orders, admin side
	handle("/orders", admin, c.Orders.GetAllOrders, "GET")
	handle("/orders/today", admin, c.Orders.GetTodaysOrders, "GET")
	handle("/orders/status", admin, c.Orders.GetOrdersByStatus, "GET")
	handle("/orders/user/{userId}", admin, c.Orders.GetUserOrders, "GET")
	handle("/orders/{orderId}/paid", admin, c.Orders.MarkPaid, "PATCH")
	handle("/orders/{orderId}/on-the-way", admin, c.Orders.MarkOnTheWay, "PATCH")
	handle("/orders/{orderId}/delivered", admin, c.Orders.MarkDelivered, "PATCH")
	handle("/orders/{orderId}", admin, c.Orders.GetOrder, "GET")
}

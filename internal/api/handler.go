package api

import (
	"net/http"
	"time"

	"storefront-api/internal/auth"
	"storefront-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	accounts   *service.AccountService
	admins     *service.AdminService
	userReset  *service.PasswordResetService
	adminReset *service.PasswordResetService
	catalog    *service.CatalogService
	reviews    *service.ReviewService
	cart       *service.CartService
	orders     *service.OrderService
	tokens     *auth.TokenManager
}

// NewHandler creates a new HTTP handler
func NewHandler(
	accounts *service.AccountService,
	admins *service.AdminService,
	userReset *service.PasswordResetService,
	adminReset *service.PasswordResetService,
	catalog *service.CatalogService,
	reviews *service.ReviewService,
	cart *service.CartService,
	orders *service.OrderService,
	tokens *auth.TokenManager,
) *Handler {
	return &Handler{
		accounts:   accounts,
		admins:     admins,
		userReset:  userReset,
		adminReset: adminReset,
		catalog:    catalog,
		reviews:    reviews,
		cart:       cart,
		orders:     orders,
		tokens:     tokens,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/forgot-password", h.forgotPassword)
		authGroup.POST("/verify-otp", h.verifyOTP)
		authGroup.POST("/reset-password", h.resetPassword)

		protected := authGroup.Group("", RequireAuth(h.tokens))
		protected.GET("/profile", h.getProfile)
		protected.PATCH("/profile", h.updateProfile)
		protected.GET("/addresses", h.listAddresses)
		protected.POST("/addresses", h.addAddress)
		protected.PATCH("/addresses/:index", h.updateAddress)
		protected.DELETE("/addresses/:index", h.removeAddress)
	}

	products := api.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/all", h.allProducts)
		products.GET("/sections", h.productSections)
		products.GET("/top-picks", h.topPicks)
		products.GET("/suggest", OptionalAuth(h.tokens), h.suggest)
		products.GET("/:id", h.getProduct)
		products.GET("/:id/reviews", h.listReviews)

		products.POST("", RequireAuth(h.tokens), RequireAdmin(), h.createProduct)
		products.PUT("/:id", RequireAuth(h.tokens), RequireAdmin(), h.updateProduct)
		products.DELETE("/:id", RequireAuth(h.tokens), RequireAdmin(), h.deleteProduct)

		products.POST("/:id/reviews", RequireAuth(h.tokens), h.submitReview)
		products.PUT("/:id/reviews/:reviewId", RequireAuth(h.tokens), h.updateReview)
		products.DELETE("/:id/reviews/:reviewId", RequireAuth(h.tokens), h.deleteReview)
	}

	cart := api.Group("/cart", RequireAuth(h.tokens))
	{
		cart.GET("", h.listCart)
		cart.GET("/summary", h.cartSummary)
		cart.POST("", h.addToCart)
		cart.PUT("/:itemId", h.updateCartItem)
		cart.DELETE("/:itemId", h.removeCartItem)
		cart.DELETE("", h.clearCart)
	}

	orders := api.Group("/orders", RequireAuth(h.tokens))
	{
		orders.POST("", h.placeOrder)
		orders.GET("", h.listOrders)
		orders.GET("/:orderId", h.getOrder)
		orders.GET("/number/:orderNumber", h.getOrderByNumber)
		orders.PUT("/:orderId/cancel", h.cancelOrder)

		admin := orders.Group("/admin", RequireAdmin())
		admin.GET("/all", h.listAllOrders)
		admin.PUT("/:orderId/status", h.updateOrderStatus)
	}

	admins := api.Group("/admins")
	{
		admins.POST("/login", h.adminLogin)
		admins.POST("/forgot-password", h.adminForgotPassword)
		admins.POST("/verify-otp", h.adminVerifyOTP)
		admins.POST("/reset-password", h.adminResetPassword)
		admins.PUT("/password", RequireAuth(h.tokens), RequireAdmin(), h.adminChangePassword)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"storefront_backend/internal/handlers"
	"storefront_backend/internal/middleware"
)

type Handlers struct {
	Cart     *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Checkout *handlers.CheckoutHandler
	Webhook  *handlers.WebhookHandler
	Products *handlers.ProductHandler
}

// Register wires the HTTP surface. The webhook route stays outside auth and
// rate limiting: it is signature-authenticated and must never bounce a
// legitimate processor delivery.
func Register(r *gin.Engine, h Handlers, jwtSecret []byte, rdb *redis.Client, frontendOrigin string) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/webhook/stripe", h.Webhook.HandleStripe)

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit(rdb))
	api.Use(middleware.AuthRequired(jwtSecret))
	{
		cart := api.Group("/cart")
		cart.GET("", h.Cart.GetCart)
		cart.POST("", middleware.CartRateLimit(rdb), h.Cart.AddToCart)
		cart.PUT("", middleware.CartRateLimit(rdb), h.Cart.UpdateCartItem)
		cart.DELETE("", h.Cart.RemoveCartItem)

		api.POST("/orders/create-from-cart", h.Orders.CreateFromCart)
		api.GET("/orders", h.Orders.ListOrders)
		api.GET("/orders/:id", h.Orders.GetOrder)

		api.POST("/checkout/create-session", h.Checkout.CreateSession)

		api.GET("/products/:id", h.Products.GetProduct)
		api.PUT("/admin/products", middleware.RequireAdmin(), h.Products.UpsertProduct)
	}
}

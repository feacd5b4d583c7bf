package api

import (
	"net/http"
	"strconv"
	"time"

	"marketplace-service/internal/service"
	"marketplace-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders  *service.OrderService
	catalog *service.CatalogService
	users   *service.UserService
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *service.OrderService, catalog *service.CatalogService, users *service.UserService) *Handler {
	return &Handler{
		orders:  orders,
		catalog: catalog,
		users:   users,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/orders", h.createOrder)
	router.GET("/orders", h.listOrders)
	router.GET("/orders/:orderId", h.getOrder)
	router.PUT("/orders/:orderId/status", h.updateOrderStatus)
	router.DELETE("/orders/:orderId", h.deleteOrder)
	router.GET("/stores/:storeId/orders", h.listOrdersByStore)
	router.GET("/users/:userId/orders", h.listOrdersByUser)

	router.POST("/products", h.createProduct)
	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.DELETE("/products/:id", h.deleteProduct)

	router.POST("/stores", h.createStore)
	router.GET("/stores", h.listStores)
	router.GET("/stores/:storeId", h.getStore)
	router.DELETE("/stores/:storeId", h.deleteStore)

	router.POST("/users", h.createUser)
	router.GET("/users", h.listUsers)
	router.GET("/users/:userId", h.getUser)
	router.PUT("/users/:userId", h.updateUser)
	router.DELETE("/users/:userId", h.deleteUser)
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

// requestIDMiddleware tags every request with an id for log correlation
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

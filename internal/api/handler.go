package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"order-import-service/internal/models"
	"order-import-service/internal/ratelimit"
	"order-import-service/internal/service"
	"order-import-service/internal/store"
	"order-import-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	msgRateLimited         = "Limite de requisições excedido."
	msgOrderNotFoundID     = "Pedido não encontrado com ID: %d"
	msgOrderNotFoundNumber = "Pedido não encontrado com número: %s"

	listingBucket = "externo-b-pedidos"
)

// OrderService is the order use-case surface the handlers call
type OrderService interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, page, size int) (*models.OrderPage, error)
	CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*models.Order, error)
	CreateProduct(ctx context.Context, req *service.CreateProductRequest) (*models.Product, error)
}

// Importer runs an import inline
type Importer interface {
	ImportFromSource(ctx context.Context) *models.ImportResult
}

// JobQueue hands an import to the background worker
type JobQueue interface {
	Submit() (string, error)
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	orderService OrderService
	importer     Importer
	jobs         JobQueue
	limiter      ratelimit.Limiter
	db           Pinger
}

// NewHandler creates a new HTTP handler. A nil jobs queue makes the import
// endpoint run synchronously.
func NewHandler(
	orderService OrderService,
	importer Importer,
	jobs JobQueue,
	limiter ratelimit.Limiter,
	db Pinger,
) *Handler {
	return &Handler{
		orderService: orderService,
		importer:     importer,
		jobs:         jobs,
		limiter:      limiter,
		db:           db,
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
	{
		api.POST("/externo-a/pedidos/importar", h.importOrders)

		b := api.Group("/externo-b")
		b.GET("/pedidos", rateLimitMiddleware(h.limiter, listingBucket), h.listOrders)
		b.GET("/pedidos/:id", h.getOrder)
		b.GET("/pedidos/numero/:numeroPedido", h.getOrderByNumber)
		b.POST("/pedidos", h.createOrder)

		api.POST("/produtos", h.createProduct)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"details": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// importOrders triggers an import from Externo A
func (h *Handler) importOrders(c *gin.Context) {
	if h.jobs == nil {
		// the import must finish even if the caller goes away
		result := h.importer.ImportFromSource(context.WithoutCancel(c.Request.Context()))
		c.JSON(http.StatusOK, result)
		return
	}

	jobID, err := h.jobs.Submit()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrWorkerStopped) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"error":   "Failed to schedule import",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "accepted",
		"job_id": jobID,
	})
}

// listOrders handles the paginated order listing
func (h *Handler) listOrders(c *gin.Context) {
	page, err := queryInt(c, "pagina", 0)
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagina"})
		return
	}

	size, err := queryInt(c, "tamanho", service.DefaultPageSize)
	if err != nil || size < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tamanho"})
		return
	}
	if size > service.MaxPageSize {
		size = service.MaxPageSize
	}
	if page > math.MaxInt/size {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagina"})
		return
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), page, size)
	if err != nil {
		h.writeError(c, err, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, result)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	idStr := c.Param("id")
	orderID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf(msgOrderNotFoundID, orderID),
		})
		return
	}
	if err != nil {
		h.writeError(c, err, "Failed to get order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// getOrderByNumber handles get order by order number
func (h *Handler) getOrderByNumber(c *gin.Context) {
	number := c.Param("numeroPedido")

	order, err := h.orderService.GetOrderByNumber(c.Request.Context(), number)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf(msgOrderNotFoundNumber, number),
		})
		return
	}
	if err != nil {
		h.writeError(c, err, "Failed to get order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// createOrder handles direct order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, order)
}

// createProduct handles standalone product creation
func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.orderService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// writeError maps service errors to a status code
func (h *Handler) writeError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrOrderExists):
		status = http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func queryInt(c *gin.Context, key string, defaultVal int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(raw)
}

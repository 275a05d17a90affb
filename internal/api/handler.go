package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"streamcart/internal/commerce"
	"streamcart/internal/entitlement"
	"streamcart/internal/flight"
	"streamcart/internal/models"
	"streamcart/internal/payment"
	"streamcart/internal/service"
	"streamcart/internal/store"
	"streamcart/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// localeCookie is the storefront's persisted locale cookie.
const localeCookie = "NEXT_LOCALE"

// Handler contains HTTP handlers
type Handler struct {
	carts     *service.CartService
	checkout  *service.CheckoutService
	auditions *service.AuditionService
	resolver  *entitlement.Resolver
	signer    *entitlement.Signer
	applePay  *payment.ApplePayValidator
	store     *store.Store

	defaultLocale    string
	supportedLocales map[string]bool
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartService,
	checkout *service.CheckoutService,
	auditions *service.AuditionService,
	resolver *entitlement.Resolver,
	signer *entitlement.Signer,
	applePay *payment.ApplePayValidator,
	store *store.Store,
	defaultLocale string,
	supportedLocales []string,
) *Handler {
	supported := make(map[string]bool, len(supportedLocales))
	for _, l := range supportedLocales {
		supported[l] = true
	}
	return &Handler{
		carts:            carts,
		checkout:         checkout,
		auditions:        auditions,
		resolver:         resolver,
		signer:           signer,
		applePay:         applePay,
		store:            store,
		defaultLocale:    defaultLocale,
		supportedLocales: supported,
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

	sg := router.Group("/store")
	{
		sg.GET("/carts/:id", h.getCart)
		sg.POST("/cart-items", h.addCartItem)
		sg.DELETE("/cart-items", h.removeCartItem)
		sg.POST("/carts/:id", h.updateCart)
		sg.POST("/carts/:id/shipping-methods", h.setShippingMethod)

		sg.POST("/checkout", h.submitCheckout)
		sg.POST("/apple-pay/validate", h.validateApplePayMerchant)

		sg.GET("/products/:product_id/entitlement", h.getEntitlement)
		sg.GET("/playback/:product_id/token", h.getPlaybackToken)
		sg.GET("/playback/:product_id/progress", h.getPlaybackProgress)
		sg.POST("/playback/:product_id/progress", h.savePlaybackProgress)

		sg.POST("/auditions", h.submitAudition)
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

// getCart returns the current stream cart, or 204 when there is none
func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.carts.Retrieve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if cart == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

type addItemRequest struct {
	CartID      string `json:"cart_id"`
	VariantID   string `json:"variant_id" binding:"required"`
	Quantity    int    `json:"quantity"`
	CountryCode string `json:"country_code" binding:"required"`
}

// addCartItem ensures a variant is in the stream cart
func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	cart, err := h.carts.AddItem(c.Request.Context(), req.CartID, req.VariantID, req.Quantity, req.CountryCode)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// removeCartItem removes a variant from the stream cart
func (h *Handler) removeCartItem(c *gin.Context) {
	var req struct {
		CartID    string `json:"cart_id" binding:"required"`
		VariantID string `json:"variant_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), req.CartID, req.VariantID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if cart == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// updateCart applies a partial address/email update
func (h *Handler) updateCart(c *gin.Context) {
	var update commerce.CartUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cart, err := h.carts.UpdateCart(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// setShippingMethod selects a shipping option for the cart
func (h *Handler) setShippingMethod(c *gin.Context) {
	var req struct {
		MethodID string `json:"method_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cart, err := h.carts.SetShippingMethod(c.Request.Context(), c.Param("id"), req.MethodID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// submitCheckout authorizes payment and places the order
func (h *Handler) submitCheckout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.checkout.Checkout(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// validateApplePayMerchant proxies Apple Pay merchant validation so the
// merchant identity configuration stays server-side
func (h *Handler) validateApplePayMerchant(c *gin.Context) {
	var req struct {
		ValidationURL string `json:"validation_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.applePay.ValidateMerchant(c.Request.Context(), req.ValidationURL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", session)
}

// getEntitlement reports purchase status for a product
func (h *Handler) getEntitlement(c *gin.Context) {
	customerID := c.GetHeader("x-customer-id")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing customer identity"})
		return
	}

	ent, err := h.resolver.Resolve(c.Request.Context(),
		customerID, c.Param("product_id"), c.Query("parent_id"), h.locale(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchased": ent.Purchased})
}

// getPlaybackToken issues a signed playback credential for a purchased product
func (h *Handler) getPlaybackToken(c *gin.Context) {
	customerID := c.GetHeader("x-customer-id")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing customer identity"})
		return
	}

	ent, err := h.resolver.Resolve(c.Request.Context(),
		customerID, c.Param("product_id"), c.Query("parent_id"), h.locale(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if !ent.Purchased {
		c.JSON(http.StatusForbidden, gin.H{"error": "Product not purchased"})
		return
	}

	token, err := h.signer.SignPlayback(ent.PlaybackID, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign playback token"})
		return
	}

	util.PlaybackTokensIssued.Inc()
	c.JSON(http.StatusOK, gin.H{
		"playback_id": ent.PlaybackID,
		"token":       token,
	})
}

// getPlaybackProgress returns the stored resume position
func (h *Handler) getPlaybackProgress(c *gin.Context) {
	customerID := c.GetHeader("x-customer-id")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing customer identity"})
		return
	}

	progress, err := h.store.GetPlaybackProgress(c.Request.Context(), customerID, c.Param("product_id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if progress == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// savePlaybackProgress stores the latest playback position
func (h *Handler) savePlaybackProgress(c *gin.Context) {
	customerID := c.GetHeader("x-customer-id")
	if customerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing customer identity"})
		return
	}

	var req struct {
		PositionSeconds int64 `json:"position_seconds"`
		DurationSeconds int64 `json:"duration_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	progress := &models.PlaybackProgress{
		CustomerID:      customerID,
		ProductID:       c.Param("product_id"),
		PositionSeconds: req.PositionSeconds,
		DurationSeconds: req.DurationSeconds,
	}
	if err := h.store.UpsertPlaybackProgress(c.Request.Context(), progress); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// submitAudition stores an audition form submission
func (h *Handler) submitAudition(c *gin.Context) {
	var sub models.AuditionSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.auditions.Submit(c.Request.Context(), &sub); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sub.ID, "status": sub.Status})
}

// locale reads the storefront locale from the NEXT_LOCALE cookie, falling
// back to the Accept-Language header and then the default
func (h *Handler) locale(c *gin.Context) string {
	if cookie, err := c.Cookie(localeCookie); err == nil && h.supportedLocales[cookie] {
		return cookie
	}

	accept := c.GetHeader("Accept-Language")
	if accept != "" {
		tag := strings.TrimSpace(strings.SplitN(accept, ",", 2)[0])
		if i := strings.IndexAny(tag, "-;"); i > 0 {
			tag = tag[:i]
		}
		if h.supportedLocales[tag] {
			return tag
		}
	}

	return h.defaultLocale
}

// renderError maps error types to HTTP responses. Commerce and processor
// message text is passed through to the storefront unmodified.
func (h *Handler) renderError(c *gin.Context, err error) {
	var commerceErr *commerce.Error
	if errors.As(err, &commerceErr) {
		c.JSON(commerceErr.Status, gin.H{"error": commerceErr.Message})
		return
	}

	var procErr *payment.ProcessorError
	if errors.As(err, &procErr) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": procErr.Message, "code": procErr.Code})
		return
	}

	if errors.Is(err, flight.ErrInFlight) {
		c.JSON(http.StatusConflict, gin.H{"error": "Request already in progress"})
		return
	}

	if errors.Is(err, payment.ErrNonDigit) || errors.Is(err, payment.ErrBadExpiry) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
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

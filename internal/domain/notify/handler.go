package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"orderpulse/internal/common"
	"orderpulse/internal/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	notifier *Notifier
	resolver *Resolver
	store    OrderStore
}

// NewHandler creates a new notification handler.
func NewHandler(notifier *Notifier, resolver *Resolver, store OrderStore) *Handler {
	return &Handler{notifier: notifier, resolver: resolver, store: store}
}

// SendTest handles POST /api/v1/notifications/test
// Runs the full customer and admin fan-out with a synthetic order.
func (h *Handler) SendTest(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	o := order.Order{
		ID:              uuid.New().String(),
		OrderID:         fmt.Sprintf("TEST-%d", time.Now().Unix()),
		CustomerName:    "Test Customer",
		CustomerPhone:   req.Phone,
		TotalAmount:     250,
		DeliveryAddress: "Test Address",
		Items: []order.Item{
			{Name: "Paneer Tikka", Quantity: 1},
			{Name: "Butter Naan", Quantity: 2},
		},
		OrderStatus: "pending",
		CreatedAt:   time.Now(),
	}

	ctx := c.Request.Context()
	customer := h.notifier.NotifyCustomer(ctx, o)
	admins := h.notifier.NotifyAdmins(ctx, o)

	slog.Info("test notification sent",
		"customer_outcome", customer.Outcome,
		"admins_delivered", admins.Delivered,
	)

	common.Success(c, http.StatusOK, gin.H{
		"customer": customer,
		"admins":   admins,
	})
}

// SendPush handles POST /api/v1/notifications/push
// Fans a custom push message out to every known device token.
func (h *Handler) SendPush(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
		Body  string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	tokens, err := h.resolver.CollectPushTokens(ctx)
	if err != nil {
		slog.Error("collecting push tokens failed", "error", err)
		common.HandleError(c, err)
		return
	}

	result, err := h.notifier.SendPush(ctx, tokens, req.Title, req.Body)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListRecentOrders handles GET /api/v1/orders/recent
// Returns the latest stored orders in normalized form.
func (h *Handler) ListRecentOrders(c *gin.Context) {
	docs, err := h.store.ListRecent(c.Request.Context(), 10)
	if err != nil {
		slog.Error("listing recent orders failed", "error", err)
		common.HandleError(c, err)
		return
	}

	orders := make([]order.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, order.Normalize(doc.ID, doc.CreatedAt, doc.Data))
	}

	common.Success(c, http.StatusOK, gin.H{
		"count":  len(orders),
		"orders": orders,
	})
}

// ListPushTokens handles GET /api/v1/push-tokens
// Returns the resolved device tokens, masked.
func (h *Handler) ListPushTokens(c *gin.Context) {
	tokens, err := h.resolver.CollectPushTokens(c.Request.Context())
	if err != nil {
		slog.Error("collecting push tokens failed", "error", err)
		common.HandleError(c, err)
		return
	}

	masked := make([]string, len(tokens))
	for i, t := range tokens {
		masked[i] = maskToken(t)
	}

	common.Success(c, http.StatusOK, gin.H{
		"count":  len(tokens),
		"tokens": masked,
	})
}

// RegisterRoutes registers notification routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notifications/test", h.SendTest)
	rg.POST("/notifications/push", h.SendPush)
	rg.GET("/orders/recent", h.ListRecentOrders)
	rg.GET("/push-tokens", h.ListPushTokens)
}

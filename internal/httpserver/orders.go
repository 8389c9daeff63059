package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"aura-taste/internal/domain"
	"aura-taste/internal/lifecycle"
	"aura-taste/internal/service/checkout"
	ordersvc "aura-taste/internal/service/order"
	"github.com/gin-gonic/gin"
)

type orderResponse struct {
	ordersvc.View
	TrackingURL string `json:"trackingUrl,omitempty"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlers) view(o domain.Order, now time.Time) orderResponse {
	resp := orderResponse{View: h.deps.OrderSvc.Describe(o, now)}
	if h.deps.QR != nil {
		resp.TrackingURL = h.deps.QR.URL(o.ID)
	}
	return resp
}

func (h *handlers) views(orders []domain.Order) []orderResponse {
	now := time.Now()
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, h.view(o, now))
	}
	return out
}

func (h *handlers) placeOrder(c *gin.Context) {
	var in checkout.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	o, err := h.deps.CheckoutSvc.Place(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(*o, time.Now()))
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.Mine(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": h.views(orders), "count": len(orders)})
}

func (h *handlers) order(c *gin.Context) {
	v, err := h.deps.OrderSvc.Track(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := orderResponse{View: *v}
	if h.deps.QR != nil {
		resp.TrackingURL = h.deps.QR.URL(v.ID)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) orderQR(c *gin.Context) {
	if h.deps.QR == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "tracking codes are disabled"})
		return
	}
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	png, err := h.deps.QR.PNG(o.ID, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *handlers) adminOrders(c *gin.Context) {
	tab := lifecycle.ParseTab(c.Query("tab"))
	orders, err := h.deps.OrderSvc.ByTab(c.Request.Context(), tab)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab": tab, "results": h.views(orders), "count": len(orders)})
}

func (h *handlers) pendingCount(c *gin.Context) {
	n, err := h.deps.OrderSvc.PendingCount(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *handlers) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "status required"})
		return
	}
	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(*o, time.Now()))
}

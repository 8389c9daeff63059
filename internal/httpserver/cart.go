package httpserver

import (
	"errors"
	"net/http"

	"aura-taste/internal/cart"
	cartsvc "aura-taste/internal/service/cart"
	"github.com/gin-gonic/gin"
)

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type dealRequest struct {
	ProductIDs []string `json:"productIds" binding:"required"`
}

// cartResult answers with the snapshot. An unsynced write still returns the
// cart so the client can show what it holds.
func (h *handlers) cartResult(c *gin.Context, status int, snap cart.Snapshot, err error) {
	if err != nil {
		if errors.Is(err, cart.ErrUnsynced) {
			h.logger.Printf("api: cart unsynced owner=%s error=%v", principalFrom(c).CartOwner(), err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "cart": snap})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(status, snap)
}

func (h *handlers) getCart(c *gin.Context) {
	snap, err := h.deps.CartSvc.Get(c.Request.Context(), principalFrom(c).CartOwner())
	h.cartResult(c, http.StatusOK, snap, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	snap, err := h.deps.CartSvc.Clear(c.Request.Context(), principalFrom(c).CartOwner())
	h.cartResult(c, http.StatusOK, snap, err)
}

func (h *handlers) addLine(c *gin.Context) {
	var in cartsvc.AddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	snap, err := h.deps.CartSvc.Add(c.Request.Context(), principalFrom(c).CartOwner(), in)
	h.cartResult(c, http.StatusCreated, snap, err)
}

func (h *handlers) addDeal(c *gin.Context) {
	var req dealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "productIds required"})
		return
	}
	snap, err := h.deps.CartSvc.AddDeal(c.Request.Context(), principalFrom(c).CartOwner(), req.ProductIDs)
	h.cartResult(c, http.StatusCreated, snap, err)
}

func (h *handlers) setQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "quantity required"})
		return
	}
	snap, err := h.deps.CartSvc.SetQuantity(c.Request.Context(), principalFrom(c).CartOwner(), c.Param("lineId"), *req.Quantity)
	h.cartResult(c, http.StatusOK, snap, err)
}

func (h *handlers) removeLine(c *gin.Context) {
	snap, err := h.deps.CartSvc.RemoveLine(c.Request.Context(), principalFrom(c).CartOwner(), c.Param("lineId"))
	h.cartResult(c, http.StatusOK, snap, err)
}

func (h *handlers) addresses(c *gin.Context) {
	list, err := h.deps.CartSvc.Addresses(c.Request.Context(), principalFrom(c).CartOwner())
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"addresses": list})
}

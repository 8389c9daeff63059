package httpserver

import (
	"net/http"
	"strings"

	"aura-taste/internal/auth"
	"aura-taste/internal/domain"
	customersvc "aura-taste/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	GrantType string `form:"grant_type" binding:"required"`
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"`
	Customer     *domain.Customer `json:"customer"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	ExpiresIn int    `json:"expires_in"`
}

func (h *handlers) signup(c *gin.Context) {
	var in customersvc.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}
	cust, err := h.deps.CustomerSvc.Signup(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": cust})
}

// token logs a customer in. A shopper session sent alongside has its cart
// merged into the customer's cart.
func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "grant_type, username and password are required"})
		return
	}
	if req.GrantType != "password" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unsupported grant_type"})
		return
	}
	ctx := c.Request.Context()
	cust, access, refresh, err := h.deps.CustomerSvc.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	if session := c.GetHeader(sessionHeader); session != "" {
		guest, err := h.deps.Resolver.Resolve(ctx, "", session)
		if err == nil && guest.SessionID != "" {
			owner := domain.Principal{CustomerID: cust.ID}.CartOwner()
			if _, err := h.deps.CartSvc.Merge(ctx, guest.CartOwner(), owner); err != nil {
				h.logger.Printf("api: merge cart customer=%s error=%v", cust.ID, err)
			}
		}
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    h.deps.CustomerSvc.AccessTTLSeconds(),
		Customer:     cust,
	})
}

func (h *handlers) logout(c *gin.Context) {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		writeError(c, domain.ErrUnauthorized)
		return
	}
	everywhere := strings.EqualFold(c.Query("everywhere"), "true")
	if err := h.deps.CustomerSvc.Logout(c.Request.Context(), token, everywhere); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, principalFrom(c))
}

func (h *handlers) newSession(c *gin.Context) {
	token, id, err := h.deps.SessionSvc.Issue(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Token: token, SessionID: id, ExpiresIn: h.deps.SessionSvc.TTLSeconds()})
}

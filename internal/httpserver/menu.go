package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) menu(c *gin.Context) {
	sections, err := h.deps.MenuSvc.Menu(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

func (h *handlers) product(c *gin.Context) {
	p, err := h.deps.MenuSvc.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

package httpserver

import (
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"aura-taste/internal/auth"
	"aura-taste/internal/domain"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	principalCtxKey = "principal"
	sessionHeader   = auth.SessionHeader
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// principalMiddleware resolves the caller and rejects requests without a
// valid customer token or shopper session.
func principalMiddleware(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := auth.BearerToken(c.GetHeader("Authorization"))
		session := c.GetHeader(sessionHeader)
		if session == "" {
			// Browsers cannot set headers on websocket upgrades.
			session = c.Query("session")
		}
		if bearer == "" && c.Query("token") != "" {
			bearer = c.Query("token")
		}
		p, err := resolver.Resolve(c.Request.Context(), bearer, session)
		if err != nil {
			abortError(c, err)
			return
		}
		c.Set(principalCtxKey, p)
		c.Next()
	}
}

func principalFrom(c *gin.Context) domain.Principal {
	v, ok := c.Get(principalCtxKey)
	if !ok {
		return domain.Principal{}
	}
	p, _ := v.(domain.Principal)
	return p
}

func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principalFrom(c).Anonymous() {
			abortError(c, domain.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalFrom(c)
		if p.Anonymous() {
			abortError(c, domain.ErrUnauthorized)
			return
		}
		if !p.Admin {
			abortError(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

func metricsMiddleware(m Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// checkoutLimiter keeps one token bucket per cart owner.
func checkoutLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	every := rate.Every(time.Minute / time.Duration(perMinute))
	return func(c *gin.Context) {
		owner := principalFrom(c).CartOwner()
		mu.Lock()
		l, ok := limiters[owner]
		if !ok {
			l = rate.NewLimiter(every, perMinute)
			limiters[owner] = l
		}
		mu.Unlock()
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many orders, try again shortly"})
			return
		}
		c.Next()
	}
}
